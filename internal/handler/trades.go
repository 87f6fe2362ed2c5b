package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"autotrader/internal/orchestrator"
	"autotrader/internal/repository"
)

type TradesHandler struct {
	Repo         repository.Repository
	Orchestrator *orchestrator.Orchestrator
	AuthToken    string
}

func (h *TradesHandler) Register(r *gin.Engine) {
	g := r.Group("/api")
	g.GET("/trades", h.list)
	g.GET("/optimizations", h.optimizations)
	g.POST("/trades/:trade_id/close", BearerAuth(h.AuthToken), h.close)
}

// @Summary List trades
// @Tags trades
// @Param limit query int false "max records"
// @Param offset query int false "offset"
// @Param module query string false "filter by module"
// @Param strategy query string false "filter by strategy"
// @Param symbol query string false "filter by symbol"
// @Param status query string false "open or closed"
// @Success 200 {object} apiResponse
// @Router /api/trades [get]
func (h *TradesHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListTradesParams{
		Limit:    limit,
		Offset:   offset,
		Module:   strQueryPtr(c, "module"),
		Strategy: strQueryPtr(c, "strategy"),
		Symbol:   strQueryPtr(c, "symbol"),
		Status:   strQueryPtr(c, "status"),
	}
	if since := strings.TrimSpace(c.Query("since")); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid since timestamp", nil)
			return
		}
		params.Since = &ts
	}
	items, err := h.Repo.ListTrades(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset))
}

// @Summary Optimization event log
// @Tags trades
// @Param limit query int false "max records"
// @Param applied query bool false "filter by applied"
// @Success 200 {object} apiResponse
// @Router /api/optimizations [get]
func (h *TradesHandler) optimizations(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListOptimizationEventsParams{
		Limit:    limit,
		Offset:   offset,
		Module:   strQueryPtr(c, "module"),
		Strategy: strQueryPtr(c, "strategy"),
		Applied:  boolQueryPtr(c, "applied"),
	}
	items, err := h.Repo.ListOptimizationEvents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset))
}

type closeTradeRequest struct {
	ExitPrice decimal.Decimal `json:"exit_price"`
}

// @Summary Close an open trade
// @Tags trades
// @Param trade_id path string true "trade id"
// @Param body body closeTradeRequest true "exit price"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/trades/{trade_id}/close [post]
func (h *TradesHandler) close(c *gin.Context) {
	if h.Orchestrator == nil {
		Error(c, http.StatusInternalServerError, "orchestrator unavailable", nil)
		return
	}
	tradeID := strings.TrimSpace(c.Param("trade_id"))
	if tradeID == "" {
		Error(c, http.StatusBadRequest, "invalid trade id", nil)
		return
	}
	var req closeTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if req.ExitPrice.LessThanOrEqual(decimal.Zero) {
		Error(c, http.StatusBadRequest, "exit_price must be positive", nil)
		return
	}
	trade, err := h.Orchestrator.RecordExit(c.Request.Context(), tradeID, req.ExitPrice)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrTradeNotFound):
			Error(c, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, orchestrator.ErrTradeClosed):
			Error(c, http.StatusConflict, err.Error(), nil)
		default:
			Error(c, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}
	Ok(c, trade, nil)
}
