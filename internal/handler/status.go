package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"autotrader/internal/dashboard"
	"autotrader/internal/orchestrator"
	"autotrader/internal/repository"
)

type StatusHandler struct {
	Aggregator   *dashboard.Aggregator
	Orchestrator *orchestrator.Orchestrator
	Repo         repository.Repository
	AuthToken    string
}

func (h *StatusHandler) Register(r *gin.Engine) {
	g := r.Group("/api")
	g.GET("/status", h.status)
	g.GET("/account", h.account)
	g.GET("/market", h.market)
	g.GET("/logs", h.logs)
	g.POST("/cycle", BearerAuth(h.AuthToken), h.runCycle)
	g.POST("/snapshot", BearerAuth(h.AuthToken), h.writeSnapshot)
}

// @Summary Full dashboard snapshot
// @Tags status
// @Produce json
// @Success 200 {object} dashboard.Snapshot
// @Router /api/status [get]
func (h *StatusHandler) status(c *gin.Context) {
	if h.Aggregator == nil {
		Error(c, http.StatusInternalServerError, "aggregator unavailable", nil)
		return
	}
	raw, err := h.Aggregator.JSON(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// @Summary Latest account snapshot
// @Tags status
// @Success 200 {object} apiResponse
// @Router /api/account [get]
func (h *StatusHandler) account(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	snapshot, err := h.Repo.LatestPortfolioSnapshot(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if snapshot == nil {
		Error(c, http.StatusNotFound, "no portfolio snapshot yet", nil)
		return
	}
	Ok(c, snapshot, nil)
}

// @Summary Open positions with current marks
// @Tags status
// @Success 200 {object} apiResponse
// @Router /api/market [get]
func (h *StatusHandler) market(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	positions, err := h.Repo.ListOpenPositions(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, positions, nil)
}

// @Summary Recent cycle records and optimization events
// @Tags status
// @Param limit query int false "max records per log"
// @Success 200 {object} apiResponse
// @Router /api/logs [get]
func (h *StatusHandler) logs(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	records, err := h.Repo.ListCycleRecords(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	events, err := h.Repo.ListOptimizationEvents(c.Request.Context(), repository.ListOptimizationEventsParams{Limit: limit})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"cycles": records, "optimizations": events}, paginationMeta(limit, 0))
}

// @Summary Trigger one cycle on demand
// @Tags status
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/cycle [post]
func (h *StatusHandler) runCycle(c *gin.Context) {
	if h.Orchestrator == nil {
		Error(c, http.StatusInternalServerError, "orchestrator unavailable", nil)
		return
	}
	result, err := h.Orchestrator.RunCycle(c.Request.Context())
	if err != nil {
		if errors.Is(err, orchestrator.ErrCycleBusy) {
			Error(c, http.StatusConflict, err.Error(), nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

// @Summary Force snapshot file regeneration
// @Tags status
// @Success 200 {object} apiResponse
// @Router /api/snapshot [post]
func (h *StatusHandler) writeSnapshot(c *gin.Context) {
	if h.Aggregator == nil {
		Error(c, http.StatusInternalServerError, "aggregator unavailable", nil)
		return
	}
	if err := h.Aggregator.WriteFile(c.Request.Context()); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"written": true}, nil)
}
