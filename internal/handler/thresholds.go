package handler

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"autotrader/internal/core"
	"autotrader/internal/gate"
	"autotrader/internal/repository"
)

type ThresholdHandler struct {
	Gate      *gate.Gate
	Repo      repository.Repository
	AuthToken string
}

func (h *ThresholdHandler) Register(r *gin.Engine) {
	g := r.Group("/api/thresholds")
	g.GET("", h.list)
	g.GET("/changes", h.changes)
	g.PUT("/:module/:strategy", BearerAuth(h.AuthToken), h.put)
}

// @Summary Current threshold table
// @Tags thresholds
// @Success 200 {object} apiResponse
// @Router /api/thresholds [get]
func (h *ThresholdHandler) list(c *gin.Context) {
	if h.Gate == nil {
		Error(c, http.StatusInternalServerError, "gate unavailable", nil)
		return
	}
	entries := h.Gate.Snapshot()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Module != entries[j].Module {
			return entries[i].Module < entries[j].Module
		}
		return entries[i].Strategy < entries[j].Strategy
	})
	Ok(c, entries, nil)
}

// @Summary Threshold change audit log
// @Tags thresholds
// @Param limit query int false "max records"
// @Success 200 {object} apiResponse
// @Router /api/thresholds/changes [get]
func (h *ThresholdHandler) changes(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	items, err := h.Repo.ListThresholdChanges(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, 0))
}

type putThresholdRequest struct {
	Value float64 `json:"value"`
}

// @Summary Manually set a threshold
// @Tags thresholds
// @Param module path string true "module"
// @Param strategy path string true "strategy"
// @Param body body putThresholdRequest true "new value"
// @Success 200 {object} apiResponse
// @Failure 422 {object} apiResponse
// @Router /api/thresholds/{module}/{strategy} [put]
func (h *ThresholdHandler) put(c *gin.Context) {
	if h.Gate == nil {
		Error(c, http.StatusInternalServerError, "gate unavailable", nil)
		return
	}
	mod, err := core.ParseModule(strings.TrimSpace(c.Param("module")))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	strategy := strings.TrimSpace(c.Param("strategy"))
	if strategy == "" {
		Error(c, http.StatusBadRequest, "invalid strategy", nil)
		return
	}
	var req putThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	key := core.StrategyKey{Module: mod, Strategy: strategy}
	if err := h.Gate.SetThreshold(c.Request.Context(), key, req.Value, gate.SourceManual); err != nil {
		if errors.Is(err, gate.ErrOutOfBounds) {
			Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	value, _ := h.Gate.Threshold(key)
	Ok(c, gin.H{"module": string(mod), "strategy": strategy, "value": value}, nil)
}
