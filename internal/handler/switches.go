package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"autotrader/internal/service"
)

type SwitchesHandler struct {
	Flags     *service.Flags
	AuthToken string
}

func (h *SwitchesHandler) Register(r *gin.Engine) {
	g := r.Group("/api/switches")
	g.GET("/:name", h.get)
	g.PUT("/:name", BearerAuth(h.AuthToken), h.put)
}

// @Summary Read a feature switch
// @Tags switches
// @Param name path string true "switch name"
// @Success 200 {object} apiResponse
// @Router /api/switches/{name} [get]
func (h *SwitchesHandler) get(c *gin.Context) {
	if h.Flags == nil {
		Error(c, http.StatusInternalServerError, "flags unavailable", nil)
		return
	}
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		Error(c, http.StatusBadRequest, "invalid switch name", nil)
		return
	}
	enabled := h.Flags.IsEnabled(c.Request.Context(), name)
	Ok(c, gin.H{"name": name, "enabled": enabled}, nil)
}

type putSwitchRequest struct {
	Enabled bool `json:"enabled"`
}

// @Summary Toggle a feature switch
// @Tags switches
// @Param name path string true "switch name"
// @Param body body putSwitchRequest true "desired state"
// @Success 200 {object} apiResponse
// @Router /api/switches/{name} [put]
func (h *SwitchesHandler) put(c *gin.Context) {
	if h.Flags == nil {
		Error(c, http.StatusInternalServerError, "flags unavailable", nil)
		return
	}
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		Error(c, http.StatusBadRequest, "invalid switch name", nil)
		return
	}
	var req putSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Flags.SetEnabled(c.Request.Context(), name, req.Enabled); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"name": name, "enabled": req.Enabled}, nil)
}
