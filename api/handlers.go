package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"pixeldesk/models"
	"pixeldesk/service"
)

type handlers struct {
	deps Dependencies
}

func respondError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	c.JSON(status, body)
}

func (h *handlers) health(c *gin.Context) {
	if h.deps.Health != nil {
		if err := h.deps.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type bindRequest struct {
	WorkstationID string `json:"workstationId"`
	UserID        string `json:"userId"`
}

func (h *handlers) bind(c *gin.Context) {
	var req bindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.Validation("请求格式错误"))
		return
	}
	if strings.TrimSpace(req.WorkstationID) == "" {
		respondError(c, service.Validation("缺少工位ID"))
		return
	}

	userID, err := targetUser(c, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.deps.Bindings.Bind(c.Request.Context(), userID, req.WorkstationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"binding":         result.Binding,
		"remainingPoints": result.RemainingPoints,
	})
}

func (h *handlers) unbind(c *gin.Context) {
	workstationID := strings.TrimSpace(c.Query("workstationId"))
	if workstationID == "" {
		respondError(c, service.Validation("缺少工位ID"))
		return
	}

	userID, err := targetUser(c, c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.deps.Bindings.Unbind(c.Request.Context(), userID, workstationID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handlers) listBindings(c *gin.Context) {
	userID, err := targetUser(c, c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	bindings, err := h.deps.Bindings.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if bindings == nil {
		bindings = []*models.WorkstationBinding{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": bindings})
}

func (h *handlers) stats(c *gin.Context) {
	stats, err := h.deps.Bindings.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (h *handlers) runSweep(c *gin.Context) {
	run, err := h.deps.Coordinator.RunNow(c.Request.Context(), models.SweepTriggerManual)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"runId":          run.ID,
		"scanned":        run.Scanned,
		"warned":         run.Warned,
		"reclaimed":      run.Reclaimed,
		"refundedPoints": run.RefundedPoints,
		"failed":         run.Failed,
	})
}

func (h *handlers) previewSweep(c *gin.Context) {
	preview, err := h.deps.Sweeper.Preview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "preview": preview})
}

func (h *handlers) pointsHistory(c *gin.Context) {
	userID, err := targetUser(c, c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", service.DefaultHistoryLimit)

	history, err := h.deps.Points.History(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": history})
}

type chatRequest struct {
	NpcID   string `json:"npcId"`
	Message string `json:"message"`
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.Validation("请求格式错误"))
		return
	}

	reply, err := h.deps.Chat.Chat(c.Request.Context(), c.GetString(ctxUserID), req.NpcID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *handlers) getWorkstationConfig(c *gin.Context) {
	cfg, err := h.deps.Config.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": cfg})
}

func (h *handlers) updateWorkstationConfig(c *gin.Context) {
	var cfg models.WorkstationConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respondError(c, service.Validation("请求格式错误"))
		return
	}

	if err := h.deps.Config.Update(c.Request.Context(), &cfg); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.deps.Config.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": updated})
}

// queryInt parses an integer query parameter, falling back on absence or garbage
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
