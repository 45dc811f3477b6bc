package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/workflow-service/internal/model"
	"github.com/psds-microservice/workflow-service/internal/workflow"
)

type WorkflowHandler struct {
	engine *workflow.Engine
}

func NewWorkflowHandler(engine *workflow.Engine) *WorkflowHandler {
	return &WorkflowHandler{engine: engine}
}

type submitWorkflowRequest struct {
	RequestType string            `json:"request_type" binding:"required"`
	RequestedBy string            `json:"requested_by" binding:"required"`
	Amount      float64           `json:"amount"`
	Description string            `json:"description"`
	Details     model.JSONPayload `json:"details"`
}

func (h *WorkflowHandler) Submit(c *gin.Context) {
	var req submitWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	w, err := h.engine.Submit(c.Request.Context(), workflow.SubmitRequest{
		RequestType: model.RequestType(req.RequestType),
		RequestedBy: req.RequestedBy,
		Amount:      req.Amount,
		Description: req.Description,
		Details:     req.Details,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WorkflowHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	w, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WorkflowHandler) List(c *gin.Context) {
	filter := make(map[string]interface{})
	if v := c.Query("status"); v != "" {
		filter["overall_status = ?"] = v
	}
	if v := c.Query("request_type"); v != "" {
		filter["request_type = ?"] = v
	}
	if v := c.Query("requested_by"); v != "" {
		filter["requested_by = ?"] = v
	}
	limit, offset := pagination(c)
	items, total, err := h.engine.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workflows": items,
		"total":     total,
	})
}

type approveRequest struct {
	ActorID  string `json:"actor_id" binding:"required"`
	Comments string `json:"comments"`
}

func (h *WorkflowHandler) Approve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	w, err := h.engine.Approve(c.Request.Context(), id, req.ActorID, req.Comments)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type rejectRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Reason  string `json:"reason" binding:"required"`
}

func (h *WorkflowHandler) Reject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	w, err := h.engine.Reject(c.Request.Context(), id, req.ActorID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func pagination(c *gin.Context) (limit, offset int) {
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
