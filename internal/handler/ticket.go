package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/workflow-service/internal/model"
	"github.com/psds-microservice/workflow-service/internal/sla"
	"github.com/psds-microservice/workflow-service/internal/ticket"
)

type TicketHandler struct {
	svc *ticket.Service
}

func NewTicketHandler(svc *ticket.Service) *TicketHandler {
	return &TicketHandler{svc: svc}
}

// ticketResponse wraps a ticket with its SLA classification, recomputed on
// every read.
type ticketResponse struct {
	*model.SupportTicket
	SLAStatus sla.Compliance `json:"sla_status"`
	HoursOpen float64        `json:"hours_open"`
}

func toResponse(t *model.SupportTicket, now time.Time) ticketResponse {
	return ticketResponse{
		SupportTicket: t,
		SLAStatus:     sla.Classify(t, now),
		HoursOpen:     sla.HoursOpen(t, now),
	}
}

type createTicketRequest struct {
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	RequesterID    string  `json:"requester_id" binding:"required"`
	Priority       string  `json:"priority"`
	SLATargetHours float64 `json:"sla_target_hours" binding:"required,gt=0"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t := &model.SupportTicket{
		Title:          req.Title,
		Description:    req.Description,
		RequesterID:    req.RequesterID,
		Priority:       model.TicketPriority(req.Priority),
		SLATargetHours: req.SLATargetHours,
	}
	if err := h.svc.Create(c.Request.Context(), t); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(t, time.Now()))
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(t, time.Now()))
}

func (h *TicketHandler) List(c *gin.Context) {
	filter := make(map[string]interface{})
	if v := c.Query("status"); v != "" {
		filter["status = ?"] = v
	}
	if v := c.Query("assignee_id"); v != "" {
		filter["assignee_id = ?"] = v
	}
	if v := c.Query("requester_id"); v != "" {
		filter["requester_id = ?"] = v
	}
	if v := c.Query("priority"); v != "" {
		filter["priority = ?"] = v
	}
	limit, offset := pagination(c)
	items, total, err := h.svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	now := time.Now()
	out := make([]ticketResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i], now))
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": out,
		"total":   total,
	})
}

type assignRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required"`
	ActorID    string `json:"actor_id" binding:"required"`
	Force      bool   `json:"force"`
}

func (h *TicketHandler) Assign(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.Assign(c.Request.Context(), id, req.AssigneeID, req.ActorID, req.Force)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(t, time.Now()))
}

type escalateRequest struct {
	ActorID      string `json:"actor_id" binding:"required"`
	ToAssigneeID string `json:"to_assignee_id" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
	Notes        string `json:"notes"`
}

func (h *TicketHandler) Escalate(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req escalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.Escalate(c.Request.Context(), id, req.ActorID, req.ToAssigneeID, req.Reason, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(t, time.Now()))
}

type actorRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

func (h *TicketHandler) Resolve(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.Resolve(c.Request.Context(), id, req.ActorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(t, time.Now()))
}

func (h *TicketHandler) Close(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.Close(c.Request.Context(), id, req.ActorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(t, time.Now()))
}

type commentRequest struct {
	AuthorID string `json:"author_id" binding:"required"`
	Body     string `json:"body" binding:"required"`
}

func (h *TicketHandler) Comment(c *gin.Context) {
	id, ok := ticketID(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	ev, err := h.svc.Comment(c.Request.Context(), id, req.AuthorID, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func ticketID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
