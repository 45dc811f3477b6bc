package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/workflow-service/internal/ticket"
)

type TeamHandler struct {
	svc *ticket.Service
}

func NewTeamHandler(svc *ticket.Service) *TeamHandler {
	return &TeamHandler{svc: svc}
}

func (h *TeamHandler) Utilization(c *gin.Context) {
	rows, err := h.svc.TeamUtilization(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": rows})
}

func (h *TeamHandler) Members(c *gin.Context) {
	members, err := h.svc.Members(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}
