package model

import "time"

type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Terminal reports whether the status is terminal for SLA purposes.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// SupportTicket is one support request tracked against an SLA target.
// EscalationLevel only ever increases; FirstResponseAt is set at most once,
// on first assignment.
type SupportTicket struct {
	ID              uint64         `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"type:varchar(255);not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	RequesterID     string         `gorm:"type:varchar(64);index;not null" json:"requester_id"`
	AssigneeID      string         `gorm:"type:varchar(64);index" json:"assignee_id,omitempty"`
	Priority        TicketPriority `gorm:"type:varchar(16);index" json:"priority,omitempty"`
	Status          TicketStatus   `gorm:"type:varchar(32);index;not null" json:"status"`
	SLATargetHours  float64        `gorm:"not null" json:"sla_target_hours"`
	EscalationLevel int            `gorm:"not null;default:0" json:"escalation_level"`
	Version         int64          `gorm:"not null;default:0" json:"version"`

	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	FirstResponseAt *time.Time `json:"first_response_at,omitempty"`

	Events []TicketEvent `gorm:"foreignKey:TicketID" json:"events,omitempty"`
}

type TicketEventKind string

const (
	TicketEventComment    TicketEventKind = "comment"
	TicketEventEscalation TicketEventKind = "escalation"
)

// TicketEvent is one entry in a ticket's append-only audit trail: either a
// comment or an escalation record. Rows are never updated or deleted.
type TicketEvent struct {
	ID       uint64          `gorm:"primaryKey" json:"id"`
	TicketID uint64          `gorm:"index;not null" json:"ticket_id"`
	Kind     TicketEventKind `gorm:"type:varchar(16);not null" json:"kind"`
	ActorID  string          `gorm:"type:varchar(64);not null" json:"actor_id"`
	Body     string          `gorm:"type:text" json:"body,omitempty"`

	// Escalation-only fields.
	Reason      string `gorm:"type:text" json:"reason,omitempty"`
	EscalatedTo string `gorm:"type:varchar(64)" json:"escalated_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TeamMember is read-only reference data for capacity calculations.
type TeamMember struct {
	UserID               string `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	Role                 string `gorm:"type:varchar(64)" json:"role"`
	MaxConcurrentTickets int    `gorm:"not null" json:"max_concurrent_tickets"`
	AvailabilityStatus   string `gorm:"type:varchar(32)" json:"availability_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
