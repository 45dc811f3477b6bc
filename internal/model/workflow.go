package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type RequestType string

const (
	RequestTypeBudget  RequestType = "budget"
	RequestTypeLeave   RequestType = "leave"
	RequestTypeExpense RequestType = "expense"
	RequestTypeProject RequestType = "project"
	RequestTypeAsset   RequestType = "asset"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// WorkflowRule is one registry entry: the named role must approve once the
// request amount meets or exceeds the threshold. Immutable after load.
type WorkflowRule struct {
	Role            string  `json:"role" yaml:"role"`
	AmountThreshold float64 `json:"amount_threshold" yaml:"threshold"`
	Label           string  `json:"label" yaml:"label"`
}

// ApprovalChainLink is one level of a built chain. Levels are contiguous,
// zero-based and strictly increasing within a chain. Status is write-once.
type ApprovalChainLink struct {
	Level               int            `json:"level"`
	Role                string         `json:"role"`
	Label               string         `json:"label,omitempty"`
	EligibleApproverIDs []string       `json:"eligible_approver_ids"`
	Status              ApprovalStatus `json:"status"`
	ApprovedBy          string         `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time     `json:"approved_at,omitempty"`
	Comments            string         `json:"comments,omitempty"`
}

// Eligible reports whether the actor may decide this level.
func (l *ApprovalChainLink) Eligible(actorID string) bool {
	for _, id := range l.EligibleApproverIDs {
		if id == actorID {
			return true
		}
	}
	return false
}

// ApprovalChain is stored as a single JSONB column; the chain is only ever
// read and written as a whole under the instance's version guard.
type ApprovalChain []ApprovalChainLink

func (c ApprovalChain) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *ApprovalChain) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = nil
		return nil
	default:
		return fmt.Errorf("approval chain: cannot scan %T", src)
	}
}

// JSONPayload is an opaque JSON column passed through without interpretation.
type JSONPayload json.RawMessage

func (p JSONPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return string(p), nil
}

func (p *JSONPayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		*p = append((*p)[:0], v...)
		return nil
	case string:
		*p = JSONPayload(v)
		return nil
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("json payload: cannot scan %T", src)
	}
}

func (p JSONPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *JSONPayload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

// WorkflowInstance is the persisted record of one request's progress through
// its approval chain. Created with CurrentLevel=0 and all links pending;
// mutated only by the approval engine; never deleted (terminal states are
// retained for audit).
//
// CurrentLevel stays at the last index when the final level is approved;
// "fully consumed" is signalled by OverallStatus, not by the pointer.
type WorkflowInstance struct {
	ID            uint64         `gorm:"primaryKey" json:"id"`
	RequestType   RequestType    `gorm:"type:varchar(32);index;not null" json:"request_type"`
	RequestedBy   string         `gorm:"type:varchar(64);index;not null" json:"requested_by"`
	Chain         ApprovalChain  `gorm:"type:jsonb;not null" json:"chain"`
	CurrentLevel  int            `gorm:"not null" json:"current_level"`
	OverallStatus ApprovalStatus `gorm:"type:varchar(16);index;not null" json:"overall_status"`
	Amount        float64        `gorm:"type:numeric(14,2)" json:"amount"`
	Description   string         `gorm:"type:text" json:"description,omitempty"`
	Details       JSONPayload    `gorm:"type:jsonb" json:"details,omitempty"`
	Version       int64          `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentLink returns the link at the current level pointer.
func (w *WorkflowInstance) CurrentLink() *ApprovalChainLink {
	if w.CurrentLevel < 0 || w.CurrentLevel >= len(w.Chain) {
		return nil
	}
	return &w.Chain[w.CurrentLevel]
}
