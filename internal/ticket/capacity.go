package ticket

import (
	"context"
	"sort"

	"github.com/psds-microservice/workflow-service/internal/model"
)

// MemberUtilization is one row of the team capacity view. UtilizationPct is
// the raw ratio and may exceed 100: over-capacity must stay visible so that
// assignment logic and callers can act on it. Any clamping to [0,100] is a
// display concern.
type MemberUtilization struct {
	UserID             string  `json:"user_id"`
	Role               string  `json:"role,omitempty"`
	AvailabilityStatus string  `json:"availability_status,omitempty"`
	ActiveTickets      int     `json:"active_tickets"`
	MaxConcurrent      int     `json:"max_concurrent_tickets"`
	UtilizationPct     float64 `json:"utilization_pct"`
	OverCapacity       bool    `json:"over_capacity"`
}

// MemberLoad computes a single member's utilization from their active count.
func MemberLoad(m model.TeamMember, active int) MemberUtilization {
	u := MemberUtilization{
		UserID:             m.UserID,
		Role:               m.Role,
		AvailabilityStatus: m.AvailabilityStatus,
		ActiveTickets:      active,
		MaxConcurrent:      m.MaxConcurrentTickets,
	}
	if m.MaxConcurrentTickets > 0 {
		u.UtilizationPct = float64(active) / float64(m.MaxConcurrentTickets) * 100
		u.OverCapacity = active >= m.MaxConcurrentTickets
	}
	return u
}

// TeamUtilization aggregates active ticket counts per member against their
// concurrency ceilings, ordered by user ID for stable output.
func (s *Service) TeamUtilization(ctx context.Context) ([]MemberUtilization, error) {
	members, err := s.team.Members(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.ActiveCountByAssignee(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MemberUtilization, 0, len(members))
	for _, m := range members {
		out = append(out, MemberLoad(m, counts[m.UserID]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Members lists the team reference data.
func (s *Service) Members(ctx context.Context) ([]model.TeamMember, error) {
	return s.team.Members(ctx)
}
