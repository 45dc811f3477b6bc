package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psds-microservice/workflow-service/internal/errs"
	"github.com/psds-microservice/workflow-service/internal/model"
	"go.uber.org/zap"
)

// Store is the persistence contract for tickets. Update and UpdateWithEvent
// must be a compare-and-swap on the ticket version, returning
// errs.ErrConcurrentModification when the stored version moved.
// UpdateWithEvent persists the ticket and the event atomically: either both
// land or neither does. Tickets are independent of each other; no cross-ticket
// atomicity is required.
type Store interface {
	Create(ctx context.Context, t *model.SupportTicket) error
	Get(ctx context.Context, id uint64) (*model.SupportTicket, error)
	Update(ctx context.Context, t *model.SupportTicket) error
	UpdateWithEvent(ctx context.Context, t *model.SupportTicket, ev *model.TicketEvent) error
	AppendEvent(ctx context.Context, ev *model.TicketEvent) error
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.SupportTicket, int64, error)
	ActiveCountByAssignee(ctx context.Context) (map[string]int, error)
	ActiveCount(ctx context.Context, assigneeID string) (int, error)
}

// TeamStore reads team member reference data.
type TeamStore interface {
	Members(ctx context.Context) ([]model.TeamMember, error)
	Member(ctx context.Context, userID string) (*model.TeamMember, error)
}

// EventProducer dispatches transition notifications, best-effort.
type EventProducer interface {
	Produce(ctx context.Context, event string, payload map[string]interface{})
}

const casAttempts = 3

// Service is the escalation and assignment engine for support tickets.
type Service struct {
	store    Store
	team     TeamStore
	producer EventProducer
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store Store, team TeamStore, producer EventProducer, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		team:     team,
		producer: producer,
		log:      log,
		now:      time.Now,
	}
}

// Create opens a ticket in pending state, unassigned.
func (s *Service) Create(ctx context.Context, t *model.SupportTicket) error {
	t.Status = model.TicketStatusPending
	t.AssigneeID = ""
	t.EscalationLevel = 0
	if t.Priority == "" {
		t.Priority = model.TicketPriorityMedium
	}
	if err := s.store.Create(ctx, t); err != nil {
		return err
	}
	s.notify(ctx, "ticket.created", t, t.RequesterID)
	return nil
}

// Get loads a ticket with its event trail.
func (s *Service) Get(ctx context.Context, id uint64) (*model.SupportTicket, error) {
	return s.store.Get(ctx, id)
}

// List returns tickets matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.SupportTicket, int64, error) {
	return s.store.List(ctx, filter, limit, offset)
}

// Assign routes the ticket to a responder. Allowed on a pending unassigned
// ticket, or as a reassignment at any non-terminal status. A pending ticket
// moves to in_progress; FirstResponseAt is stamped only the first time, so
// repeated assignment is idempotent with respect to it. The target's
// concurrency ceiling is enforced unless force is set (manager override); the
// check runs inside the CAS cycle after the status preconditions, so it is
// re-evaluated on every retry and never masks ErrNotFound.
func (s *Service) Assign(ctx context.Context, id uint64, assigneeID, actorID string, force bool) (*model.SupportTicket, error) {
	t, err := s.mutate(ctx, id, func(t *model.SupportTicket) (*model.TicketEvent, error) {
		if t.Status.Terminal() {
			return nil, fmt.Errorf("%w: cannot assign a %s ticket", errs.ErrInvalidTransition, t.Status)
		}
		if !(t.Status == model.TicketStatusPending && t.AssigneeID == "") && !force {
			// Reassignment of an in-flight ticket is a manager action.
			return nil, fmt.Errorf("%w: reassignment requires manager override", errs.ErrUnauthorized)
		}
		if !force {
			if err := s.checkCapacity(ctx, assigneeID); err != nil {
				return nil, err
			}
		}
		t.AssigneeID = assigneeID
		if t.Status == model.TicketStatusPending {
			t.Status = model.TicketStatusInProgress
		}
		if t.FirstResponseAt == nil {
			now := s.now()
			t.FirstResponseAt = &now
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, "ticket.assigned", t, actorID)
	return t, nil
}

// Escalate bumps the escalation level by exactly one, reassigns the ticket
// and appends an escalation event. The ticket row and the event are persisted
// in one atomic write, so a failure leaves the level, assignee and trail all
// untouched. Status is unchanged; only pending and in-progress tickets can
// escalate. The capacity ceiling is not applied here: an escalated ticket must
// always land somewhere. The escalation target is the ticket's first responder
// when nobody was assigned before, so FirstResponseAt is stamped here too
// (once, like Assign).
func (s *Service) Escalate(ctx context.Context, id uint64, actorID, toAssigneeID, reason, notes string) (*model.SupportTicket, error) {
	t, err := s.mutate(ctx, id, func(t *model.SupportTicket) (*model.TicketEvent, error) {
		if t.Status != model.TicketStatusPending && t.Status != model.TicketStatusInProgress {
			return nil, fmt.Errorf("%w: cannot escalate a %s ticket", errs.ErrInvalidTransition, t.Status)
		}
		t.EscalationLevel++
		t.AssigneeID = toAssigneeID
		if t.FirstResponseAt == nil {
			now := s.now()
			t.FirstResponseAt = &now
		}
		return &model.TicketEvent{
			TicketID:    t.ID,
			Kind:        model.TicketEventEscalation,
			ActorID:     actorID,
			Reason:      reason,
			Body:        notes,
			EscalatedTo: toAssigneeID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("ticket escalated",
		zap.Uint64("ticket_id", t.ID),
		zap.Int("escalation_level", t.EscalationLevel),
		zap.String("escalated_to", toAssigneeID))
	s.notify(ctx, "ticket.escalated", t, actorID)
	return t, nil
}

// Resolve marks the ticket resolved. Terminal for SLA purposes.
func (s *Service) Resolve(ctx context.Context, id uint64, actorID string) (*model.SupportTicket, error) {
	t, err := s.mutate(ctx, id, func(t *model.SupportTicket) (*model.TicketEvent, error) {
		if t.Status.Terminal() {
			return nil, fmt.Errorf("%w: ticket already %s", errs.ErrInvalidTransition, t.Status)
		}
		now := s.now()
		t.Status = model.TicketStatusResolved
		t.ResolvedAt = &now
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, "ticket.resolved", t, actorID)
	return t, nil
}

// Close archives a resolved ticket. Likewise terminal for SLA.
func (s *Service) Close(ctx context.Context, id uint64, actorID string) (*model.SupportTicket, error) {
	t, err := s.mutate(ctx, id, func(t *model.SupportTicket) (*model.TicketEvent, error) {
		if t.Status != model.TicketStatusResolved {
			return nil, fmt.Errorf("%w: only resolved tickets can be closed", errs.ErrInvalidTransition)
		}
		t.Status = model.TicketStatusClosed
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, "ticket.closed", t, actorID)
	return t, nil
}

// Comment appends a comment to the ticket's event trail.
func (s *Service) Comment(ctx context.Context, id uint64, authorID, body string) (*model.TicketEvent, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ev := &model.TicketEvent{
		TicketID: t.ID,
		Kind:     model.TicketEventComment,
		ActorID:  authorID,
		Body:     body,
	}
	if err := s.store.AppendEvent(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// mutate runs fn over a fresh read of the ticket under a bounded CAS loop.
// When fn returns an event, the ticket update and the event land in one
// atomic store write.
func (s *Service) mutate(ctx context.Context, id uint64, fn func(*model.SupportTicket) (*model.TicketEvent, error)) (*model.SupportTicket, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		t, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		ev, err := fn(t)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			err = s.store.UpdateWithEvent(ctx, t, ev)
		} else {
			err = s.store.Update(ctx, t)
		}
		if err != nil {
			if errors.Is(err, errs.ErrConcurrentModification) {
				continue
			}
			return nil, err
		}
		if ev != nil {
			t.Events = append(t.Events, *ev)
		}
		return t, nil
	}
	return nil, errs.ErrConcurrentModification
}

// checkCapacity fails with ErrOverCapacity when the target already carries
// their full concurrent load. Members without a reference row carry no
// ceiling; that is logged rather than refused.
func (s *Service) checkCapacity(ctx context.Context, assigneeID string) error {
	member, err := s.team.Member(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("assignee has no team member record, skipping capacity check",
				zap.String("assignee_id", assigneeID))
			return nil
		}
		return err
	}
	if member.MaxConcurrentTickets <= 0 {
		return nil
	}
	active, err := s.store.ActiveCount(ctx, assigneeID)
	if err != nil {
		return err
	}
	if active >= member.MaxConcurrentTickets {
		return fmt.Errorf("%w: %s has %d of %d active tickets",
			errs.ErrOverCapacity, assigneeID, active, member.MaxConcurrentTickets)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, event string, t *model.SupportTicket, actorID string) {
	if s.producer == nil {
		return
	}
	s.producer.Produce(ctx, event, map[string]interface{}{
		"ticket_id":        t.ID,
		"requester_id":     t.RequesterID,
		"assignee_id":      t.AssigneeID,
		"actor_id":         actorID,
		"status":           string(t.Status),
		"escalation_level": t.EscalationLevel,
	})
}
