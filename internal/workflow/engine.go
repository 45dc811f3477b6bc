package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psds-microservice/workflow-service/internal/errs"
	"github.com/psds-microservice/workflow-service/internal/model"
	"go.uber.org/zap"
)

// InstanceStore is the persistence contract for workflow instances. Update
// must be a compare-and-swap on the instance version, returning
// errs.ErrConcurrentModification when the stored version moved.
type InstanceStore interface {
	Create(ctx context.Context, w *model.WorkflowInstance) error
	Get(ctx context.Context, id uint64) (*model.WorkflowInstance, error)
	Update(ctx context.Context, w *model.WorkflowInstance) error
	List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.WorkflowInstance, int64, error)
}

// EventProducer dispatches transition notifications. Best-effort: delivery
// outcome never affects the transition.
type EventProducer interface {
	Produce(ctx context.Context, event string, payload map[string]interface{})
}

// casAttempts bounds the transparent retry on lost version races. Only
// ErrConcurrentModification is retried; every retry re-reads and re-validates.
const casAttempts = 3

// Engine owns all mutation of workflow instances: submission, approval and
// rejection. Pending → Approved (all levels consumed) or Pending → Rejected
// (any single rejection); both terminal.
type Engine struct {
	store    InstanceStore
	builder  *Builder
	producer EventProducer
	log      *zap.Logger
	now      func() time.Time
}

func NewEngine(store InstanceStore, builder *Builder, producer EventProducer, log *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		builder:  builder,
		producer: producer,
		log:      log,
		now:      time.Now,
	}
}

// SubmitRequest carries everything needed to open a workflow instance.
type SubmitRequest struct {
	RequestType model.RequestType
	RequestedBy string
	Amount      float64
	Description string
	Details     model.JSONPayload
}

// Submit builds the approval chain and persists a fresh instance at level 0.
// Chain construction failures surface before anything is stored.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*model.WorkflowInstance, error) {
	if _, err := model.DecodeDetails(req.RequestType, req.Details); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidRequestType, err)
	}
	chain, err := e.builder.BuildChain(ctx, req.RequestType, req.Amount)
	if err != nil {
		return nil, err
	}
	w := &model.WorkflowInstance{
		RequestType:   req.RequestType,
		RequestedBy:   req.RequestedBy,
		Chain:         chain,
		CurrentLevel:  0,
		OverallStatus: model.ApprovalStatusPending,
		Amount:        req.Amount,
		Description:   req.Description,
		Details:       req.Details,
	}
	if err := e.store.Create(ctx, w); err != nil {
		return nil, err
	}
	e.log.Info("workflow submitted",
		zap.Uint64("workflow_id", w.ID),
		zap.String("request_type", string(w.RequestType)),
		zap.Int("levels", len(w.Chain)))
	e.notify(ctx, "workflow.submitted", w, req.RequestedBy)
	return w, nil
}

// Get loads a single instance.
func (e *Engine) Get(ctx context.Context, id uint64) (*model.WorkflowInstance, error) {
	return e.store.Get(ctx, id)
}

// List returns instances matching the filter, newest first.
func (e *Engine) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.WorkflowInstance, int64, error) {
	return e.store.List(ctx, filter, limit, offset)
}

// Approve records the actor's approval at the current level. At the last
// level the instance becomes Approved and the level pointer stays put (chain
// fully consumed); otherwise the pointer advances by one.
func (e *Engine) Approve(ctx context.Context, id uint64, actorID, comments string) (*model.WorkflowInstance, error) {
	w, err := e.decide(ctx, id, actorID, func(w *model.WorkflowInstance, link *model.ApprovalChainLink) {
		now := e.now()
		link.Status = model.ApprovalStatusApproved
		link.ApprovedBy = actorID
		link.ApprovedAt = &now
		link.Comments = comments
		if w.CurrentLevel == len(w.Chain)-1 {
			w.OverallStatus = model.ApprovalStatusApproved
		} else {
			w.CurrentLevel++
		}
	})
	if err != nil {
		return nil, err
	}
	event := "workflow.advanced"
	if w.OverallStatus == model.ApprovalStatusApproved {
		event = "workflow.approved"
	}
	e.notify(ctx, event, w, actorID)
	return w, nil
}

// Reject records the actor's rejection at the current level and terminates
// the instance. The level pointer freezes at its present value; remaining
// levels are never evaluated.
func (e *Engine) Reject(ctx context.Context, id uint64, actorID, reason string) (*model.WorkflowInstance, error) {
	w, err := e.decide(ctx, id, actorID, func(w *model.WorkflowInstance, link *model.ApprovalChainLink) {
		now := e.now()
		link.Status = model.ApprovalStatusRejected
		link.ApprovedBy = actorID
		link.ApprovedAt = &now
		link.Comments = reason
		w.OverallStatus = model.ApprovalStatusRejected
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, "workflow.rejected", w, actorID)
	return w, nil
}

// decide runs the shared precondition ladder and the mutation under a bounded
// CAS loop. Two concurrent decisions on the same instance serialize on the
// version column: the loser re-reads and, when the rival already decided the
// level, fails the precondition check instead of double-advancing.
func (e *Engine) decide(ctx context.Context, id uint64, actorID string, mutate func(*model.WorkflowInstance, *model.ApprovalChainLink)) (*model.WorkflowInstance, error) {
	targetLevel := -1
	for attempt := 0; attempt < casAttempts; attempt++ {
		w, err := e.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if w.OverallStatus != model.ApprovalStatusPending {
			return nil, errs.ErrAlreadyDecided
		}
		if targetLevel == -1 {
			targetLevel = w.CurrentLevel
		} else if w.CurrentLevel != targetLevel {
			// The level this action targeted was decided by a rival writer
			// while we were retrying.
			return nil, errs.ErrAlreadyDecided
		}
		link := w.CurrentLink()
		if link == nil {
			return nil, fmt.Errorf("workflow %d: level pointer %d out of range", w.ID, w.CurrentLevel)
		}
		if !link.Eligible(actorID) {
			return nil, fmt.Errorf("%w: actor %q at level %d", errs.ErrUnauthorized, actorID, w.CurrentLevel)
		}
		if link.Status != model.ApprovalStatusPending {
			// First writer wins; a decided link is never re-decided.
			return nil, errs.ErrAlreadyDecided
		}

		mutate(w, link)

		if err := e.store.Update(ctx, w); err != nil {
			if errors.Is(err, errs.ErrConcurrentModification) {
				e.log.Debug("workflow decision lost version race, retrying",
					zap.Uint64("workflow_id", id), zap.Int("attempt", attempt+1))
				continue
			}
			return nil, err
		}
		return w, nil
	}
	return nil, errs.ErrConcurrentModification
}

func (e *Engine) notify(ctx context.Context, event string, w *model.WorkflowInstance, actorID string) {
	if e.producer == nil {
		return
	}
	e.producer.Produce(ctx, event, map[string]interface{}{
		"workflow_id":    w.ID,
		"request_type":   string(w.RequestType),
		"requested_by":   w.RequestedBy,
		"actor_id":       actorID,
		"current_level":  w.CurrentLevel,
		"overall_status": string(w.OverallStatus),
	})
}
