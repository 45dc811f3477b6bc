package store

import (
	"context"
	"errors"

	"github.com/psds-microservice/workflow-service/internal/errs"
	"github.com/psds-microservice/workflow-service/internal/model"
	"gorm.io/gorm"
)

// activeStatuses are the ticket states that count against a member's
// concurrency ceiling.
var activeStatuses = []model.TicketStatus{
	model.TicketStatusPending,
	model.TicketStatusInProgress,
}

// TicketStore persists support tickets and their append-only event trail.
type TicketStore struct {
	db *gorm.DB
}

func NewTicketStore(db *gorm.DB) *TicketStore {
	return &TicketStore{db: db}
}

func (s *TicketStore) Create(ctx context.Context, t *model.SupportTicket) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *TicketStore) Get(ctx context.Context, id uint64) (*model.SupportTicket, error) {
	var t model.SupportTicket
	err := s.db.WithContext(ctx).
		Preload("Events", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// casUpdate writes the mutable ticket columns guarded by the version column.
// The caller bumps t.Version only after the surrounding work committed.
func casUpdate(tx *gorm.DB, t *model.SupportTicket) error {
	res := tx.Model(&model.SupportTicket{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]interface{}{
			"assignee_id":       t.AssigneeID,
			"status":            t.Status,
			"escalation_level":  t.EscalationLevel,
			"resolved_at":       t.ResolvedAt,
			"first_response_at": t.FirstResponseAt,
			"version":           t.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrConcurrentModification
	}
	return nil
}

func (s *TicketStore) Update(ctx context.Context, t *model.SupportTicket) error {
	if err := casUpdate(s.db.WithContext(ctx), t); err != nil {
		return err
	}
	t.Version++
	return nil
}

// UpdateWithEvent persists the ticket columns and the trail event in one
// transaction: a failed event insert rolls the ticket update back.
func (s *TicketStore) UpdateWithEvent(ctx context.Context, t *model.SupportTicket, ev *model.TicketEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := casUpdate(tx, t); err != nil {
			return err
		}
		return tx.Create(ev).Error
	})
	if err != nil {
		return err
	}
	t.Version++
	return nil
}

func (s *TicketStore) AppendEvent(ctx context.Context, ev *model.TicketEvent) error {
	return s.db.WithContext(ctx).Create(ev).Error
}

func (s *TicketStore) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.SupportTicket, int64, error) {
	var items []model.SupportTicket
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.SupportTicket{})
	for k, v := range filter {
		tx = tx.Where(k, v)
	}
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *TicketStore) ActiveCount(ctx context.Context, assigneeID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.SupportTicket{}).
		Where("assignee_id = ? AND status IN ?", assigneeID, activeStatuses).
		Count(&n).Error
	return int(n), err
}

func (s *TicketStore) ActiveCountByAssignee(ctx context.Context) (map[string]int, error) {
	type row struct {
		AssigneeID string
		N          int
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&model.SupportTicket{}).
		Select("assignee_id, COUNT(*) AS n").
		Where("assignee_id <> '' AND status IN ?", activeStatuses).
		Group("assignee_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.AssigneeID] = r.N
	}
	return out, nil
}
