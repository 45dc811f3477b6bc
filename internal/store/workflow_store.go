package store

import (
	"context"
	"errors"

	"github.com/psds-microservice/workflow-service/internal/errs"
	"github.com/psds-microservice/workflow-service/internal/model"
	"gorm.io/gorm"
)

// WorkflowStore persists workflow instances in Postgres. Updates are guarded
// by the version column: the read-modify-write of {chain, current_level,
// overall_status} is a single logical transaction and the losing writer gets
// errs.ErrConcurrentModification.
type WorkflowStore struct {
	db *gorm.DB
}

func NewWorkflowStore(db *gorm.DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

func (s *WorkflowStore) Create(ctx context.Context, w *model.WorkflowInstance) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *WorkflowStore) Get(ctx context.Context, id uint64) (*model.WorkflowInstance, error) {
	var w model.WorkflowInstance
	if err := s.db.WithContext(ctx).First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (s *WorkflowStore) Update(ctx context.Context, w *model.WorkflowInstance) error {
	res := s.db.WithContext(ctx).
		Model(&model.WorkflowInstance{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]interface{}{
			"chain":          w.Chain,
			"current_level":  w.CurrentLevel,
			"overall_status": w.OverallStatus,
			"version":        w.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Rows are never deleted, so a miss means the version moved.
		return errs.ErrConcurrentModification
	}
	w.Version++
	return nil
}

func (s *WorkflowStore) List(ctx context.Context, filter map[string]interface{}, limit, offset int) ([]model.WorkflowInstance, int64, error) {
	var items []model.WorkflowInstance
	var total int64
	tx := s.db.WithContext(ctx).Model(&model.WorkflowInstance{})
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
