package store

import (
	"context"
	"errors"

	"github.com/psds-microservice/workflow-service/internal/errs"
	"github.com/psds-microservice/workflow-service/internal/model"
	"gorm.io/gorm"
)

// TeamStore reads team member reference data.
type TeamStore struct {
	db *gorm.DB
}

func NewTeamStore(db *gorm.DB) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) Members(ctx context.Context) ([]model.TeamMember, error) {
	var members []model.TeamMember
	if err := s.db.WithContext(ctx).Order("user_id ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (s *TeamStore) Member(ctx context.Context, userID string) (*model.TeamMember, error) {
	var m model.TeamMember
	if err := s.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
