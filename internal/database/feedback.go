package database

import (
	"context"

	"maitred/internal/models"

	"github.com/jinzhu/gorm"
)

// FeedbackRepository stores analysed feedback in the feedback_records table.
type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, rec *models.FeedbackRecord) error {
	return r.db.Create(rec).Error
}

func (r *FeedbackRepository) Get(ctx context.Context, id string) (*models.FeedbackRecord, error) {
	var rec models.FeedbackRecord
	err := r.db.Where("id = ?", id).First(&rec).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, models.NotFoundf("feedback %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *FeedbackRepository) List(ctx context.Context) ([]models.FeedbackRecord, error) {
	var recs []models.FeedbackRecord
	if err := r.db.Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
