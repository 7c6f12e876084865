package database

import (
	"context"

	"maitred/internal/models"

	"github.com/jinzhu/gorm"
)

// KitchenRepository stores kitchen requests in the kitchen_requests table.
type KitchenRepository struct {
	db *gorm.DB
}

func NewKitchenRepository(db *gorm.DB) *KitchenRepository {
	return &KitchenRepository{db: db}
}

func (r *KitchenRepository) Create(ctx context.Context, req *models.KitchenRequest) error {
	return r.db.Create(req).Error
}

func (r *KitchenRepository) Get(ctx context.Context, id string) (*models.KitchenRequest, error) {
	var req models.KitchenRequest
	err := r.db.Where("id = ?", id).First(&req).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, models.NotFoundf("kitchen request %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *KitchenRepository) Update(ctx context.Context, req *models.KitchenRequest) error {
	res := r.db.Model(&models.KitchenRequest{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"status":     req.Status,
		"priority":   req.Priority,
		"history":    req.History,
		"details":    req.Details,
		"updated_at": req.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NotFoundf("kitchen request %s", req.ID)
	}
	return nil
}

func (r *KitchenRepository) List(ctx context.Context) ([]models.KitchenRequest, error) {
	var reqs []models.KitchenRequest
	if err := r.db.Order("created_at desc").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *KitchenRepository) Delete(ctx context.Context, id string) error {
	res := r.db.Where("id = ?", id).Delete(&models.KitchenRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NotFoundf("kitchen request %s", id)
	}
	return nil
}
