package repository

import (
	"context"
	"exam_prep_backend/internal/model"

	"gorm.io/gorm"
)

type TestRecordRepository struct {
	DB *gorm.DB
}

func NewTestRecordRepository(db *gorm.DB) *TestRecordRepository {
	return &TestRecordRepository{DB: db}
}

// ListByUser 列表不加载 payload
func (r *TestRecordRepository) ListByUser(ctx context.Context, userID uint) ([]model.TestRecord, error) {
	var rs []model.TestRecord
	err := r.DB.WithContext(ctx).
		Omit("payload").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&rs).Error
	return rs, err
}

func (r *TestRecordRepository) FindByID(ctx context.Context, userID uint, id string) (*model.TestRecord, error) {
	var rec model.TestRecord
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
