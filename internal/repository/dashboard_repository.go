package repository

import (
	"context"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DashboardRepository struct {
	DB *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

func (r *DashboardRepository) FindByUserID(ctx context.Context, userID uint) (*model.UserDashboard, error) {
	var d model.UserDashboard
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DashboardRepository) Create(ctx context.Context, d *model.UserDashboard) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

// SaveSubmission 测试记录与统计在同一事务中写入。
// 统计按 version 做比较交换，读取之后有其他写入时整个事务回滚。
func (r *DashboardRepository) SaveSubmission(ctx context.Context, userID uint, expectedVersion int64, analytics model.DashboardAnalytics, record *model.TestRecord) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UserDashboard{}).
			Where("user_id = ? AND version = ?", userID, expectedVersion).
			Updates(map[string]interface{}{
				"analytics": datatypes.NewJSONType(analytics),
				"version":   expectedVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrConcurrentUpdate
		}
		return tx.Create(record).Error
	})
}
