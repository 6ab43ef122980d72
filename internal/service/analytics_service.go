package service

import (
	"context"
	"errors"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"
	"exam_prep_backend/pkg/tracing"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

type DashboardStore interface {
	FindByUserID(ctx context.Context, userID uint) (*model.UserDashboard, error)
	Create(ctx context.Context, d *model.UserDashboard) error
	// SaveSubmission 在同一事务中写入测试记录并按版本号整体替换统计，版本不符返回 util.ErrConcurrentUpdate
	SaveSubmission(ctx context.Context, userID uint, expectedVersion int64, analytics model.DashboardAnalytics, record *model.TestRecord) error
}

type TestRecordStore interface {
	ListByUser(ctx context.Context, userID uint) ([]model.TestRecord, error)
	FindByID(ctx context.Context, userID uint, id string) (*model.TestRecord, error)
}

type AnalyticsService struct {
	Users      UserLookup
	Dashboards DashboardStore
	Tests      TestRecordStore
	Locker     UserLocker
	Window     int
}

func NewAnalyticsService(users UserLookup, dashboards DashboardStore, tests TestRecordStore, locker UserLocker, cfg config.AnalyticsConfig) *AnalyticsService {
	window := cfg.TrendWindow
	if window <= 0 {
		window = model.DefaultTrendWindow
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &AnalyticsService{
		Users:      users,
		Dashboards: dashboards,
		Tests:      tests,
		Locker:     locker,
		Window:     window,
	}
}

func (s *AnalyticsService) ensureUser(ctx context.Context, userID uint) error {
	if _, err := s.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	return nil
}

// InitDashboard 建立全零统计，已存在时直接返回
func (s *AnalyticsService) InitDashboard(ctx context.Context, userID uint) (*model.UserDashboard, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	d, err := s.Dashboards.FindByUserID(ctx, userID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find dashboard: %w", err)
	}

	d = &model.UserDashboard{
		UserID:    userID,
		Analytics: datatypes.NewJSONType(model.NewDashboardAnalytics(s.Window)),
	}
	if err := s.Dashboards.Create(ctx, d); err != nil {
		// 并发初始化时唯一索引冲突，回读已存在的记录
		if existing, findErr := s.Dashboards.FindByUserID(ctx, userID); findErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("create dashboard: %w", err)
	}
	logger.Log.Info("dashboard initialized", zap.Uint("userId", userID))
	return d, nil
}

func (s *AnalyticsService) GetDashboard(ctx context.Context, userID uint) (*model.DashboardAnalytics, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	d, err := s.Dashboards.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrDashboardNotFound
		}
		return nil, fmt.Errorf("find dashboard: %w", err)
	}
	analytics := d.Analytics.Data()
	return &analytics, nil
}

// RecordSubmission 把一次测试结果并入用户统计。
// 同一用户的更新通过 Locker 串行化，写回时再用版本号做一次比较，任何失败都不会留下部分更新。
func (s *AnalyticsService) RecordSubmission(ctx context.Context, userID uint, sub *model.TestSubmission) (*model.DashboardAnalytics, error) {
	ctx, span := tracing.StartSpan(ctx, "AnalyticsService.RecordSubmission",
		attribute.Int("userId", int(userID)),
		attribute.Int("totalQuestions", sub.TotalQuestions),
	)
	defer span.End()

	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	unlock, err := s.Locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	dash, err := s.InitDashboard(ctx, userID)
	if err != nil {
		return nil, err
	}

	analytics := dash.Analytics.Data()
	if err := foldSubmission(&analytics, sub, s.Window); err != nil {
		return nil, err
	}

	record := &model.TestRecord{
		UserID:           userID,
		TotalQuestions:   sub.TotalQuestions,
		CorrectAnswers:   sub.CorrectAnswers,
		OverallTimeSpent: sub.OverallTimeSpent,
		Payload:          datatypes.NewJSONType(*sub),
	}
	if err := s.Dashboards.SaveSubmission(ctx, userID, dash.Version, analytics, record); err != nil {
		span.RecordError(err)
		if errors.Is(err, util.ErrConcurrentUpdate) {
			monitoring.SubmissionConflicts.Inc()
			logger.Log.Warn("dashboard version conflict", zap.Uint("userId", userID), zap.Int64("version", dash.Version))
			return nil, err
		}
		return nil, fmt.Errorf("save submission: %w", err)
	}

	monitoring.SubmissionsRecorded.Inc()
	logger.Log.Info("test submission recorded",
		zap.Uint("userId", userID),
		zap.String("testId", record.ID),
		zap.Int("testsTaken", analytics.TestsTaken),
		zap.Float64("accuracy", analytics.Accuracy),
	)
	return &analytics, nil
}

func (s *AnalyticsService) ListTests(ctx context.Context, userID uint) ([]model.TestOverview, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	records, err := s.Tests.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	out := make([]model.TestOverview, 0, len(records))
	for _, r := range records {
		out = append(out, model.TestOverview{
			ID:               r.ID,
			TotalQuestions:   r.TotalQuestions,
			CorrectAnswers:   r.CorrectAnswers,
			OverallTimeSpent: r.OverallTimeSpent,
			CreatedAt:        r.CreatedAt.Format(util.TimeFormat),
		})
	}
	return out, nil
}

func (s *AnalyticsService) GetTest(ctx context.Context, userID uint, id string) (*model.TestRecord, error) {
	r, err := s.Tests.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestRecordNotFound
		}
		return nil, fmt.Errorf("find test: %w", err)
	}
	return r, nil
}
