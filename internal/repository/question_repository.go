package repository

import (
	"context"
	"exam_prep_backend/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// randomOrder MySQL 用 RAND()，测试使用的 sqlite 用 RANDOM()
func randomOrder(db *gorm.DB) clause.Expr {
	if db.Dialector.Name() == "mysql" {
		return clause.Expr{SQL: "RAND()"}
	}
	return clause.Expr{SQL: "RANDOM()"}
}

// SampleQuestions 随机抽取最多 k 道匹配的题目（不放回）
func (r *QuestionRepository) SampleQuestions(ctx context.Context, filter model.QuestionFilter, k int) ([]model.Question, error) {
	var qs []model.Question
	query := r.DB.WithContext(ctx).Model(&model.Question{}).Where("section = ?", filter.Section)
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if len(filter.Domains) > 0 {
		query = query.Where("domain IN ?", filter.Domains)
	}
	if filter.StandaloneOnly {
		query = query.Where("galley_id IS NULL")
	}
	err := query.Clauses(clause.OrderBy{Expression: randomOrder(r.DB)}).Limit(k).Find(&qs).Error
	return qs, err
}

// SampleGalleys 随机抽取最多 k 篇文章/案例，domains 为空时不按领域过滤
func (r *QuestionRepository) SampleGalleys(ctx context.Context, section model.Section, domains []string, k int) ([]model.Galley, error) {
	var gs []model.Galley
	query := r.DB.WithContext(ctx).Model(&model.Galley{}).Where("section = ?", section)
	if len(domains) > 0 {
		query = query.Where("domain IN ?", domains)
	}
	err := query.Clauses(clause.OrderBy{Expression: randomOrder(r.DB)}).Limit(k).Find(&gs).Error
	return gs, err
}

// FindQuestionsByIDs ids 应已去重
func (r *QuestionRepository) FindQuestionsByIDs(ctx context.Context, ids []uint) ([]model.Question, error) {
	var qs []model.Question
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) FindGalleyByID(ctx context.Context, id uint) (*model.Galley, error) {
	var g model.Galley
	if err := r.DB.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *QuestionRepository) ListGalleyQuestions(ctx context.Context, galleyID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.WithContext(ctx).Where("galley_id = ?", galleyID).Order("id asc").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) CreateGalley(ctx context.Context, g *model.Galley) error {
	return r.DB.WithContext(ctx).Create(g).Error
}

// CreateQuestion 题目属于某篇文章时，同一事务内把 ID 追加到文章对应难度的分区
func (r *QuestionRepository) CreateQuestion(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		if q.GalleyID == nil {
			return nil
		}

		var g model.Galley
		query := tx
		if tx.Dialector.Name() == "mysql" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&g, *q.GalleyID).Error; err != nil {
			return err
		}
		p := g.QuestionIDs.Data()
		p.Append(q.Difficulty, q.ID)
		return tx.Model(&model.Galley{}).Where("id = ?", g.ID).
			Update("question_ids", datatypes.NewJSONType(p)).Error
	})
}

func (r *QuestionRepository) UpdateGalleyPartition(ctx context.Context, galleyID uint, p model.DifficultyPartition) error {
	res := r.DB.WithContext(ctx).Model(&model.Galley{}).Where("id = ?", galleyID).
		Update("question_ids", datatypes.NewJSONType(p))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListGalleyIDs section 为空时返回全部
func (r *QuestionRepository) ListGalleyIDs(ctx context.Context, section model.Section) ([]uint, error) {
	var ids []uint
	query := r.DB.WithContext(ctx).Model(&model.Galley{})
	if section != "" {
		query = query.Where("section = ?", section)
	}
	err := query.Order("id asc").Pluck("id", &ids).Error
	return ids, err
}
