package service

import (
	"context"
	"encoding/json"
	"errors"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"
	"exam_prep_backend/pkg/tracing"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ItemPool 题库存储
type ItemPool interface {
	SampleQuestions(ctx context.Context, filter model.QuestionFilter, k int) ([]model.Question, error)
	SampleGalleys(ctx context.Context, section model.Section, domains []string, k int) ([]model.Galley, error)
	FindQuestionsByIDs(ctx context.Context, ids []uint) ([]model.Question, error)
	FindGalleyByID(ctx context.Context, id uint) (*model.Galley, error)
	ListGalleyQuestions(ctx context.Context, galleyID uint) ([]model.Question, error)
	CreateGalley(ctx context.Context, g *model.Galley) error
	CreateQuestion(ctx context.Context, q *model.Question) error
	UpdateGalleyPartition(ctx context.Context, galleyID uint, p model.DifficultyPartition) error
}

type QuestionService struct {
	Pool   ItemPool
	intn   IntN
	limits atomic.Pointer[config.AssemblyConfig]
}

func NewQuestionService(pool ItemPool, cfg config.AssemblyConfig) *QuestionService {
	s := &QuestionService{Pool: pool, intn: rand.IntN}
	s.UpdateLimits(cfg)
	return s
}

// WithRand 替换随机源，测试中用固定种子
func (s *QuestionService) WithRand(intn IntN) *QuestionService {
	s.intn = intn
	return s
}

// UpdateLimits 配置热更新回调
func (s *QuestionService) UpdateLimits(cfg config.AssemblyConfig) {
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = util.MaxQuestionsPerRequest
	}
	if cfg.VerbalPassageCap <= 0 {
		cfg.VerbalPassageCap = util.VerbalPassageCap
	}
	if cfg.ReadingChunk <= 0 {
		cfg.ReadingChunk = util.ReadingChunkSize
	}
	s.limits.Store(&cfg)
}

type AssembleRequest struct {
	NumQuestions int      `json:"numQuestions"`
	Difficulty   string   `json:"difficulty" binding:"required"`
	Topics       []string `json:"topics"`
}

type QuestionView struct {
	ID         string           `json:"id"`
	Section    model.Section    `json:"section"`
	Difficulty model.Difficulty `json:"difficulty"`
	Domain     string           `json:"domain"`
	Topic      string           `json:"topic,omitempty"`
	Text       string           `json:"text"`
	ImageURL   string           `json:"imageUrl,omitempty"`
	TypeAnswer bool             `json:"typeAnswer"`
	Options    json.RawMessage  `json:"options,omitempty"`
}

type GalleyView struct {
	ID        string         `json:"id"`
	Section   model.Section  `json:"section"`
	Domain    string         `json:"domain"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	ImageURL  string         `json:"imageUrl,omitempty"`
	Questions []QuestionView `json:"questions"`
}

// AssembledSet 组卷结果，不落库。
// QA 使用 Questions，DILR 使用 Galleys，VARC 使用 Reading/Verbal。
type AssembledSet struct {
	Section   model.Section  `json:"section"`
	Questions []QuestionView `json:"questions,omitempty"`
	Galleys   []GalleyView   `json:"galleys,omitempty"`
	Reading   []GalleyView   `json:"reading,omitempty"`
	Verbal    []QuestionView `json:"verbal,omitempty"`
}

// Count 实际返回的题目总数
func (a *AssembledSet) Count() int {
	n := len(a.Questions) + len(a.Verbal)
	for _, g := range a.Galleys {
		n += len(g.Questions)
	}
	for _, g := range a.Reading {
		n += len(g.Questions)
	}
	return n
}

func (a *AssembledSet) Empty() bool {
	return a.Count() == 0
}

func newQuestionView(q *model.Question) QuestionView {
	v := QuestionView{
		ID:         util.FormatID(q.ID),
		Section:    q.Section,
		Difficulty: q.Difficulty,
		Domain:     q.Domain,
		Topic:      q.Topic,
		Text:       q.Text,
		ImageURL:   q.ImageURL,
		TypeAnswer: q.TypeAnswer(),
	}
	if !v.TypeAnswer {
		v.Options = json.RawMessage(q.Options)
	}
	return v
}

func newGalleyView(g *model.Galley, questions []QuestionView) GalleyView {
	return GalleyView{
		ID:        util.FormatID(g.ID),
		Section:   g.Section,
		Domain:    g.Domain,
		Title:     g.Title,
		Body:      g.Body,
		ImageURL:  g.ImageURL,
		Questions: questions,
	}
}

func (s *QuestionService) validate(req AssembleRequest) (model.Difficulty, error) {
	limits := s.limits.Load()
	if req.NumQuestions < 1 || req.NumQuestions > limits.MaxQuestions {
		return "", fmt.Errorf("%w: got %d", util.ErrInvalidCount, req.NumQuestions)
	}
	d, ok := model.ParseDifficultyLabel(req.Difficulty)
	if !ok {
		return "", fmt.Errorf("%w: got %q", util.ErrInvalidDifficulty, req.Difficulty)
	}
	return d, nil
}

// AssembleQuestions 按板块组卷。题库中没有匹配内容时返回空结果而不是错误。
func (s *QuestionService) AssembleQuestions(ctx context.Context, section model.Section, req AssembleRequest) (*AssembledSet, error) {
	difficulty, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "QuestionService.AssembleQuestions",
		attribute.String("section", string(section)),
		attribute.Int("count", req.NumQuestions),
		attribute.String("difficulty", string(difficulty)),
	)
	defer span.End()

	set := &AssembledSet{Section: section}
	switch section {
	case model.SectionQA:
		// 未选题型时返回空结果
		if len(req.Topics) == 0 {
			break
		}
		set.Questions, err = s.sampleCorpus(ctx, model.QuestionFilter{
			Section:        model.SectionQA,
			Difficulty:     difficulty,
			Domains:        req.Topics,
			StandaloneOnly: true,
		}, req.NumQuestions)
	case model.SectionDILR:
		if len(req.Topics) == 0 {
			break
		}
		set.Galleys, err = s.assemblePassages(ctx, model.SectionDILR, req.Topics, difficulty,
			SplitGalleys(req.NumQuestions, s.intn))
	case model.SectionVARC:
		err = s.assembleVerbal(ctx, set, req, difficulty)
	default:
		return nil, fmt.Errorf("%w: %q", util.ErrInvalidSection, section)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("assemble %s questions: %w", section, err)
	}

	got := set.Count()
	monitoring.QuestionsAssembled.WithLabelValues(string(section)).Add(float64(got))
	if got < req.NumQuestions {
		monitoring.AssemblyShortfall.WithLabelValues(string(section)).Inc()
		logger.Log.Warn("question pool shortfall",
			zap.String("section", string(section)),
			zap.String("difficulty", string(difficulty)),
			zap.Strings("topics", req.Topics),
			zap.Int("requested", req.NumQuestions),
			zap.Int("returned", got),
		)
	}
	span.SetAttributes(attribute.Int("returned", got))
	return set, nil
}

// assembleVerbal VARC：阅读走文章流程，语言题走独立题抽样
func (s *QuestionService) assembleVerbal(ctx context.Context, set *AssembledSet, req AssembleRequest, d model.Difficulty) error {
	limits := s.limits.Load()
	var wantVerbal, wantReading bool
	for _, t := range req.Topics {
		switch t {
		case model.DomainVerbalAbility:
			wantVerbal = true
		case model.DomainReading:
			wantReading = true
		}
	}

	readingCount, verbalCount := req.NumQuestions, 0
	switch {
	case wantVerbal && wantReading:
		readingCount, verbalCount = SplitVerbal(req.NumQuestions, limits.VerbalPassageCap)
	case wantVerbal:
		readingCount, verbalCount = 0, req.NumQuestions
	}

	var err error
	if verbalCount > 0 {
		set.Verbal, err = s.sampleCorpus(ctx, model.QuestionFilter{
			Section:        model.SectionVARC,
			Difficulty:     d,
			Domains:        []string{model.DomainVerbalAbility},
			StandaloneOnly: true,
		}, verbalCount)
		if err != nil {
			return err
		}
	}
	if readingCount > 0 {
		// 阅读文章不按 domain 过滤
		set.Reading, err = s.assemblePassages(ctx, model.SectionVARC, nil, d,
			DivideReading(readingCount, limits.ReadingChunk))
		if err != nil {
			return err
		}
	}
	return nil
}

// sampleCorpus 从题库随机抽取最多 k 道题，不足 k 道时返回全部匹配结果
func (s *QuestionService) sampleCorpus(ctx context.Context, filter model.QuestionFilter, k int) ([]QuestionView, error) {
	if k <= 0 {
		return []QuestionView{}, nil
	}
	qs, err := s.Pool.SampleQuestions(ctx, filter, k)
	if err != nil {
		return nil, err
	}
	views := make([]QuestionView, 0, len(qs))
	for i := range qs {
		views = append(views, newQuestionView(&qs[i]))
	}
	return views, nil
}

// assemblePassages 先抽文章/案例，再为每篇按难度抽够 sizes[i] 道小题。
// 小题 ID 可能重复（题量不足时有放回抽样），查询时只取去重后的 ID，再按原顺序还原。
func (s *QuestionService) assemblePassages(ctx context.Context, section model.Section, domains []string, d model.Difficulty, sizes []int) ([]GalleyView, error) {
	if len(sizes) == 0 {
		return []GalleyView{}, nil
	}
	galleys, err := s.Pool.SampleGalleys(ctx, section, domains, len(sizes))
	if err != nil {
		return nil, err
	}

	views := make([]GalleyView, 0, len(galleys))
	for i := range galleys {
		g := &galleys[i]
		quota := sizes[i]
		partition := g.QuestionIDs.Data()
		ids := FillQuota(partition.Bucket(d), quota, s.intn)
		if len(ids) == 0 {
			logger.Log.Warn("galley has no questions for difficulty",
				zap.Uint("galleyId", g.ID), zap.String("difficulty", string(d)))
			continue
		}

		found, err := s.Pool.FindQuestionsByIDs(ctx, uniqueIDs(ids))
		if err != nil {
			return nil, err
		}
		resolved := expandByIDs(ids, found, func(q model.Question) uint { return q.ID })
		if len(resolved) != quota {
			// 分区里有失效的 ID，整篇丢弃，保证返回的每篇题量都等于配额
			logger.Log.Warn("galley partition references missing questions",
				zap.Uint("galleyId", g.ID),
				zap.Int("quota", quota),
				zap.Int("resolved", len(resolved)),
			)
			continue
		}

		qv := make([]QuestionView, 0, len(resolved))
		for j := range resolved {
			qv = append(qv, newQuestionView(&resolved[j]))
		}
		views = append(views, newGalleyView(g, qv))
	}
	return views, nil
}

type ResolveRequest struct {
	VARC []string `json:"VARC"`
	DILR []string `json:"DILR"`
	QA   []string `json:"QA"`
}

func (r *ResolveRequest) IDs(sec model.Section) []string {
	switch sec {
	case model.SectionVARC:
		return r.VARC
	case model.SectionDILR:
		return r.DILR
	case model.SectionQA:
		return r.QA
	}
	return nil
}

// ResolveQuestions 按板块批量查询题目详情（用于查看测试解析），无效 ID 直接跳过
func (s *QuestionService) ResolveQuestions(ctx context.Context, req ResolveRequest) (map[model.Section][]QuestionView, error) {
	result := make(map[model.Section][]QuestionView, len(model.Sections))
	for _, sec := range model.Sections {
		result[sec] = []QuestionView{}
		ids := uniqueIDs(util.ParseIDs(req.IDs(sec)))
		if len(ids) == 0 {
			continue
		}
		qs, err := s.Pool.FindQuestionsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range qs {
			if qs[i].Section != sec {
				continue
			}
			result[sec] = append(result[sec], newQuestionView(&qs[i]))
		}
	}
	return result, nil
}

type GalleyRequest struct {
	Section  string `json:"section" binding:"required"`
	Domain   string `json:"domain"`
	Title    string `json:"title"`
	Body     string `json:"body" binding:"required"`
	ImageURL string `json:"imageUrl"`
}

func (s *QuestionService) CreateGalley(ctx context.Context, req GalleyRequest) (*model.Galley, error) {
	section, ok := model.ParseSection(req.Section)
	if !ok || section == model.SectionQA {
		return nil, fmt.Errorf("%w: %q", util.ErrInvalidSection, req.Section)
	}
	g := &model.Galley{
		Section:  section,
		Domain:   req.Domain,
		Title:    req.Title,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	}
	g.QuestionIDs = datatypes.NewJSONType(model.DifficultyPartition{E: []uint{}, M: []uint{}, H: []uint{}})
	if err := s.Pool.CreateGalley(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

type QuestionRequest struct {
	Section    string          `json:"section" binding:"required"`
	Difficulty string          `json:"difficulty" binding:"required"`
	Domain     string          `json:"domain"`
	Topic      string          `json:"topic"`
	Text       string          `json:"text" binding:"required"`
	ImageURL   string          `json:"imageUrl"`
	Options    json.RawMessage `json:"options"`
	Answer     string          `json:"answer"`
	GalleyID   string          `json:"galleyId"`
}

// CreateQuestion 录入题目；挂在文章/案例下时同时追加到该文章对应难度的分区
func (s *QuestionService) CreateQuestion(ctx context.Context, req QuestionRequest) (*model.Question, error) {
	section, ok := model.ParseSection(req.Section)
	if !ok {
		return nil, fmt.Errorf("%w: %q", util.ErrInvalidSection, req.Section)
	}
	d, ok := model.ParseDifficultyLabel(req.Difficulty)
	if !ok {
		// 录入时也接受 E/M/H
		switch model.Difficulty(req.Difficulty) {
		case model.Easy, model.Medium, model.Hard:
			d = model.Difficulty(req.Difficulty)
		default:
			return nil, fmt.Errorf("%w: got %q", util.ErrInvalidDifficulty, req.Difficulty)
		}
	}

	q := &model.Question{
		Section:    section,
		Difficulty: d,
		Domain:     req.Domain,
		Topic:      req.Topic,
		Text:       req.Text,
		ImageURL:   req.ImageURL,
		Options:    datatypes.JSON(req.Options),
		Answer:     req.Answer,
	}
	if req.GalleyID != "" {
		galleyID := util.MustParseUint(req.GalleyID)
		g, err := s.Pool.FindGalleyByID(ctx, galleyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrGalleyNotFound
			}
			return nil, err
		}
		if g.Section != section {
			return nil, fmt.Errorf("%w: galley belongs to %s", util.ErrInvalidSection, g.Section)
		}
		q.GalleyID = &g.ID
	}

	if err := s.Pool.CreateQuestion(ctx, q); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGalleyNotFound
		}
		return nil, err
	}
	return q, nil
}

// RebuildGalleyPartition 以实际归属该文章的题目重建难度分区
func (s *QuestionService) RebuildGalleyPartition(ctx context.Context, galleyID uint) (*model.DifficultyPartition, error) {
	if _, err := s.Pool.FindGalleyByID(ctx, galleyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGalleyNotFound
		}
		return nil, err
	}
	qs, err := s.Pool.ListGalleyQuestions(ctx, galleyID)
	if err != nil {
		return nil, err
	}

	p := model.DifficultyPartition{E: []uint{}, M: []uint{}, H: []uint{}}
	for _, q := range qs {
		p.Append(q.Difficulty, q.ID)
	}
	if err := s.Pool.UpdateGalleyPartition(ctx, galleyID, p); err != nil {
		return nil, err
	}
	logger.Log.Info("galley partition rebuilt",
		zap.Uint("galleyId", galleyID),
		zap.Int("easy", len(p.E)), zap.Int("medium", len(p.M)), zap.Int("hard", len(p.H)),
	)
	return &p, nil
}
