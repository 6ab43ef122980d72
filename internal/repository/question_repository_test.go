package repository

import (
	"context"
	"testing"

	"exam_prep_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newGalley(t *testing.T, repo *QuestionRepository, section model.Section, domain string) *model.Galley {
	t.Helper()
	g := &model.Galley{
		Section:     section,
		Domain:      domain,
		Body:        "passage",
		QuestionIDs: datatypes.NewJSONType(model.DifficultyPartition{}),
	}
	require.NoError(t, repo.CreateGalley(context.Background(), g))
	return g
}

func TestQuestionRepository_SampleQuestions_Filters(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	g := newGalley(t, repo, model.SectionVARC, model.DomainReading)

	seed := []*model.Question{
		{Section: model.SectionQA, Difficulty: model.Easy, Domain: "Algebra - Part 1", Text: "q1"},
		{Section: model.SectionQA, Difficulty: model.Easy, Domain: "Number System", Text: "q2"},
		{Section: model.SectionQA, Difficulty: model.Hard, Domain: "Algebra - Part 1", Text: "q3"},
		{Section: model.SectionVARC, Difficulty: model.Easy, Domain: model.DomainVerbalAbility, Text: "q4"},
		{Section: model.SectionVARC, Difficulty: model.Easy, Domain: model.DomainReading, Text: "q5", GalleyID: &g.ID},
	}
	for _, q := range seed {
		require.NoError(t, repo.CreateQuestion(ctx, q))
	}

	qs, err := repo.SampleQuestions(ctx, model.QuestionFilter{Section: model.SectionQA, Difficulty: model.Easy}, 10)
	require.NoError(t, err)
	assert.Len(t, qs, 2)

	qs, err = repo.SampleQuestions(ctx, model.QuestionFilter{
		Section: model.SectionQA, Difficulty: model.Easy, Domains: []string{"Algebra - Part 1"},
	}, 10)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "q1", qs[0].Text)

	qs, err = repo.SampleQuestions(ctx, model.QuestionFilter{Section: model.SectionQA, Difficulty: model.Easy}, 1)
	require.NoError(t, err)
	assert.Len(t, qs, 1)

	qs, err = repo.SampleQuestions(ctx, model.QuestionFilter{
		Section: model.SectionVARC, Difficulty: model.Easy, StandaloneOnly: true,
	}, 10)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "q4", qs[0].Text)
}

func TestQuestionRepository_CreateQuestion_AppendsToPartition(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	g := newGalley(t, repo, model.SectionDILR, "Data Interpretation")

	var ids []uint
	for _, d := range []model.Difficulty{model.Easy, model.Hard, model.Easy} {
		q := &model.Question{Section: model.SectionDILR, Difficulty: d, Text: "sub", GalleyID: &g.ID}
		require.NoError(t, repo.CreateQuestion(ctx, q))
		ids = append(ids, q.ID)
	}

	got, err := repo.FindGalleyByID(ctx, g.ID)
	require.NoError(t, err)
	p := got.QuestionIDs.Data()
	assert.Equal(t, []uint{ids[0], ids[2]}, p.E)
	assert.Empty(t, p.M)
	assert.Equal(t, []uint{ids[1]}, p.H)

	listed, err := repo.ListGalleyQuestions(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestQuestionRepository_CreateQuestion_MissingGalleyRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuestionRepository(db)
	missing := uint(999)

	err := repo.CreateQuestion(context.Background(), &model.Question{
		Section: model.SectionDILR, Difficulty: model.Medium, Text: "orphan", GalleyID: &missing,
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var n int64
	require.NoError(t, db.Model(&model.Question{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestQuestionRepository_SampleGalleys(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	newGalley(t, repo, model.SectionDILR, "Data Interpretation")
	newGalley(t, repo, model.SectionDILR, "Logical Reasoning-1")
	newGalley(t, repo, model.SectionVARC, model.DomainReading)

	gs, err := repo.SampleGalleys(ctx, model.SectionDILR, nil, 5)
	require.NoError(t, err)
	assert.Len(t, gs, 2)

	gs, err = repo.SampleGalleys(ctx, model.SectionDILR, []string{"Logical Reasoning-1"}, 5)
	require.NoError(t, err)
	require.Len(t, gs, 1)
	assert.Equal(t, "Logical Reasoning-1", gs[0].Domain)

	gs, err = repo.SampleGalleys(ctx, model.SectionDILR, nil, 1)
	require.NoError(t, err)
	assert.Len(t, gs, 1)
}

func TestQuestionRepository_FindQuestionsByIDs(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()

	qs, err := repo.FindQuestionsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, qs)

	q := &model.Question{Section: model.SectionQA, Difficulty: model.Medium, Text: "x"}
	require.NoError(t, repo.CreateQuestion(ctx, q))
	qs, err = repo.FindQuestionsByIDs(ctx, []uint{q.ID, 12345})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, q.ID, qs[0].ID)
}

func TestQuestionRepository_UpdateGalleyPartition(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	g := newGalley(t, repo, model.SectionVARC, model.DomainReading)

	p := model.DifficultyPartition{E: []uint{7}, M: []uint{8, 9}, H: []uint{}}
	require.NoError(t, repo.UpdateGalleyPartition(ctx, g.ID, p))

	got, err := repo.FindGalleyByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got.QuestionIDs.Data())

	assert.ErrorIs(t, repo.UpdateGalleyPartition(ctx, 4040, p), gorm.ErrRecordNotFound)
}

func TestQuestionRepository_ListGalleyIDs(t *testing.T) {
	repo := NewQuestionRepository(newTestDB(t))
	ctx := context.Background()
	a := newGalley(t, repo, model.SectionDILR, "Data Interpretation")
	b := newGalley(t, repo, model.SectionVARC, model.DomainReading)

	ids, err := repo.ListGalleyIDs(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID}, ids)

	ids, err = repo.ListGalleyIDs(ctx, model.SectionVARC)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids)
}
