package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t   *testing.T
	app *App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		JWT:       config.JWTConfig{Secret: testSecret},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		Assembly:  config.AssemblyConfig{MaxQuestions: 50, VerbalPassageCap: 16, ReadingChunk: 4},
		Analytics: config.AnalyticsConfig{TrendWindow: 10, LockTTL: time.Second, LockWait: time.Second},
	}
	return &testServer{t: t, app: newApp(cfg, db, nil), db: db}
}

func (s *testServer) user(role model.UserRole, email string) string {
	s.t.Helper()
	u := &model.User{Name: email, Email: email, Role: role}
	require.NoError(s.t, s.db.Create(u).Error)
	token, err := util.GenerateJWT(u.ID, role, testSecret, time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) (int, apiResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w.Code, resp
}

func fullSubmission(correct, total int) model.TestSubmission {
	return model.TestSubmission{
		OverallTimeSpent: float64(total) * 90,
		TotalQuestions:   total,
		CorrectAnswers:   correct,
		Sections: model.SubmissionSections{
			VARC: &model.SectionResult{},
			DILR: &model.SectionResult{},
			QA: &model.SectionResult{
				Questions: total, Correct: correct, Incorrect: total - correct,
				Accuracy:  float64(correct) * 100 / float64(total),
				TimeSpent: float64(total) * 90,
				Topics: map[string]model.TopicResult{
					"Number System": {MediumCorrect: correct, MediumCorrectTotalTime: float64(correct) * 80},
				},
			},
		},
	}
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Message)

	code, resp = s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Resource not found", resp.Message)

	code, _ = s.do(http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	student := s.user(model.Student, "s@example.com")
	code, _ = s.do(http.MethodPost, "/api/admin/galleys", student, map[string]string{"section": "DILR", "body": "x"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAssembleValidation(t *testing.T) {
	s := newTestServer(t)
	student := s.user(model.Student, "s@example.com")

	code, _ := s.do(http.MethodPost, "/api/questions/qa", student, map[string]interface{}{"numQuestions": 0, "difficulty": "easy"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPost, "/api/questions/qa", student, map[string]interface{}{"numQuestions": 5, "difficulty": "impossible"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, resp := s.do(http.MethodPost, "/api/questions/qa", student, map[string]interface{}{"numQuestions": 5, "difficulty": "easy"})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"empty":true`)
}

func TestAuthoringAndAssembly(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(model.Admin, "admin@example.com")
	student := s.user(model.Student, "s@example.com")

	code, resp := s.do(http.MethodPost, "/api/admin/galleys", admin, map[string]string{
		"section": "DILR", "domain": "Data Interpretation", "body": "a table",
	})
	require.Equal(t, http.StatusCreated, code)
	var galley struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &galley))

	for i := 0; i < 5; i++ {
		code, _ = s.do(http.MethodPost, "/api/admin/questions", admin, map[string]interface{}{
			"section": "DILR", "difficulty": "medium", "domain": "Data Interpretation",
			"text": "sub question", "options": []string{"1", "2", "3", "4"}, "answer": "2",
			"galleyId": galley.ID,
		})
		require.Equal(t, http.StatusCreated, code)
	}

	code, resp = s.do(http.MethodPost, "/api/questions/dilr", student, map[string]interface{}{
		"numQuestions": 5, "difficulty": "Medium", "topics": []string{"Data Interpretation"},
	})
	require.Equal(t, http.StatusOK, code)
	var out struct {
		Result struct {
			Galleys []struct {
				ID        string `json:"id"`
				Questions []struct {
					ID     string `json:"id"`
					Answer string `json:"answer"`
				} `json:"questions"`
			} `json:"galleys"`
		} `json:"result"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Equal(t, 5, out.Count)
	require.Len(t, out.Result.Galleys, 1)
	assert.Equal(t, galley.ID, out.Result.Galleys[0].ID)
	for _, q := range out.Result.Galleys[0].Questions {
		assert.Empty(t, q.Answer)
	}

	code, _ = s.do(http.MethodPost, "/api/admin/galleys/"+galley.ID+"/rebuild", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/admin/galleys/987/rebuild", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = s.do(http.MethodPost, "/api/questions/resolve", student, map[string]interface{}{
		"DILR": []string{out.Result.Galleys[0].Questions[0].ID},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), out.Result.Galleys[0].Questions[0].ID)
}

func TestAssembleQARequiresTopics(t *testing.T) {
	s := newTestServer(t)
	admin := s.user(model.Admin, "admin@example.com")
	student := s.user(model.Student, "s@example.com")

	for i := 0; i < 3; i++ {
		code, _ := s.do(http.MethodPost, "/api/admin/questions", admin, map[string]interface{}{
			"section": "QA", "difficulty": "medium", "domain": "Number System",
			"text": "standalone", "answer": "7",
		})
		require.Equal(t, http.StatusCreated, code)
	}

	var out struct {
		Count int  `json:"count"`
		Empty bool `json:"empty"`
	}
	code, resp := s.do(http.MethodPost, "/api/questions/qa", student, map[string]interface{}{
		"numQuestions": 5, "difficulty": "medium",
	})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.True(t, out.Empty)
	assert.Equal(t, 0, out.Count)

	code, resp = s.do(http.MethodPost, "/api/questions/qa", student, map[string]interface{}{
		"numQuestions": 5, "difficulty": "medium", "topics": []string{"Number System"},
	})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.False(t, out.Empty)
	assert.Equal(t, 3, out.Count)
}

func TestSubmissionFlow(t *testing.T) {
	s := newTestServer(t)
	student := s.user(model.Student, "s@example.com")

	code, _ := s.do(http.MethodGet, "/api/dashboard", student, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, "/api/dashboard/init", student, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/tests/result", student, fullSubmission(8, 10))
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/tests/result", student, fullSubmission(6, 10))
	require.Equal(t, http.StatusOK, code)

	bad := fullSubmission(6, 10)
	bad.Sections.VARC = nil
	code, _ = s.do(http.MethodPost, "/api/tests/result", student, bad)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := s.do(http.MethodGet, "/api/dashboard", student, nil)
	require.Equal(t, http.StatusOK, code)
	var a model.DashboardAnalytics
	require.NoError(t, json.Unmarshal(resp.Data, &a))
	assert.Equal(t, 2, a.TestsTaken)
	assert.InDelta(t, 70.0, a.Accuracy, 1e-9)
	assert.Equal(t, 14, a.TotalQuestionsSolved[model.SectionQA].Correct)
	assert.Equal(t, 14, a.TotalQuestionsSolved[model.SectionQA].Breakdown["Number System"].M.Correct.Count)

	code, resp = s.do(http.MethodGet, "/api/tests", student, nil)
	require.Equal(t, http.StatusOK, code)
	var list []model.TestOverview
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 2)

	code, _ = s.do(http.MethodGet, "/api/tests/"+list[0].ID, student, nil)
	assert.Equal(t, http.StatusOK, code)

	other := s.user(model.Student, "other@example.com")
	code, _ = s.do(http.MethodGet, "/api/tests/"+list[0].ID, other, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestConfigCallbackUpdatesLimits(t *testing.T) {
	s := newTestServer(t)
	student := s.user(model.Student, "s@example.com")

	newCfg := *s.app.Config
	newCfg.Assembly.MaxQuestions = 3
	for _, cb := range s.app.configCallbacks {
		cb(&newCfg)
	}

	code, _ := s.do(http.MethodPost, "/api/questions/qa", student, map[string]interface{}{"numQuestions": 4, "difficulty": "easy"})
	assert.Equal(t, http.StatusBadRequest, code)
}
