package model

import (
	"gorm.io/datatypes"
)

// DefaultTrendWindow 成绩趋势折线图保留的测试次数
const DefaultTrendWindow = 10

// KnownTopics 注册时预先建立统计结构的题型
var KnownTopics = map[Section][]string{
	SectionVARC: {
		DomainReading,
		DomainVerbalAbility,
	},
	SectionDILR: {
		"Data Interpretation",
		"Logical Reasoning-1",
		"Logical Reasoning-2",
	},
	SectionQA: {
		"Arithmetic - Part 1",
		"Arithmetic - Part 2",
		"Algebra - Part 1",
		"Algebra - Part 2",
		"Geometry & Mensuration",
		"Number System",
		"Modern Mathematics",
	},
}

type Outcome string

const (
	Correct      Outcome = "C"
	Incorrect    Outcome = "I"
	NotAttempted Outcome = "NA"
)

var Outcomes = []Outcome{Correct, Incorrect, NotAttempted}

// Cell (题数, 总用时秒)
type Cell struct {
	Count     int     `json:"count"`
	TotalTime float64 `json:"totalTime"`
}

func (c *Cell) Add(o Cell) {
	c.Count += o.Count
	c.TotalTime += o.TotalTime
}

type OutcomeBreakdown struct {
	Correct      Cell `json:"C"`
	Incorrect    Cell `json:"I"`
	NotAttempted Cell `json:"NA"`
}

func (b *OutcomeBreakdown) At(o Outcome) *Cell {
	switch o {
	case Correct:
		return &b.Correct
	case Incorrect:
		return &b.Incorrect
	default:
		return &b.NotAttempted
	}
}

type TopicBreakdown struct {
	E OutcomeBreakdown `json:"E"`
	M OutcomeBreakdown `json:"M"`
	H OutcomeBreakdown `json:"H"`
}

func (t *TopicBreakdown) At(d Difficulty) *OutcomeBreakdown {
	switch d {
	case Easy:
		return &t.E
	case Hard:
		return &t.H
	default:
		return &t.M
	}
}

// SectionTotals 单个板块的累计数据
type SectionTotals struct {
	Correct          int                        `json:"correct"`
	Incorrect        int                        `json:"incorrect"`
	Unattempted      int                        `json:"unattempted"`
	AvgTime          float64                    `json:"avgTime"`
	AvgTimeCorrect   float64                    `json:"avgTimeCorrect"`
	AvgTimeIncorrect float64                    `json:"avgTimeIncorrect"`
	AvgTimeNA        float64                    `json:"avgTimeNA"`
	Breakdown        map[string]*TopicBreakdown `json:"sectionBreakdown"`
}

func (t *SectionTotals) Total() int {
	return t.Correct + t.Incorrect + t.Unattempted
}

// DashboardAnalytics 用户首页统计数据
// swagger:model DashboardAnalytics
type DashboardAnalytics struct {
	Accuracy             float64                    `json:"accuracy"`
	AvgTimePerQuestion   string                     `json:"avgTimePerQuestion"`
	AvgTimePerQuestionS  float64                    `json:"avgTimePerQuestionSeconds"`
	QuestionsAttempted   int                        `json:"questionsAttempted"`
	TestsTaken           int                        `json:"testsTaken"`
	TestTime             float64                    `json:"testTime"`
	PerformanceTrend     map[Section][]float64      `json:"performanceTrend"`
	TotalQuestionsSolved map[Section]*SectionTotals `json:"totalQuestionSolved"`
}

// NewDashboardAnalytics 构造全零结构，所有已知题型预先填充
func NewDashboardAnalytics(window int) DashboardAnalytics {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	d := DashboardAnalytics{
		AvgTimePerQuestion:   "0:00",
		PerformanceTrend:     make(map[Section][]float64, len(Sections)),
		TotalQuestionsSolved: make(map[Section]*SectionTotals, len(Sections)),
	}
	for _, sec := range Sections {
		d.PerformanceTrend[sec] = make([]float64, window)
		totals := &SectionTotals{Breakdown: make(map[string]*TopicBreakdown)}
		for _, topic := range KnownTopics[sec] {
			totals.Breakdown[topic] = &TopicBreakdown{}
		}
		d.TotalQuestionsSolved[sec] = totals
	}
	return d
}

// UserDashboard 持久化记录，Version 用于乐观锁
type UserDashboard struct {
	BaseModel
	UserID    uint                                   `gorm:"uniqueIndex;not null" json:"userId"`
	Analytics datatypes.JSONType[DashboardAnalytics] `gorm:"type:json" json:"analytics"`
	Version   int64                                  `gorm:"not null;default:0" json:"version"`
}

func (UserDashboard) TableName() string {
	return "user_dashboards"
}
