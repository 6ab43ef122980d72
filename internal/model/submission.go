package model

import (
	"gorm.io/datatypes"
)

// TopicResult 单个题型在一次测试中的难度 × 结果统计
type TopicResult struct {
	EasyCorrect            int     `json:"easyCorrect"`
	EasyCorrectTotalTime   float64 `json:"easyCorrectTotalTime"`
	EasyIncorrect          int     `json:"easyIncorrect"`
	EasyIncorrectTotalTime float64 `json:"easyIncorrectTotalTime"`
	EasyNA                 int     `json:"easyNA"`
	EasyNATotalTime        float64 `json:"easyNATotalTime"`

	MediumCorrect            int     `json:"mediumCorrect"`
	MediumCorrectTotalTime   float64 `json:"mediumCorrectTotalTime"`
	MediumIncorrect          int     `json:"mediumIncorrect"`
	MediumIncorrectTotalTime float64 `json:"mediumIncorrectTotalTime"`
	MediumNA                 int     `json:"mediumNA"`
	MediumNATotalTime        float64 `json:"mediumNATotalTime"`

	HardCorrect            int     `json:"hardCorrect"`
	HardCorrectTotalTime   float64 `json:"hardCorrectTotalTime"`
	HardIncorrect          int     `json:"hardIncorrect"`
	HardIncorrectTotalTime float64 `json:"hardIncorrectTotalTime"`
	HardNA                 int     `json:"hardNA"`
	HardNATotalTime        float64 `json:"hardNATotalTime"`
}

func (t *TopicResult) Cell(d Difficulty, o Outcome) Cell {
	switch d {
	case Easy:
		switch o {
		case Correct:
			return Cell{t.EasyCorrect, t.EasyCorrectTotalTime}
		case Incorrect:
			return Cell{t.EasyIncorrect, t.EasyIncorrectTotalTime}
		default:
			return Cell{t.EasyNA, t.EasyNATotalTime}
		}
	case Hard:
		switch o {
		case Correct:
			return Cell{t.HardCorrect, t.HardCorrectTotalTime}
		case Incorrect:
			return Cell{t.HardIncorrect, t.HardIncorrectTotalTime}
		default:
			return Cell{t.HardNA, t.HardNATotalTime}
		}
	default:
		switch o {
		case Correct:
			return Cell{t.MediumCorrect, t.MediumCorrectTotalTime}
		case Incorrect:
			return Cell{t.MediumIncorrect, t.MediumIncorrectTotalTime}
		default:
			return Cell{t.MediumNA, t.MediumNATotalTime}
		}
	}
}

// SectionResult 一次测试中单个板块的成绩。
// TimeSpent 是板块总用时，TimeSpentCorrect 等三项是该结果下的平均每题用时。
type SectionResult struct {
	Questions            int                    `json:"questions"`
	Accuracy             float64                `json:"accuracy"`
	Correct              int                    `json:"correct"`
	Incorrect            int                    `json:"incorrect"`
	Unattempted          int                    `json:"unattempted"`
	TimeSpent            float64                `json:"timeSpent"`
	TimeSpentCorrect     float64                `json:"timeSpentCorrect"`
	TimeSpentIncorrect   float64                `json:"timeSpentIncorrect"`
	TimeSpentUnattempted float64                `json:"timeSpentUnattempted"`
	Topics               map[string]TopicResult `json:"topics"`
}

type SubmissionSections struct {
	VARC *SectionResult `json:"VARC"`
	DILR *SectionResult `json:"DILR"`
	QA   *SectionResult `json:"QA"`
}

func (s *SubmissionSections) Get(sec Section) *SectionResult {
	switch sec {
	case SectionVARC:
		return s.VARC
	case SectionDILR:
		return s.DILR
	case SectionQA:
		return s.QA
	}
	return nil
}

// TestSubmission 前端提交的整场测试结果
type TestSubmission struct {
	OverallTimeSpent float64            `json:"overallTimeSpent"`
	TotalQuestions   int                `json:"totalQuestions"`
	CorrectAnswers   int                `json:"correctAnswers"`
	Sections         SubmissionSections `json:"sections"`
}

// TestRecord 原始测试记录
// swagger:model TestRecord
type TestRecord struct {
	UUIDBase
	UserID           uint                               `gorm:"index;not null" json:"userId"`
	TotalQuestions   int                                `json:"totalQuestions"`
	CorrectAnswers   int                                `json:"correctAnswers"`
	OverallTimeSpent float64                            `json:"overallTimeSpent"`
	Payload          datatypes.JSONType[TestSubmission] `gorm:"type:json" json:"payload,omitempty"`
}

func (TestRecord) TableName() string {
	return "test_records"
}

// TestOverview 列表页不返回完整 payload
type TestOverview struct {
	ID               string  `json:"id"`
	TotalQuestions   int     `json:"totalQuestions"`
	CorrectAnswers   int     `json:"correctAnswers"`
	OverallTimeSpent float64 `json:"overallTimeSpent"`
	CreatedAt        string  `json:"createdAt"`
}
