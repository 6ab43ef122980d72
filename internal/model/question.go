package model

import (
	"strings"

	"gorm.io/datatypes"
)

// Section 三大板块，闭合枚举，所有按板块分派的逻辑都走 switch
type Section string

const (
	SectionVARC Section = "VARC"
	SectionDILR Section = "DILR"
	SectionQA   Section = "QA"
)

// Sections 固定遍历顺序
var Sections = []Section{SectionVARC, SectionDILR, SectionQA}

func ParseSection(s string) (Section, bool) {
	switch Section(strings.ToUpper(strings.TrimSpace(s))) {
	case SectionVARC:
		return SectionVARC, true
	case SectionDILR:
		return SectionDILR, true
	case SectionQA:
		return SectionQA, true
	}
	return "", false
}

type Difficulty string

const (
	Easy   Difficulty = "E"
	Medium Difficulty = "M"
	Hard   Difficulty = "H"
)

var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficultyLabel 只接受 easy/medium/hard（不区分大小写）
func ParseDifficultyLabel(label string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "easy", "medium", "hard":
		return DifficultyBucket(label), true
	}
	return "", false
}

// DifficultyBucket 取首字母作为难度桶，无法识别时退回 M
func DifficultyBucket(label string) Difficulty {
	label = strings.TrimSpace(label)
	if label == "" {
		return Medium
	}
	switch Difficulty(strings.ToUpper(label[:1])) {
	case Easy:
		return Easy
	case Hard:
		return Hard
	case Medium:
		return Medium
	}
	return Medium
}

// 已知的领域（Domain）标签
const (
	DomainVerbalAbility = "Verbal Ability"
	DomainReading       = "Reading Comprehension"
)

// QuestionFilter 题库筛选条件，零值字段表示不限
type QuestionFilter struct {
	Section        Section
	Difficulty     Difficulty
	Domains        []string
	StandaloneOnly bool // 只要不属于任何文章/案例的独立题
}

// swagger:model Question
type Question struct {
	BaseModel
	Section    Section        `gorm:"size:10;index:idx_question_pool;not null" json:"section"`
	Difficulty Difficulty     `gorm:"size:1;index:idx_question_pool;not null" json:"difficulty"`
	Domain     string         `gorm:"size:100;index:idx_question_pool" json:"domain"`
	Topic      string         `gorm:"size:100" json:"topic"`
	Text       string         `gorm:"type:text;not null" json:"text"`
	ImageURL   string         `gorm:"size:255" json:"imageUrl"`
	Options    datatypes.JSON `gorm:"type:json" json:"options"` // nil 表示填空题
	Answer     string         `gorm:"type:text" json:"-"`
	GalleyID   *uint          `gorm:"index" json:"galleyId"`
}

func (Question) TableName() string {
	return "questions"
}

// TypeAnswer 没有选项即为输入型题目
func (q *Question) TypeAnswer() bool {
	return len(q.Options) == 0 || string(q.Options) == "null"
}

// DifficultyPartition 文章/案例下按难度划分的小题ID
type DifficultyPartition struct {
	E []uint `json:"E"`
	M []uint `json:"M"`
	H []uint `json:"H"`
}

func (p *DifficultyPartition) Bucket(d Difficulty) []uint {
	switch d {
	case Easy:
		return p.E
	case Hard:
		return p.H
	default:
		return p.M
	}
}

func (p *DifficultyPartition) Append(d Difficulty, id uint) {
	switch d {
	case Easy:
		p.E = append(p.E, id)
	case Hard:
		p.H = append(p.H, id)
	default:
		p.M = append(p.M, id)
	}
}

// Galley 共享材料（阅读文章 / DILR 案例）
// swagger:model Galley
type Galley struct {
	BaseModel
	Section     Section                                 `gorm:"size:10;index:idx_galley_pool;not null" json:"section"`
	Domain      string                                  `gorm:"size:100;index:idx_galley_pool" json:"domain"`
	Title       string                                  `gorm:"size:255" json:"title"`
	Body        string                                  `gorm:"type:text;not null" json:"body"`
	ImageURL    string                                  `gorm:"size:255" json:"imageUrl"`
	QuestionIDs datatypes.JSONType[DifficultyPartition] `gorm:"type:json" json:"-"`
}

func (Galley) TableName() string {
	return "galleys"
}
