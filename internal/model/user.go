package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// User 账号本身由外部认证服务维护，这里只保留测试和统计需要的字段
// swagger:model User
type User struct {
	BaseModel
	Name     string    `gorm:"size:100;not null" json:"name"`
	Email    string    `gorm:"size:100;unique;not null" json:"email"`
	Role     UserRole  `gorm:"size:20;default:'student'" json:"role"`
	Disabled bool      `gorm:"default:false" json:"disabled"`
	LastSeen time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
