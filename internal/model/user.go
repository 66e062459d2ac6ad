package model

import "strings"

// UserStatus 后台账号状态
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User 某个公司的后台账号，只能操作本公司的布局、域名和站点设置
type User struct {
	BaseModel
	CompanyID    int        `gorm:"not null;index" json:"companyId"`
	Username     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         string     `gorm:"type:varchar(32);default:'admin'" json:"role"`
	Status       UserStatus `gorm:"type:varchar(16);default:'active'" json:"status"`
}

func (User) TableName() string {
	return "users"
}

// Active 账号可登录
func (u *User) Active() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// NormalizeUsername 用户名大小写不敏感
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
