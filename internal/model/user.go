package model

import "time"

// ProviderCredentials 本地用户名密码登录
const ProviderCredentials = "credentials"

// User 账号身份。Username 仅在创建流程内短暂为空
type User struct {
	ID           string  `gorm:"primaryKey;type:varchar(36)"`
	Username     *string `gorm:"type:varchar(32);uniqueIndex:ux_users_username"`
	Email        *string `gorm:"type:varchar(255);uniqueIndex:ux_users_email"`
	Name         string  `gorm:"type:varchar(255)"`
	Image        string  `gorm:"type:text"`
	Provider     string  `gorm:"type:varchar(32);not null;default:credentials"`
	PasswordHash *string `gorm:"column:password;type:varchar(255)" json:"-"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "users" }

func (u *User) UsernameOrEmpty() string {
	if u == nil || u.Username == nil {
		return ""
	}
	return *u.Username
}

func (u *User) EmailOrEmpty() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// Identity 转成会话载荷
func (u *User) Identity() AuthenticatedIdentity {
	return AuthenticatedIdentity{
		ID:       u.ID,
		Username: u.UsernameOrEmpty(),
		Name:     u.Name,
		Email:    u.EmailOrEmpty(),
		Image:    u.Image,
	}
}
