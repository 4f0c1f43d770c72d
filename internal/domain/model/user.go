package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// 認証プロバイダのユーザーに紐づくプロフィール。
// 権限はここのroleで決まる（メールの許可リストではない）。
type Profile struct {
	UserID    string    `gorm:"type:uuid;primaryKey" json:"userId"`
	Email     string    `gorm:"type:varchar(320);not null;index" json:"email"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return r, true
	}
	return "", false
}
