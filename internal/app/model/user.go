package model

import (
	"time"

	"github.com/ikkim/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint     `gorm:"primarykey" json:"id"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Name         string   `gorm:"not null" json:"name"`
	Role         UserRole `gorm:"type:varchar(20);default:'user'" json:"role"`

	// Set together while a reset is pending, both NULL otherwise
	ResetPasswordToken   *string    `gorm:"size:64;index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Stores []Store `gorm:"foreignKey:AuthorID" json:"stores,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// SetPassword hashes plain and stores the digest on the user
func (u *User) SetPassword(plain string) error {
	hash, err := util.HashPassword(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return util.VerifyPassword(u.PasswordHash, plain)
}
