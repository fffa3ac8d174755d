package models

import (
	"time"

	"github.com/clientms/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate
type UserModel struct {
	AggregateModel
	Username       string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	PasswordHash   string     `gorm:"type:varchar(200);not null"`
	DisplayName    string     `gorm:"type:varchar(200)"`
	Status         string     `gorm:"type:varchar(20);not null"`
	LastLoginAt    *time.Time `gorm:""`
	LastLoginIP    string     `gorm:"type:varchar(45)"`
	FailedAttempts int        `gorm:"not null;default:0"`
	LockedUntil    *time.Time `gorm:""`
}

// TableName specifies the table name
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *UserModel) ToDomain() *identity.User {
	u := &identity.User{
		Username:       m.Username,
		PasswordHash:   m.PasswordHash,
		DisplayName:    m.DisplayName,
		Status:         identity.UserStatus(m.Status),
		LastLoginAt:    m.LastLoginAt,
		LastLoginIP:    m.LastLoginIP,
		FailedAttempts: m.FailedAttempts,
		LockedUntil:    m.LockedUntil,
	}
	m.PopulateAggregateRoot(&u.BaseAggregateRoot)
	return u
}

// FromDomain populates the persistence model from the domain aggregate
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.PasswordHash = u.PasswordHash
	m.DisplayName = u.DisplayName
	m.Status = string(u.Status)
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
}
