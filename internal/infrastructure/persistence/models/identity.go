package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/odyssey/backend/internal/domain/identity"
)

// UserModel is the persistence model for identity.User
type UserModel struct {
	BaseModel
	Email           string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	Username        string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_users_username"`
	PasswordHash    string     `gorm:"type:varchar(255);not null"`
	FirstName       string     `gorm:"type:varchar(50)"`
	LastName        string     `gorm:"type:varchar(50)"`
	IsEmailVerified bool       `gorm:"not null;default:false"`
	LastLoginAt     *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:      m.BaseModel.ToDomain(),
		Email:           m.Email,
		Username:        m.Username,
		PasswordHash:    m.PasswordHash,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		IsEmailVerified: m.IsEmailVerified,
		LastLoginAt:     m.LastLoginAt,
	}
}

// UserModelFromDomain converts a domain User to its model
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:           u.Email,
		Username:        u.Username,
		PasswordHash:    u.PasswordHash,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		IsEmailVerified: u.IsEmailVerified,
		LastLoginAt:     u.LastLoginAt,
	}
	m.BaseModel.FromDomain(u.BaseEntity)
	return m
}

// RefreshTokenModel is the persistence model for identity.RefreshToken
type RefreshTokenModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_refresh_tokens_user_id"`
	TokenHash     string     `gorm:"type:char(64);not null;uniqueIndex:idx_refresh_tokens_token_hash"`
	ExpiresAt     time.Time  `gorm:"not null"`
	CreatedAt     time.Time  `gorm:"not null"`
	RevokedAt     *time.Time
	RevokedReason string     `gorm:"type:varchar(100)"`
	User          *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (RefreshTokenModel) TableName() string {
	return "refresh_tokens"
}

// ToDomain converts the model to a domain RefreshToken
func (m *RefreshTokenModel) ToDomain() *identity.RefreshToken {
	return &identity.RefreshToken{
		ID:            m.ID,
		UserID:        m.UserID,
		TokenHash:     m.TokenHash,
		ExpiresAt:     m.ExpiresAt,
		CreatedAt:     m.CreatedAt,
		RevokedAt:     m.RevokedAt,
		RevokedReason: m.RevokedReason,
	}
}

// RefreshTokenModelFromDomain converts a domain RefreshToken to its model
func RefreshTokenModelFromDomain(t *identity.RefreshToken) *RefreshTokenModel {
	return &RefreshTokenModel{
		ID:            t.ID,
		UserID:        t.UserID,
		TokenHash:     t.TokenHash,
		ExpiresAt:     t.ExpiresAt,
		CreatedAt:     t.CreatedAt,
		RevokedAt:     t.RevokedAt,
		RevokedReason: t.RevokedReason,
	}
}

// All returns every model managed by AutoMigrate
func All() []any {
	return []any{&UserModel{}, &RefreshTokenModel{}}
}
