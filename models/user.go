package models

import (
	"context"
	"errors"
	"time"

	"studentquiz/schemas"

	"gorm.io/gorm"
)

// PasswordHasher turns a plain password into the value stored in
// password_hash.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`

	// Relationships
	Quizzes []Quiz `json:"quizzes,omitempty" gorm:"foreignKey:CreatedBy"`
}

func (User) TableName() string { return "users" }

func (u User) Identity() uint { return u.ID }

func (u *User) ToReturn() schemas.UserReturn {
	return schemas.UserReturn{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func CreateUser(ctx context.Context, db *gorm.DB, in schemas.UserCreate, hasher PasswordHasher) (*User, error) {
	hash, err := hasher.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	return create(ctx, db, &user)
}

func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*User, error) {
	return findUser(ctx, db, "username = ?", username)
}

func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error) {
	return findUser(ctx, db, "email = ?", email)
}

func findUser(ctx context.Context, db *gorm.DB, query string, arg any) (*User, error) {
	var user User
	err := db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
