package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"studentquiz/models"
	"studentquiz/schemas"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Scoper hands out database scopes; database.Gateway implements it.
type Scoper interface {
	Scope(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type TokenConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
}

type TokenClaims struct {
	UserID uint
	ID     string
	Expiry time.Time
}

type AuthService struct {
	db       Scoper
	secret   []byte
	method   jwt.SigningMethod
	ttl      time.Duration
	denylist Denylist
	now      func() time.Time
}

func NewAuthService(db Scoper, cfg TokenConfig, denylist Denylist) (*AuthService, error) {
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	return &AuthService{
		db:       db,
		secret:   []byte(cfg.Secret),
		method:   method,
		ttl:      cfg.TTL,
		denylist: denylist,
		now:      time.Now,
	}, nil
}

// HashPassword makes AuthService the models.PasswordHasher.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a user. A taken username or email comes back as an
// integrity conflict from the database.
func (s *AuthService) Register(ctx context.Context, in schemas.UserCreate) (*models.User, error) {
	var user *models.User
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		var err error
		user, err = models.CreateUser(ctx, tx, in, s)
		return err
	})
	return user, err
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	var user *models.User
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		var err error
		user, err = models.GetUserByUsername(ctx, tx, username)
		return err
	})
	if err != nil {
		return "", err
	}
	if user == nil || !s.CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.GenerateToken(user.ID)
}

func (s *AuthService) GenerateToken(userID uint) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.ttl
}

// ValidateToken checks signature, algorithm and expiry, then makes sure the
// token has not been revoked by a logout.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		UserID: uint(userID),
		ID:     claims.ID,
		Expiry: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *TokenClaims) error {
	ttl := claims.Expiry.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, ttl)
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user *models.User
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		var err error
		user, err = models.Get[models.User](ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateUser applies a partial update. A new password is hashed before it
// is written.
func (s *AuthService) UpdateUser(ctx context.Context, userID uint, in schemas.UserUpdate) (*models.User, error) {
	patch := models.Patch(in.Changes())
	if in.Password != nil {
		hash, err := s.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		patch["password_hash"] = hash
	}

	var user *models.User
	err := s.db.Scope(ctx, func(tx *gorm.DB) error {
		current, err := models.Get[models.User](ctx, tx, userID)
		if err != nil || current == nil {
			return err
		}
		user, err = models.Update(ctx, tx, current, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
