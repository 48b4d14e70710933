package schemas

import "time"

type UserCreate struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=64"`
	Password string `json:"password" binding:"required"`
}

// UserUpdate is a partial update: only the non-nil fields are applied.
// Password is never a column; callers hash it into password_hash first.
type UserUpdate struct {
	Username *string `json:"username" binding:"omitempty,min=1,max=64"`
	Email    *string `json:"email" binding:"omitempty,email,max=64"`
	Password *string `json:"password" binding:"omitempty,min=1"`
}

func (u UserUpdate) Changes() map[string]any {
	changes := map[string]any{}
	if u.Username != nil {
		changes["username"] = *u.Username
	}
	if u.Email != nil {
		changes["email"] = *u.Email
	}
	return changes
}

type UserLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserReturn struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenReturn struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
