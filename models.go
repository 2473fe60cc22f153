package padlock

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	Token         string     `bun:"token,unique,nullzero" json:"-"`
	Activated     bool       `bun:"activated,notnull" json:"activated"`
	Banned        bool       `bun:"banned,notnull" json:"banned"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

func (u *User) GetID() uuid.UUID {
	return u.ID
}

func (u *User) GetEmail() string {
	return u.Email
}

func (u *User) GetToken() string {
	return u.Token
}

// SetPassword stores the hash of the given cleartext password.
func (u *User) SetPassword(verifier PasswordVerifier, password string) error {
	hash, err := verifier.Hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// ValidatePassword reports whether password matches the stored hash.
func (u *User) ValidatePassword(verifier PasswordVerifier, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return verifier.Verify(password, u.PasswordHash)
}

// GenerateToken replaces the bearer token. Only persisted users, i.e.
// users with an ID, can hold a token.
func (u *User) GenerateToken(generator TokenGenerator) error {
	if u.ID == uuid.Nil {
		return ErrUserNotPersisted
	}

	token, err := generator.NewToken(u.ID.String())
	if err != nil {
		return err
	}

	u.Token = token
	return nil
}

func (u *User) Activate() {
	u.Activated = true
}

func (u *User) Deactivate() {
	u.Activated = false
}

func (u *User) IsActivated() bool {
	return u.Activated
}

func (u *User) Ban() {
	u.Banned = true
}

func (u *User) Unban() {
	u.Banned = false
}

func (u *User) IsBanned() bool {
	return u.Banned
}
