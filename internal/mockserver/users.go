package mockserver

import (
	"fmt"

	pkgerrors "playground/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

// User is a seeded account with its password hash.
type User struct {
	Username     string
	RealName     string
	Roles        []string
	Codes        []string
	passwordHash []byte
}

// UserDirectory is a read-only set of accounts, safe for concurrent use.
type UserDirectory struct {
	users map[string]*User
}

func NewUserDirectory(configs []UserConfig) (*UserDirectory, error) {
	dir := &UserDirectory{users: make(map[string]*User, len(configs))}
	for _, cfg := range configs {
		if cfg.Username == "" {
			return nil, fmt.Errorf("user without username")
		}
		if _, exists := dir.users[cfg.Username]; exists {
			return nil, fmt.Errorf("duplicate user %q", cfg.Username)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q failed: %w", cfg.Username, err)
		}
		codes := make([]string, len(cfg.Codes))
		copy(codes, cfg.Codes)
		dir.users[cfg.Username] = &User{
			Username:     cfg.Username,
			RealName:     cfg.RealName,
			Roles:        cfg.Roles,
			Codes:        codes,
			passwordHash: hash,
		}
	}
	return dir, nil
}

// Authenticate checks the password for username.
func (d *UserDirectory) Authenticate(username, password string) (*User, error) {
	user, ok := d.users[username]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.InvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		return nil, pkgerrors.New(pkgerrors.InvalidCredentials)
	}
	return user, nil
}

// Lookup returns the account for username.
func (d *UserDirectory) Lookup(username string) (*User, error) {
	user, ok := d.users[username]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.UserNotFound, "user %s not found", username)
	}
	return user, nil
}
