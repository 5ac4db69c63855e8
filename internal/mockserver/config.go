package mockserver

import "time"

const (
	defaultAccessTokenTTL  = 7 * 24 * time.Hour
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
	defaultCookieName      = "jwt"
	defaultIssuer          = "playground-mock"
)

// UserConfig describes a seeded account.
type UserConfig struct {
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	RealName string   `yaml:"realName"`
	Roles    []string `yaml:"roles"`
	Codes    []string `yaml:"codes"`
}

// AuthConfig holds token and account settings.
type AuthConfig struct {
	JWTSecret         string        `yaml:"jwtSecret"`
	JWTIssuer         string        `yaml:"jwtIssuer"`
	AccessTokenTTL    time.Duration `yaml:"accessTokenTTL"`
	RefreshTokenTTL   time.Duration `yaml:"refreshTokenTTL"`
	RefreshCookieName string        `yaml:"refreshCookieName"`
	SecureCookie      bool          `yaml:"secureCookie"`
	Users             []UserConfig  `yaml:"users"`
}

// ApplyDefaults fills unset fields. Users default to the demo accounts.
func (c *AuthConfig) ApplyDefaults() {
	if c.JWTIssuer == "" {
		c.JWTIssuer = defaultIssuer
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = defaultAccessTokenTTL
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if c.RefreshCookieName == "" {
		c.RefreshCookieName = defaultCookieName
	}
	if len(c.Users) == 0 {
		c.Users = DefaultUsers()
	}
}

// DefaultUsers returns the demo accounts.
func DefaultUsers() []UserConfig {
	return []UserConfig{
		{
			Username: "vben",
			Password: "123456",
			RealName: "Vben",
			Roles:    []string{"super"},
			Codes:    []string{"AC_100100", "AC_100110", "AC_100120", "AC_100010"},
		},
		{
			Username: "admin",
			Password: "123456",
			RealName: "Admin",
			Roles:    []string{"admin"},
			Codes:    []string{"AC_100010", "AC_100020", "AC_100030"},
		},
		{
			Username: "jack",
			Password: "123456",
			RealName: "Jack",
			Roles:    []string{"user"},
			Codes:    []string{"AC_1000001", "AC_1000002"},
		},
	}
}
