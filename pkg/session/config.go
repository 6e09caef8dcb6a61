package session

import "time"

// Config holds session layer configuration.
type Config struct {
	// AccessTokenTTL is the access token lifetime (default: 15 minutes).
	AccessTokenTTL time.Duration `env:"SESSION_ACCESS_TOKEN_TTL" envDefault:"15m"`

	// RefreshTokenTTL is the refresh token lifetime (default: 7 days).
	RefreshTokenTTL time.Duration `env:"SESSION_REFRESH_TOKEN_TTL" envDefault:"168h"`

	// SweepInterval is the period between expiry sweeps (default: daily).
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"24h"`

	// IssueRetries bounds the transparent re-issue attempts after a
	// duplicate-token insert (default: 3).
	IssueRetries int `env:"SESSION_ISSUE_RETRIES" envDefault:"3"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		SweepInterval:   24 * time.Hour,
		IssueRetries:    3,
	}
}
