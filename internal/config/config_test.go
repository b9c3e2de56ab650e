package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesAllowedDomain(t *testing.T) {
	t.Parallel()

	cfg := AuthConfig{AllowedEmailDomain: "@bumex.mr"}

	assert.True(t, cfg.MatchesAllowedDomain("aicha@bumex.mr"))
	assert.True(t, cfg.MatchesAllowedDomain("AICHA@BUMEX.MR"))
	assert.True(t, cfg.MatchesAllowedDomain("  aicha@bumex.mr  "))
	assert.False(t, cfg.MatchesAllowedDomain("aicha@gmail.com"))
	assert.False(t, cfg.MatchesAllowedDomain("aicha@bumex.mr.evil.com"))
	assert.False(t, cfg.MatchesAllowedDomain(""))

	// An empty allow-list disables the gate.
	open := AuthConfig{}
	assert.True(t, open.MatchesAllowedDomain("anyone@anywhere.org"))
}

func TestAuthConfigTTLFallbacks(t *testing.T) {
	t.Parallel()

	var cfg AuthConfig
	assert.Equal(t, "10m0s", cfg.OTPTTL().String())
	assert.Equal(t, "8h0m0s", cfg.SessionTTL().String())

	cfg = AuthConfig{OTPTTLMinutes: 5, SessionTTLMinutes: 90}
	assert.Equal(t, "5m0s", cfg.OTPTTL().String())
	assert.Equal(t, "1h30m0s", cfg.SessionTTL().String())
}
