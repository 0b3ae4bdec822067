package makerworks

import (
	"crypto/tls"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{BaseURL: "http://localhost:8000"}
	cfg = cfg.WithDefaults()

	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.NotNil(t, cfg.Logger)
}

func TestConfig_WithDefaults_PreservesExisting(t *testing.T) {
	logger := slog.Default()
	tlsCfg := &tls.Config{InsecureSkipVerify: true}
	cfg := Config{
		BaseURL:       "https://api.makerworks.example",
		HTTPTimeout:   60 * time.Second,
		UserAgent:     "makerctl/1.2.3",
		TLSConfig:     tlsCfg,
		SkipTLSVerify: true,
		Logger:        logger,
	}
	result := cfg.WithDefaults()

	assert.Equal(t, "https://api.makerworks.example", result.BaseURL)
	assert.Equal(t, 60*time.Second, result.HTTPTimeout)
	assert.Equal(t, "makerctl/1.2.3", result.UserAgent)
	assert.Same(t, tlsCfg, result.TLSConfig)
	assert.True(t, result.SkipTLSVerify)
	assert.Same(t, logger, result.Logger)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrMissingBaseURL)

	cfg.BaseURL = "http://localhost:8000"
	assert.NoError(t, cfg.Validate())
}

func TestUser_JSONFieldNames(t *testing.T) {
	u := User{
		ID:        "u-1",
		Username:  "alice",
		AvatarURL: "https://cdn.makerworks.example/a.png",
	}
	data, err := json.Marshal(u)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"avatar_url"`)
	assert.NotContains(t, string(data), `"last_login"`, "unset pointer fields stay omitted")
}
