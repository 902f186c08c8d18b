package configuration

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// YouTubeConfig represents YouTube API credentials and client tuning
type YouTubeConfig struct {
	ClientID          string
	ClientSecret      string
	RedirectURL       string
	AccessToken       string
	RefreshToken      string
	APIKey            string
	TokenFile         string
	Scopes            []string
	PageSize          int64
	RequestTimeout    time.Duration
	RequestsPerSecond float64
}

// GetYouTubeConfig returns YouTube configuration from JSON config with environment variable fallback
func GetYouTubeConfig() (*YouTubeConfig, error) {
	config := &YouTubeConfig{
		ClientID:          getConfigValue(C.YouTube.ClientID, "YOUTUBE_CLIENT_ID", ""),
		ClientSecret:      getConfigValue(C.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", ""),
		RedirectURL:       getConfigValue(C.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URL", ""),
		AccessToken:       getEnv("YOUTUBE_ACCESS_TOKEN", ""),
		RefreshToken:      getEnv("YOUTUBE_REFRESH_TOKEN", ""),
		APIKey:            getConfigValue(C.YouTube.APIKey, "YOUTUBE_API_KEY", ""),
		TokenFile:         C.YouTube.TokenFile,
		Scopes:            C.YouTube.Scopes,
		PageSize:          C.YouTube.PageSize,
		RequestTimeout:    C.YouTube.RequestTimeout,
		RequestsPerSecond: C.YouTube.RequestsPerSecond,
	}

	// token.json is written by the consent flow that runs outside this service
	if config.AccessToken == "" || config.RefreshToken == "" {
		tok, err := ReadTokenFile(config.TokenFile)
		if err == nil {
			if config.AccessToken == "" {
				config.AccessToken = tok.AccessToken
			}
			if config.RefreshToken == "" {
				config.RefreshToken = tok.RefreshToken
			}
		}
	}

	if config.APIKey == "" && config.RefreshToken == "" && config.AccessToken == "" {
		return config, errors.New("no YouTube credential: set YOUTUBE_API_KEY or provide an OAuth token file")
	}
	return config, nil
}

// ReadTokenFile decodes a cached OAuth token
func ReadTokenFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read token file %s", path)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, errors.Wrapf(err, "decode token file %s", path)
	}
	return &tok, nil
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
