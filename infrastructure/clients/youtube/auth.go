package youtube

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/infrastructure/logger"
)

// persistingTokenSource writes every newly minted token back to the token
// file so the next process starts from a valid refresh
type persistingTokenSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	path string
	last string
}

func newPersistingTokenSource(src oauth2.TokenSource, path string, initial *oauth2.Token) *persistingTokenSource {
	last := ""
	if initial != nil {
		last = initial.AccessToken
	}
	return &persistingTokenSource{src: src, path: path, last: last}
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last && p.path != "" {
		if err := writeToken(p.path, tok); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to persist refreshed token")
		} else {
			logger.GetLogger().WithField("expiry", tok.Expiry).Info("Persisted refreshed YouTube token")
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// credentialOption picks API-key mode when no OAuth token is available,
// otherwise OAuth mode with a refreshing, persisting token source
func credentialOption(ctx context.Context, config *Config) (option.ClientOption, error) {
	const op = "youtube.credentials"

	if config.AccessToken == "" && config.RefreshToken == "" {
		if config.APIKey == "" {
			return nil, apperror.Auth(op, nil, "no API key or OAuth token configured")
		}
		return option.WithAPIKey(config.APIKey), nil
	}

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{youtube.YoutubeReadonlyScope}
	}
	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
		// unknown expiry, force a refresh on first use
		Expiry: time.Now().Add(-1 * time.Minute),
	}
	if config.RefreshToken == "" {
		token.Expiry = time.Time{}
	}
	src := newPersistingTokenSource(oauth2Config.TokenSource(ctx, token), config.TokenFile, token)
	return option.WithTokenSource(src), nil
}
