package collector

import (
	"context"
	"errors"
	"net/http"

	"github.com/qepting91/reddit-collector/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AuthConfig holds what the client-credentials exchange needs.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	// TokenURL defaults to DefaultTokenURL.
	TokenURL   string
	HTTPClient *http.Client
}

// Authenticate trades the app ID and secret for a short-lived access token.
// Any failure, including a rejected exchange, is returned as *domain.AuthError.
func Authenticate(ctx context.Context, cfg AuthConfig) (domain.Credential, error) {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	conf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, withUserAgent(cfg.HTTPClient, cfg.UserAgent))

	tok, err := conf.Token(ctx)
	if err != nil {
		authErr := &domain.AuthError{Err: err}
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			if rErr.Response != nil {
				authErr.StatusCode = rErr.Response.StatusCode
			}
			authErr.Body = string(rErr.Body)
		}
		return domain.Credential{}, authErr
	}
	if tok.AccessToken == "" {
		return domain.Credential{}, &domain.AuthError{Err: errors.New("access token was empty in response")}
	}

	return domain.Credential{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		UserAgent:    cfg.UserAgent,
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
	}, nil
}
