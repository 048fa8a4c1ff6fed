package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/reddit-collector/internal/config"
	"github.com/qepting91/reddit-collector/internal/domain"
)

// NewCollector selects the correct implementation based on the mode.
// In oauth mode the credential exchange happens here, before any listing call.
func NewCollector(ctx context.Context, cfg config.Config, logger *slog.Logger) (domain.Collector, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Mode {
	case config.ModeOAuth:
		cred, err := Authenticate(ctx, AuthConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			UserAgent:    cfg.UserAgent,
			TokenURL:     cfg.TokenURL,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Authenticated", "client_id", cred.ClientID, "expiry", cred.Expiry)
		client, err := NewAPIClient(cred, APIConfig{BaseURL: cfg.APIURL})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ModePublic:
		var opts []reddit.Opt
		if cfg.PublicURL != "" {
			opts = append(opts, reddit.WithBaseURL(cfg.PublicURL))
		}
		client, err := NewPublicClient(cfg.UserAgent, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ModeMock:
		return NewMockClient(), nil
	default:
		return nil, &domain.ConfigError{
			Fields:  []string{"COLLECTOR_MODE"},
			Message: fmt.Sprintf("unknown mode %q (use 'oauth', 'public', or 'mock')", cfg.Mode),
		}
	}
}
