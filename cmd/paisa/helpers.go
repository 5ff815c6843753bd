package main

import (
	"context"
	"fmt"

	"github.com/paisaflow/paisaflow/internal/common"
	"github.com/paisaflow/paisaflow/internal/config"
	"github.com/paisaflow/paisaflow/internal/filter"
	"github.com/paisaflow/paisaflow/internal/ledger"
	"github.com/paisaflow/paisaflow/internal/service"
	"github.com/paisaflow/paisaflow/internal/session"
	"github.com/paisaflow/paisaflow/internal/storage"
	"github.com/spf13/viper"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultDBPath = "~/.local/share/paisa/paisa.db"

func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	db, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// newSessionProvider prefers client-credentials OAuth2 when a token URL is
// configured; otherwise the static bearer token from ledger.token is used.
func newSessionProvider(ctx context.Context) service.SessionProvider {
	if tokenURL := viper.GetString("ledger.oauth.token_url"); tokenURL != "" {
		cfg := &clientcredentials.Config{
			ClientID:     viper.GetString("ledger.oauth.client_id"),
			ClientSecret: viper.GetString("ledger.oauth.client_secret"),
			TokenURL:     tokenURL,
		}
		return session.NewOAuth2(cfg.TokenSource(ctx))
	}

	return session.NewStatic(viper.GetString("ledger.token"))
}

func newLedgerClient(ctx context.Context) (*ledger.Client, error) {
	baseURL := viper.GetString("ledger.url")
	if baseURL == "" {
		return nil, common.NewUserError(
			"ledger.url is not set; configure it in config.yaml or PAISA_LEDGER_URL",
			common.ErrMissingConfig)
	}

	return ledger.NewClient(baseURL, newSessionProvider(ctx)), nil
}

func newSenderFilter() (*filter.SenderFilter, error) {
	patterns := viper.GetStringSlice("filter.senders")

	f, err := filter.New(patterns)
	if err != nil {
		return nil, common.NewUserError("invalid filter.senders pattern", fmt.Errorf("%w: %v", common.ErrInvalidConfig, err))
	}

	return f, nil
}
