package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/rm-hull/godx"
	"github.com/rs/zerolog"

	"github.com/rm-hull/telstra-messaging-api/internal"
	"github.com/rm-hull/telstra-messaging-api/internal/config"
	"github.com/rm-hull/telstra-messaging-api/internal/credentials"
	"github.com/rm-hull/telstra-messaging-api/internal/logger"
	"github.com/rm-hull/telstra-messaging-api/internal/messaging"
)

type app struct {
	config     *config.Config
	logger     zerolog.Logger
	client     *messaging.Client
	repo       internal.MessageRepository
	dispatcher *internal.Dispatcher
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.logger.Error().Err(err).Msg("failed to close repository")
	}
}

// bootstrap initialises shared resources used by every command: config,
// logger, the messaging client and the message log.
func bootstrap(dbPath string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialise logger")
	}

	godx.GitVersion()
	godx.EnvironmentVars()
	godx.UserInfo()

	provider, err := credentials.FromSource(cfg.CredentialSource)
	if err != nil {
		return nil, err
	}

	client, err := messaging.NewClient(provider,
		messaging.WithBaseURL(cfg.BaseURL),
		messaging.WithTimeout(cfg.Timeout),
		messaging.WithProxies(cfg.Proxies),
		messaging.WithLogger(log),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Telstra messaging client")
	}

	db, err := internal.Connect(dbPath, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize database")
	}

	if err := internal.Migrate("migrations", dbPath); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to migrate SQL")
	}

	repo := internal.NewMessageRepository(db, log)

	return &app{
		config:     cfg,
		logger:     log,
		client:     client,
		repo:       repo,
		dispatcher: internal.NewDispatcher(client, repo, cfg.DefaultRegion, log),
	}, nil
}
