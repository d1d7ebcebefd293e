package internal

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/rm-hull/telstra-messaging-api/internal/models"
)

// Provisioned numbers lapse when unused, so they are refreshed daily.
const CRON_SCHEDULE_REPROVISION = "0 3 * * *"

const reprovisionTimeout = time.Minute

type Provisioner interface {
	Provision(ctx context.Context) (models.ProvisioningResult, error)
}

func StartCron(provisioner Provisioner, schedule string, logger zerolog.Logger) (*cron.Cron, error) {
	if schedule == "" {
		schedule = CRON_SCHEDULE_REPROVISION
	}

	c := cron.New()

	logger.Info().Str("schedule", schedule).Msg("Starting CRON job to re-provision the virtual number")

	if _, err := c.AddFunc(schedule, func() {
		reprovision(provisioner, logger)
	}); err != nil {
		return nil, errors.Wrapf(err, "invalid re-provisioning schedule %q", schedule)
	}

	c.Start()
	return c, nil
}

func reprovision(provisioner Provisioner, logger zerolog.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), reprovisionTimeout)
	defer cancel()

	result, err := provisioner.Provision(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error re-provisioning number")
		return false
	}
	logger.Info().Interface("result", result).Msg("Re-provisioned number")
	return true
}
