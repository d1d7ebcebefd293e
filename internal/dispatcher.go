package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rm-hull/telstra-messaging-api/internal/messaging"
	"github.com/rm-hull/telstra-messaging-api/internal/models"
	"github.com/rm-hull/telstra-messaging-api/internal/phone"
)

// Messenger is the part of messaging.Client used by the dispatcher.
type Messenger interface {
	Send(ctx context.Context, to, message string) (string, error)
	SendImage(ctx context.Context, to string, image messaging.ImageInput, subject string) (string, error)
	Provision(ctx context.Context) (models.ProvisioningResult, error)
}

// Dispatcher normalises recipients, sends through a Messenger and keeps a
// log of every attempt that reached the API.
type Dispatcher struct {
	messenger Messenger
	repo      MessageRepository
	region    string
	logger    zerolog.Logger
	now       func() time.Time
}

func NewDispatcher(messenger Messenger, repo MessageRepository, region string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		messenger: messenger,
		repo:      repo,
		region:    region,
		logger:    logger,
		now:       time.Now,
	}
}

// SendSMS returns the logged record alongside any send error; the record is
// nil only when the recipient was rejected locally.
func (d *Dispatcher) SendSMS(ctx context.Context, to, body string) (*models.MessageRecord, error) {
	recipient, err := phone.Normalize(to, d.region)
	if err != nil {
		return nil, err
	}

	record := d.newRecord(models.KindSMS, recipient)
	resp, err := d.messenger.Send(ctx, recipient, body)
	return d.finish(record, resp, err)
}

// SendMMS rejects payloads that are not recognised media before anything is
// sent or logged.
func (d *Dispatcher) SendMMS(ctx context.Context, to string, payload []byte, subject string) (*models.MessageRecord, error) {
	recipient, err := phone.Normalize(to, d.region)
	if err != nil {
		return nil, err
	}
	mimeType, _, err := messaging.DetectMedia(payload)
	if err != nil {
		return nil, err
	}

	record := d.newRecord(models.KindMMS, recipient)
	record.Subject = subject
	record.MimeType = mimeType
	resp, err := d.messenger.SendImage(ctx, recipient, messaging.RawBytes(payload), subject)
	return d.finish(record, resp, err)
}

func (d *Dispatcher) Provision(ctx context.Context) (models.ProvisioningResult, error) {
	result, err := d.messenger.Provision(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("provisioning failed")
		return nil, err
	}
	d.logger.Info().Interface("result", result).Msg("number provisioned")
	return result, nil
}

func (d *Dispatcher) newRecord(kind, recipient string) *models.MessageRecord {
	return &models.MessageRecord{
		Id:        uuid.NewString(),
		Kind:      kind,
		Recipient: recipient,
		CreatedAt: d.now().UTC(),
	}
}

func (d *Dispatcher) finish(record *models.MessageRecord, resp string, sendErr error) (*models.MessageRecord, error) {
	if sendErr != nil {
		record.Status = models.StatusFailed
		record.Error = sendErr.Error()
	} else {
		record.Status = models.StatusSent
		record.Response = resp
	}

	if d.repo != nil {
		if err := d.repo.Insert(record); err != nil {
			d.logger.Warn().Err(err).Str("message_id", record.Id).Msg("failed to log message")
		}
	}

	d.logger.Info().
		Str("message_id", record.Id).
		Str("kind", record.Kind).
		Str("to", record.Recipient).
		Str("status", record.Status).
		Msg("message dispatched")
	return record, sendErr
}
