package internal

import (
	"database/sql"
	_ "embed"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/tavsec/gin-healthcheck/checks"

	"github.com/rm-hull/telstra-messaging-api/internal/models"
)

//go:embed sql/insert_message.sql
var insertMessageSQL string

//go:embed sql/recent_messages.sql
var recentMessagesSQL string

const DefaultRecentLimit = 50

type MessageRepository interface {
	Insert(record *models.MessageRecord) error
	Recent(limit int) ([]models.MessageRecord, error)
	Check() checks.Check
	Close() error
}

type sqliteRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMessageRepository(db *sql.DB, logger zerolog.Logger) MessageRepository {
	return &sqliteRepository{
		db:     db,
		logger: logger,
	}
}

func (repo *sqliteRepository) Insert(record *models.MessageRecord) error {
	if record == nil {
		return nil
	}
	if _, err := repo.db.Exec(insertMessageSQL, record.ToTuple()...); err != nil {
		return errors.Wrapf(err, "failed to insert message %s", record.Id)
	}
	return nil
}

func (repo *sqliteRepository) Recent(limit int) ([]models.MessageRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := repo.db.Query(recentMessagesSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute recent messages query")
	}
	defer func() {
		if err := rows.Close(); err != nil {
			repo.logger.Warn().Err(err).Msg("failed to close rows")
		}
	}()

	results := make([]models.MessageRecord, 0, limit)
	for rows.Next() {
		var record models.MessageRecord
		var subject, mimeType, errText, response sql.NullString
		if err := rows.Scan(
			&record.Id, &record.Kind, &record.Recipient, &subject, &mimeType,
			&record.Status, &errText, &response, &record.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		record.Subject = subject.String
		record.MimeType = mimeType.String
		record.Error = errText.String
		record.Response = response.String
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating over rows")
	}

	return results, nil
}

func (repo *sqliteRepository) Check() checks.Check {
	return &pingCheck{db: repo.db}
}

func (repo *sqliteRepository) Close() error {
	return repo.db.Close()
}

type pingCheck struct {
	db *sql.DB
}

func (c *pingCheck) Pass() bool {
	return c.db.Ping() == nil
}

func (c *pingCheck) Name() string {
	return "message-log"
}
