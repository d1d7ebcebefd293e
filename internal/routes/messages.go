package routes

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rm-hull/telstra-messaging-api/internal"
	"github.com/rm-hull/telstra-messaging-api/internal/messaging"
	"github.com/rm-hull/telstra-messaging-api/internal/models"
	"github.com/rm-hull/telstra-messaging-api/internal/phone"
	"github.com/rm-hull/telstra-messaging-api/internal/stats"
)

const MAX_MMS_BYTES = 2 << 20 // Telstra rejects MMS content over 2 MB

const MAX_LIST_LIMIT = 500

type Sender interface {
	SendSMS(ctx context.Context, to, body string) (*models.MessageRecord, error)
	SendMMS(ctx context.Context, to string, payload []byte, subject string) (*models.MessageRecord, error)
	Provision(ctx context.Context) (models.ProvisioningResult, error)
}

type smsRequest struct {
	To   string `json:"to" binding:"required"`
	Body string `json:"body" binding:"required"`
}

func SendSMS(sender Sender, logger zerolog.Logger) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req smsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "request must be JSON with non-empty 'to' and 'body'"})
			return
		}

		record, err := sender.SendSMS(c.Request.Context(), req.To, req.Body)
		respond(c, logger, record, err)
	}
}

func SendMMS(sender Sender, logger zerolog.Logger) func(c *gin.Context) {
	return func(c *gin.Context) {
		to := c.PostForm("to")
		if to == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'to' field"})
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'image' file"})
			return
		}
		if fileHeader.Size > MAX_MMS_BYTES {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds 2 MB"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable 'image' file"})
			return
		}
		defer func() {
			_ = file.Close()
		}()

		payload, err := io.ReadAll(io.LimitReader(file, MAX_MMS_BYTES+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable 'image' file"})
			return
		}
		if len(payload) > MAX_MMS_BYTES {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds 2 MB"})
			return
		}

		record, err := sender.SendMMS(c.Request.Context(), to, payload, c.PostForm("subject"))
		respond(c, logger, record, err)
	}
}

func Provision(sender Sender, logger zerolog.Logger) func(c *gin.Context) {
	return func(c *gin.Context) {
		result, err := sender.Provision(c.Request.Context())
		if err != nil {
			logger.Error().Err(err).Msg("error while provisioning")
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func ListMessages(repo internal.MessageRepository, logger zerolog.Logger) func(c *gin.Context) {
	return func(c *gin.Context) {
		limit := internal.DefaultRecentLimit
		if limitStr := c.Query("limit"); limitStr != "" {
			l, err := strconv.Atoi(limitStr)
			if err != nil || l <= 0 || l > MAX_LIST_LIMIT {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
				return
			}
			limit = l
		}

		records, err := repo.Recent(limit)
		if err != nil {
			logger.Error().Err(err).Msg("error while fetching messages")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
			return
		}

		c.JSON(http.StatusOK, models.MessagesResponse{
			Messages:   records,
			Statistics: stats.Derive(records),
		})
	}
}

func respond(c *gin.Context, logger zerolog.Logger, record *models.MessageRecord, err error) {
	if err == nil {
		c.JSON(http.StatusCreated, record)
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("error while sending message")
	}
	body := gin.H{"error": err.Error()}
	if record != nil {
		body["message"] = record
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, phone.ErrInvalidNumber):
		return http.StatusBadRequest
	case messaging.IsUnsupportedMedia(err):
		return http.StatusUnsupportedMediaType
	case messaging.IsAuthentication(err):
		return http.StatusServiceUnavailable
	case messaging.IsRemoteService(err), messaging.IsTransport(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
