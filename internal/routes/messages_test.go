package routes

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tavsec/gin-healthcheck/checks"

	"github.com/rm-hull/telstra-messaging-api/internal/messaging"
	"github.com/rm-hull/telstra-messaging-api/internal/models"
	"github.com/rm-hull/telstra-messaging-api/internal/phone"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fakeSender struct {
	to      string
	body    string
	payload []byte
	subject string
	err     error
}

func (f *fakeSender) SendSMS(_ context.Context, to, body string) (*models.MessageRecord, error) {
	f.to, f.body = to, body
	if errors.Is(f.err, phone.ErrInvalidNumber) {
		return nil, f.err
	}
	return f.record(models.KindSMS), f.err
}

func (f *fakeSender) SendMMS(_ context.Context, to string, payload []byte, subject string) (*models.MessageRecord, error) {
	f.to, f.payload, f.subject = to, payload, subject
	if messaging.IsUnsupportedMedia(f.err) {
		return nil, f.err
	}
	return f.record(models.KindMMS), f.err
}

func (f *fakeSender) Provision(_ context.Context) (models.ProvisioningResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return models.ProvisioningResult{"destinationAddress": "+61400000000"}, nil
}

func (f *fakeSender) record(kind string) *models.MessageRecord {
	status := models.StatusSent
	if f.err != nil {
		status = models.StatusFailed
	}
	return &models.MessageRecord{Id: "msg-1", Kind: kind, Recipient: f.to, Subject: f.subject, Status: status}
}

type fakeRepo struct {
	records []models.MessageRecord
	limit   int
	err     error
}

func (r *fakeRepo) Insert(*models.MessageRecord) error { return nil }
func (r *fakeRepo) Recent(limit int) ([]models.MessageRecord, error) {
	r.limit = limit
	return r.records, r.err
}
func (r *fakeRepo) Check() checks.Check { return nil }
func (r *fakeRepo) Close() error        { return nil }

func newRouter(sender Sender, repo *fakeRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/messages/sms", SendSMS(sender, zerolog.Nop()))
	r.POST("/v1/messages/mms", SendMMS(sender, zerolog.Nop()))
	r.POST("/v1/provisioning", Provision(sender, zerolog.Nop()))
	if repo != nil {
		r.GET("/v1/messages", ListMessages(repo, zerolog.Nop()))
	}
	return r
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "photo")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestSendSMSRoute(t *testing.T) {
	sender := &fakeSender{}
	router := newRouter(sender, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages/sms", strings.NewReader(`{"to":"+61412345678","body":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "+61412345678", sender.to)
	assert.Equal(t, "hello", sender.body)

	var record models.MessageRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "msg-1", record.Id)
	assert.Equal(t, models.StatusSent, record.Status)
}

func TestSendSMSRouteValidation(t *testing.T) {
	router := newRouter(&fakeSender{}, nil)

	for _, body := range []string{`{"to":"+61412345678"}`, `{"body":"hi"}`, `not json`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/messages/sms", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestSendSMSRouteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid number", errors.Wrap(phone.ErrInvalidNumber, "bad"), http.StatusBadRequest},
		{"credentials rejected", &messaging.AuthenticationError{}, http.StatusServiceUnavailable},
		{"remote failure", &messaging.RemoteServiceError{Status: "400 Bad Request", StatusCode: 400}, http.StatusBadGateway},
		{"transport failure", &messaging.TransportError{Step: "send_sms", Err: context.DeadlineExceeded}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&fakeSender{err: tt.err}, nil)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/messages/sms", strings.NewReader(`{"to":"+61412345678","body":"hello"}`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestSendMMSRoute(t *testing.T) {
	sender := &fakeSender{}
	router := newRouter(sender, nil)

	image := []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00")
	body, contentType := multipartBody(t, map[string]string{"to": "+61412345678", "subject": "Look"}, image)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages/mms", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, image, sender.payload)
	assert.Equal(t, "Look", sender.subject)
}

func TestSendMMSRouteRejections(t *testing.T) {
	t.Run("missing recipient", func(t *testing.T) {
		router := newRouter(&fakeSender{}, nil)
		body, contentType := multipartBody(t, nil, []byte("GIF89a"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/messages/mms", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing image", func(t *testing.T) {
		router := newRouter(&fakeSender{}, nil)
		body, contentType := multipartBody(t, map[string]string{"to": "+61412345678"}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/messages/mms", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported media", func(t *testing.T) {
		router := newRouter(&fakeSender{err: &messaging.UnsupportedMediaError{Detected: "text/plain"}}, nil)
		body, contentType := multipartBody(t, map[string]string{"to": "+61412345678"}, []byte("hello"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/messages/mms", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.NotContains(t, w.Body.String(), `"message"`)
	})

	t.Run("too large", func(t *testing.T) {
		sender := &fakeSender{}
		router := newRouter(sender, nil)
		body, contentType := multipartBody(t, map[string]string{"to": "+61412345678"}, make([]byte, MAX_MMS_BYTES+1))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/messages/mms", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Nil(t, sender.payload)
	})
}

func TestProvisionRoute(t *testing.T) {
	router := newRouter(&fakeSender{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/provisioning", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"destinationAddress":"+61400000000"}`, w.Body.String())

	router = newRouter(&fakeSender{err: &messaging.AuthenticationError{}}, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/provisioning", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListMessagesRoute(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	repo := &fakeRepo{records: []models.MessageRecord{
		{Id: "m2", Kind: models.KindMMS, Recipient: "+61412345678", Status: models.StatusSent, CreatedAt: now},
		{Id: "m1", Kind: models.KindSMS, Recipient: "+61412345678", Status: models.StatusFailed, CreatedAt: now.Add(-time.Minute)},
	}}
	router := newRouter(&fakeSender{}, repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/messages?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, repo.limit)

	var resp models.MessagesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 2)
	require.NotNil(t, resp.Statistics)
	assert.Equal(t, 2, resp.Statistics.Total)
	assert.Equal(t, 0.5, resp.Statistics.SuccessRate)
}

func TestListMessagesRouteLimits(t *testing.T) {
	repo := &fakeRepo{}
	router := newRouter(&fakeSender{}, repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/messages", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, repo.limit)

	for _, limit := range []string{"0", "-1", "abc", "501"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/messages?limit="+limit, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}

	repo.err = errors.New("disk on fire")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/messages", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
