package messaging

import (
	"context"

	"github.com/rm-hull/telstra-messaging-api/internal/models"
)

// Session is an authenticated handle. It can only be obtained from
// NewSession, so holding one means a token has already been issued.
type Session struct {
	client *Client
	token  string
}

// NewSession authenticates and returns a handle bound to the new token.
func (c *Client) NewSession(ctx context.Context) (*Session, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{client: c, token: token}, nil
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) Provision(ctx context.Context) (models.ProvisioningResult, error) {
	return s.client.ProvisionNumber(ctx, s.token)
}

func (s *Session) SendSMS(ctx context.Context, to, body string) (string, error) {
	return s.client.SendSMS(ctx, to, body, s.token)
}

func (s *Session) SendMMS(ctx context.Context, to string, payload []byte, subject, mimeType, filename string) (string, error) {
	return s.client.SendMMS(ctx, to, payload, subject, s.token, mimeType, filename)
}
