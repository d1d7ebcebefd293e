package messaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	neturl "net/url"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/rm-hull/telstra-messaging-api/internal/credentials"
	"github.com/rm-hull/telstra-messaging-api/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultBaseURL = "https://tapi.telstra.com/v2"
	DefaultTimeout = 30 * time.Second
)

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root. Useful for tests.
func WithBaseURL(baseUrl string) Option {
	return func(c *Client) {
		if baseUrl != "" {
			c.baseUrl = strings.TrimRight(baseUrl, "/")
		}
	}
}

// WithTimeout bounds every outbound request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProxies maps a URL scheme ("http", "https") to a proxy URL. The key
// "all" applies to any scheme without its own entry.
func WithProxies(proxies map[string]string) Option {
	return func(c *Client) {
		for scheme, proxy := range proxies {
			if proxy == "" {
				continue
			}
			if c.proxies == nil {
				c.proxies = make(map[string]string)
			}
			c.proxies[strings.ToLower(scheme)] = proxy
		}
	}
}

// WithHTTPClient replaces the HTTP client. Timeout and proxy options are not
// applied to a client supplied this way.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to the Telstra Messaging API. It holds only immutable
// configuration and is safe for concurrent use; every top-level operation
// fetches its own access token.
type Client struct {
	baseUrl string
	creds   models.Credentials
	timeout time.Duration
	proxies map[string]string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient resolves credentials from provider once and builds a client.
func NewClient(provider credentials.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, errors.New("messaging client: credential provider is required")
	}

	creds, err := provider.Lookup()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve credentials")
	}
	if creds.IsZero() {
		return nil, &AuthenticationError{Cause: credentials.ErrNotConfigured}
	}

	c := &Client{
		baseUrl: DefaultBaseURL,
		creds:   creds,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if reflect.ValueOf(c.logger).IsZero() {
		c.logger = zerolog.Nop()
	}

	if c.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if len(c.proxies) > 0 {
			proxy, err := proxyFunc(c.proxies)
			if err != nil {
				return nil, err
			}
			transport.Proxy = proxy
		}
		c.client = &http.Client{Timeout: c.timeout, Transport: transport}
	}

	return c, nil
}

func proxyFunc(proxies map[string]string) (func(*http.Request) (*neturl.URL, error), error) {
	parsed := make(map[string]*neturl.URL, len(proxies))
	for scheme, raw := range proxies {
		u, err := neturl.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid proxy URL for %s", scheme)
		}
		parsed[scheme] = u
	}
	return func(req *http.Request) (*neturl.URL, error) {
		if u, ok := parsed[req.URL.Scheme]; ok {
			return u, nil
		}
		return parsed["all"], nil
	}, nil
}

// Authenticate performs the OAuth2 client-credentials grant and returns the
// access token.
func (c *Client) Authenticate(ctx context.Context) (token string, err error) {
	defer c.observe(stepAuthenticate, time.Now(), &err)

	cfg := clientcredentials.Config{
		ClientID:     c.creds.ClientId,
		ClientSecret: c.creds.ClientSecret,
		TokenURL:     c.baseUrl + "/oauth/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	c.logger.Debug().Str("url", cfg.TokenURL).Msg("POST")
	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.client))
	if err != nil {
		var urlErr *neturl.Error
		if errors.As(err, &urlErr) {
			return "", &TransportError{Step: stepAuthenticate, URL: cfg.TokenURL, Err: err}
		}
		return "", &AuthenticationError{Cause: err}
	}
	if tok.AccessToken == "" {
		return "", &AuthenticationError{}
	}

	c.logger.Debug().Time("expiry", tok.Expiry).Msg("authenticated")
	return tok.AccessToken, nil
}

// ProvisionNumber associates a virtual number with the account. Repeating the
// call is harmless.
func (c *Client) ProvisionNumber(ctx context.Context, token string) (result models.ProvisioningResult, err error) {
	defer c.observe(stepProvision, time.Now(), &err)

	body, err := c.post(ctx, stepProvision, c.baseUrl+"/messages/provisioning/subscriptions", token, struct{}{})
	if err != nil {
		return nil, err
	}

	result = models.ProvisioningResult{}
	if len(bytes.TrimSpace(body)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal provisioning response")
	}
	return result, nil
}

// SendSMS sends body to the recipient and returns the raw response text. The
// provider's length limit is not checked here.
func (c *Client) SendSMS(ctx context.Context, to, body, token string) (response string, err error) {
	defer c.observe(stepSendSMS, time.Now(), &err)

	resp, err := c.post(ctx, stepSendSMS, c.baseUrl+"/messages/sms", token, models.SMSRequest{
		To:   to,
		Body: body,
	})
	if err != nil {
		return "", err
	}

	c.logger.Info().Str("to", to).Msg("sms sent")
	return string(resp), nil
}

// SendMMS sends payload as a single MMS part and returns the raw response
// text. Empty mimeType and filename fall back to image/jpeg and image.jpg.
func (c *Client) SendMMS(ctx context.Context, to string, payload []byte, subject, token, mimeType, filename string) (response string, err error) {
	defer c.observe(stepSendMMS, time.Now(), &err)

	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	if filename == "" {
		filename = DefaultFilename
	}

	resp, err := c.post(ctx, stepSendMMS, c.baseUrl+"/messages/mms", token, models.MMSRequest{
		To: to,
		MMSContent: []models.MMSContent{{
			Type:     mimeType,
			Filename: filename,
			Payload:  base64.StdEncoding.EncodeToString(payload),
		}},
		Subject: subject,
	})
	if err != nil {
		return "", err
	}

	c.logger.Info().Str("to", to).Str("mime_type", mimeType).Int("bytes", len(payload)).Msg("mms sent")
	return string(resp), nil
}

// Send authenticates, provisions and sends an SMS.
func (c *Client) Send(ctx context.Context, to, message string) (string, error) {
	session, err := c.NewSession(ctx)
	if err != nil {
		return "", err
	}
	if _, err := session.Provision(ctx); err != nil {
		return "", err
	}
	return session.SendSMS(ctx, to, message)
}

// SendImage sniffs the media type of image, then authenticates, provisions
// and sends it as an MMS. Unrecognised content is rejected before any request
// is made.
func (c *Client) SendImage(ctx context.Context, to string, image ImageInput, subject string) (string, error) {
	if image == nil {
		return "", errors.New("image is required")
	}
	data, err := image.imageBytes()
	if err != nil {
		return "", err
	}

	mimeType, extension, err := DetectMedia(data)
	if err != nil {
		return "", err
	}
	if extension == "" {
		extension = "bin"
	}

	session, err := c.NewSession(ctx)
	if err != nil {
		return "", err
	}
	if _, err := session.Provision(ctx); err != nil {
		return "", err
	}
	return session.SendMMS(ctx, to, data, subject, mimeType, "image."+extension)
}

// Provision authenticates and provisions in one step.
func (c *Client) Provision(ctx context.Context) (models.ProvisioningResult, error) {
	session, err := c.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	return session.Provision(ctx)
}

func (c *Client) post(ctx context.Context, step, url, token string, data any) ([]byte, error) {
	c.logger.Debug().Str("step", step).Str("url", url).Msg("POST")

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Step: step, URL: url, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Step: step, URL: url, Err: err}
	}

	if resp.StatusCode > 299 {
		return nil, &RemoteServiceError{URL: url, Status: resp.Status, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *Client) observe(step string, started time.Time, err *error) {
	requestDuration.WithLabelValues(step).Observe(time.Since(started).Seconds())
	requestsTotal.WithLabelValues(step, outcomeOf(*err)).Inc()
	if *err != nil {
		c.logger.Warn().Str("step", step).Err(*err).Msg("telstra api call failed")
	}
}
