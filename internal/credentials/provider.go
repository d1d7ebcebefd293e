// Package credentials supplies Telstra API credentials to the messaging
// client from the environment or the OS secret store.
package credentials

import (
	"os"
	"os/user"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kofalt/go-memoize"
	"github.com/zalando/go-keyring"

	"github.com/rm-hull/telstra-messaging-api/internal/models"
)

// ErrNotConfigured is returned when a provider has no credentials to offer.
var ErrNotConfigured = errors.New("telstra API credentials are not configured; sign up for an API key at https://dev.telstra.com")

const placeholder = "..."

const (
	DefaultIdVar     = "TELSTRA_CLIENT_ID"
	DefaultSecretVar = "TELSTRA_CLIENT_SECRET"

	DefaultIdService     = "telstra_messaging_api_key"
	DefaultSecretService = "telstra_messaging_api_secret"
)

type Provider interface {
	Lookup() (models.Credentials, error)
}

// Static always returns the same credentials.
type Static models.Credentials

func (s Static) Lookup() (models.Credentials, error) {
	creds := models.Credentials(s)
	if isUnset(creds.ClientId) || isUnset(creds.ClientSecret) {
		return models.Credentials{}, ErrNotConfigured
	}
	return creds, nil
}

// EnvProvider reads credentials from environment variables.
type EnvProvider struct {
	IdVar     string
	SecretVar string
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{IdVar: DefaultIdVar, SecretVar: DefaultSecretVar}
}

func (p *EnvProvider) Lookup() (models.Credentials, error) {
	id := strings.TrimSpace(os.Getenv(p.IdVar))
	secret := strings.TrimSpace(os.Getenv(p.SecretVar))
	if isUnset(id) || isUnset(secret) {
		return models.Credentials{}, errors.Wrapf(ErrNotConfigured, "set %s and %s", p.IdVar, p.SecretVar)
	}
	return models.Credentials{ClientId: id, ClientSecret: secret}, nil
}

// KeyringProvider reads credentials from the OS secret store, keyed by the
// local username.
type KeyringProvider struct {
	IdService     string
	SecretService string
	User          string
}

func NewKeyringProvider() (*KeyringProvider, error) {
	u, err := user.Current()
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine current user")
	}
	return &KeyringProvider{
		IdService:     DefaultIdService,
		SecretService: DefaultSecretService,
		User:          u.Username,
	}, nil
}

func (p *KeyringProvider) Lookup() (models.Credentials, error) {
	id, err := p.get(p.IdService)
	if err != nil {
		return models.Credentials{}, err
	}
	secret, err := p.get(p.SecretService)
	if err != nil {
		return models.Credentials{}, err
	}
	return models.Credentials{ClientId: id, ClientSecret: secret}, nil
}

func (p *KeyringProvider) get(service string) (string, error) {
	value, err := keyring.Get(service, p.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", errors.Wrapf(ErrNotConfigured, "no %s entry for %s in the keyring", service, p.User)
	}
	if err != nil {
		return "", errors.Wrapf(err, "keyring lookup of %s failed", service)
	}
	if isUnset(value) {
		return "", errors.Wrapf(ErrNotConfigured, "empty %s entry for %s in the keyring", service, p.User)
	}
	return value, nil
}

// Chain returns the credentials of the first provider that has them.
type Chain []Provider

func (c Chain) Lookup() (models.Credentials, error) {
	var errs error
	for _, p := range c {
		if p == nil {
			continue
		}
		creds, err := p.Lookup()
		if err == nil {
			return creds, nil
		}
		errs = errors.CombineErrors(errs, err)
	}
	if errs == nil {
		return models.Credentials{}, ErrNotConfigured
	}
	return models.Credentials{}, errs
}

// Memoized reads from the wrapped provider once and keeps the result for
// the lifetime of the process.
type Memoized struct {
	provider Provider
	cache    *memoize.Memoizer
}

func Memoize(provider Provider) *Memoized {
	return &Memoized{
		provider: provider,
		cache:    memoize.NewMemoizer(-1, 0),
	}
}

func (m *Memoized) Lookup() (models.Credentials, error) {
	value, err, _ := m.cache.Memoize("credentials", func() (interface{}, error) {
		creds, err := m.provider.Lookup()
		return creds, err
	})
	if err != nil {
		return models.Credentials{}, err
	}
	creds, ok := value.(models.Credentials)
	if !ok {
		return models.Credentials{}, ErrNotConfigured
	}
	return creds, nil
}

// FromSource builds the provider named by source: "env", "keyring" or
// "auto" (environment first, then keyring).
func FromSource(source string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "env":
		return Memoize(NewEnvProvider()), nil
	case "keyring":
		kp, err := NewKeyringProvider()
		if err != nil {
			return nil, err
		}
		return Memoize(kp), nil
	case "", "auto":
		chain := Chain{NewEnvProvider()}
		if kp, err := NewKeyringProvider(); err == nil {
			chain = append(chain, kp)
		}
		return Memoize(chain), nil
	default:
		return nil, errors.Newf("unknown credential source: %q", source)
	}
}

func isUnset(value string) bool {
	return value == "" || value == placeholder
}
