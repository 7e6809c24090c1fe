package auth

import (
	"fmt"

	"github.com/kolah/oink/internal/config"
)

// FromConfig selects the authenticator described by cfg.
func FromConfig(cfg config.AuthConfig, opts ...Option) (Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "", config.AuthNone:
		return NoOp{}, nil
	case config.AuthOAuth2:
		return NewOAuth2ClientCredentials(cfg.OAuth2, opts...), nil
	case config.AuthOAuth1:
		a, err := NewOAuth1(cfg.OAuth1, opts...)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: auth type %q", ErrNotSupported, cfg.Type)
}
