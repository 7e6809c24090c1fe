package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/kolah/oink/internal/config"
)

// OAuth2ClientCredentials performs the client credentials grant and signs
// requests with the resulting bearer token. Tokens are never refreshed
// automatically; call Authenticate again to replace an expired one.
type OAuth2ClientCredentials struct {
	cfg  clientcredentials.Config
	opts options

	mu    sync.RWMutex
	token string
}

func NewOAuth2ClientCredentials(cfg config.OAuth2Config, opts ...Option) *OAuth2ClientCredentials {
	return &OAuth2ClientCredentials{
		cfg: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       strings.Fields(cfg.Scope),
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		opts: newOptions(opts),
	}
}

func (a *OAuth2ClientCredentials) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != ""
}

// Authenticate requests a token with HTTP Basic client credentials. On
// failure the previously stored token, if any, stays in place.
func (a *OAuth2ClientCredentials) Authenticate(ctx context.Context) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.tokenClient())

	tok, err := a.cfg.Token(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			authErr := &AuthenticationError{
				Scheme:  SchemeOAuth2,
				Body:    string(retrieveErr.Body),
				Message: "token endpoint returned a non-success status",
			}
			if retrieveErr.Response != nil {
				authErr.StatusCode = retrieveErr.Response.StatusCode
			}
			return authErr
		}
		return &AuthenticationError{Scheme: SchemeOAuth2, Message: "token request failed", Err: err}
	}
	if tok.AccessToken == "" {
		return &AuthenticationError{Scheme: SchemeOAuth2, Message: "token response has no access_token"}
	}

	a.mu.Lock()
	a.token = tok.AccessToken
	a.mu.Unlock()

	a.opts.logger.Debug().Str("scheme", SchemeOAuth2).Str("token_url", a.cfg.TokenURL).Msg("authenticated")
	return nil
}

// tokenClient wraps the configured client so the token request carries the
// raw client id and secret in its Basic credentials. x/oauth2 form-escapes
// both before encoding them.
func (a *OAuth2ClientCredentials) tokenClient() *http.Client {
	client := *a.opts.client
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = &basicAuthTransport{
		base:     base,
		username: a.cfg.ClientID,
		password: a.cfg.ClientSecret,
	}
	return &client
}

type basicAuthTransport struct {
	base     http.RoundTripper
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(req)
}

func (a *OAuth2ClientCredentials) Sign(req *http.Request, _ url.Values, _ map[string]any) error {
	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()

	if token == "" {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
