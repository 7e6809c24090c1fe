package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/kolah/oink/internal/config"
	"github.com/kolah/oink/internal/request"
)

type SignatureMethod string

const (
	HMACSHA1   SignatureMethod = "HMAC-SHA1"
	HMACSHA256 SignatureMethod = "HMAC-SHA256"
	PlainText  SignatureMethod = "PLAINTEXT"
)

const (
	oauthVersion     = "1.0"
	oauthCallbackOOB = "oob"
	contentTypeForm  = "application/x-www-form-urlencoded"
)

type tokenPair struct {
	token  string
	secret string
}

// OAuth1 implements the OAuth 1.0a request-token and access-token handshake
// and signs requests with the resulting access token.
type OAuth1 struct {
	consumerKey     string
	consumerSecret  string
	requestTokenURL string
	accessTokenURL  string
	method          SignatureMethod
	opts            options

	mu     sync.RWMutex
	access *tokenPair
}

// NewOAuth1 fails with ErrNotSupported for signature methods other than
// HMAC-SHA1, HMAC-SHA256 and PLAINTEXT. An empty method selects HMAC-SHA1.
func NewOAuth1(cfg config.OAuth1Config, opts ...Option) (*OAuth1, error) {
	method := SignatureMethod(cfg.SignatureMethod)
	if method == "" {
		method = HMACSHA1
	}
	switch method {
	case HMACSHA1, HMACSHA256, PlainText:
	default:
		return nil, fmt.Errorf("%w: oauth1 signature method %q", ErrNotSupported, cfg.SignatureMethod)
	}

	return &OAuth1{
		consumerKey:     cfg.ConsumerKey,
		consumerSecret:  cfg.ConsumerSecret,
		requestTokenURL: cfg.RequestTokenURL,
		accessTokenURL:  cfg.AccessTokenURL,
		method:          method,
		opts:            newOptions(opts),
	}, nil
}

func (a *OAuth1) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.access != nil
}

// Authenticate runs the two-step handshake and replaces the stored access
// token and secret as one pair. A failed run leaves the previous pair intact.
func (a *OAuth1) Authenticate(ctx context.Context) error {
	requestToken, requestSecret, err := a.RequestToken(ctx)
	if err != nil {
		return err
	}

	token, secret, err := a.ExchangeForAccessToken(ctx, requestToken, requestSecret)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.access = &tokenPair{token: token, secret: secret}
	a.mu.Unlock()

	a.opts.logger.Debug().Str("scheme", SchemeOAuth1).Str("access_token_url", a.accessTokenURL).Msg("authenticated")
	return nil
}

// RequestToken obtains a temporary token with an out-of-band callback.
func (a *OAuth1) RequestToken(ctx context.Context) (token, secret string, err error) {
	params := a.oauthParams("")
	params.Set("oauth_callback", oauthCallbackOOB)
	return a.fetchToken(ctx, a.requestTokenURL, params, "")
}

// ExchangeForAccessToken trades a request token for access credentials,
// signing with the request-token secret.
func (a *OAuth1) ExchangeForAccessToken(ctx context.Context, requestToken, requestSecret string) (token, secret string, err error) {
	return a.fetchToken(ctx, a.accessTokenURL, a.oauthParams(requestToken), requestSecret)
}

func (a *OAuth1) fetchToken(ctx context.Context, endpoint string, oauth url.Values, tokenSecret string) (string, string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", &AuthenticationError{Scheme: SchemeOAuth1, Message: "invalid token endpoint", Err: err}
	}

	signing := mergeValues(oauth, u.Query())
	signature, err := computeSignature(a.method, signatureBaseString(http.MethodPost, u, signing), a.consumerSecret, tokenSecret)
	if err != nil {
		return "", "", err
	}
	oauth.Set("oauth_signature", signature)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", "", &AuthenticationError{Scheme: SchemeOAuth1, Message: "creating token request", Err: err}
	}
	req.Header.Set("Authorization", authorizationHeader(oauth))

	resp, err := a.opts.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		return "", "", &AuthenticationError{Scheme: SchemeOAuth1, Message: "token request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		return "", "", &AuthenticationError{Scheme: SchemeOAuth1, StatusCode: resp.StatusCode, Message: "reading token response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", &AuthenticationError{
			Scheme:     SchemeOAuth1,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Message:    "token endpoint returned a non-success status",
		}
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "", "", &AuthenticationError{Scheme: SchemeOAuth1, StatusCode: resp.StatusCode, Body: string(body), Message: "malformed token response", Err: err}
	}

	token, secret := values.Get("oauth_token"), values.Get("oauth_token_secret")
	if token == "" || secret == "" {
		return "", "", &AuthenticationError{
			Scheme:     SchemeOAuth1,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Message:    "token response is missing oauth_token or oauth_token_secret",
		}
	}
	return token, secret, nil
}

// Sign sets an OAuth Authorization header computed over the query parameters
// and, for form-encoded requests, the body fields. Each call uses a fresh
// nonce and timestamp. Unauthenticated instances leave the request untouched.
func (a *OAuth1) Sign(req *http.Request, query url.Values, body map[string]any) error {
	a.mu.RLock()
	access := a.access
	a.mu.RUnlock()

	if access == nil {
		return nil
	}

	oauth := a.oauthParams(access.token)
	signing := mergeValues(oauth, query)
	if isForm(req.Header.Get("Content-Type")) {
		for name, value := range body {
			s, err := request.Coerce(value)
			if err != nil {
				return fmt.Errorf("encoding body field %q for signing: %w", name, err)
			}
			signing.Add(name, s)
		}
	}

	signature, err := computeSignature(a.method, signatureBaseString(req.Method, req.URL, signing), a.consumerSecret, access.secret)
	if err != nil {
		return err
	}
	oauth.Set("oauth_signature", signature)

	req.Header.Set("Authorization", authorizationHeader(oauth))
	return nil
}

func (a *OAuth1) oauthParams(token string) url.Values {
	return url.Values{
		"oauth_consumer_key":     {a.consumerKey},
		"oauth_nonce":            {a.opts.nonce()},
		"oauth_signature_method": {string(a.method)},
		"oauth_timestamp":        {strconv.FormatInt(a.opts.now().Unix(), 10)},
		"oauth_token":            {token},
		"oauth_version":          {oauthVersion},
	}
}

func isForm(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == contentTypeForm
}

func mergeValues(sets ...url.Values) url.Values {
	merged := url.Values{}
	for _, set := range sets {
		for name, values := range set {
			merged[name] = append(merged[name], values...)
		}
	}
	return merged
}

// percentEncode applies RFC 3986 encoding: everything but unreserved
// characters is escaped and spaces become %20.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// signatureBaseString builds METHOD&url&params with the URL stripped of its
// query, fragment and default port, and the parameters sorted by encoded
// name, then value.
func signatureBaseString(method string, u *url.URL, params url.Values) string {
	scheme := strings.ToLower(u.Scheme)
	base := url.URL{
		Scheme:  scheme,
		Host:    baseHost(scheme, u),
		Path:    u.Path,
		RawPath: u.RawPath,
	}

	pairs := make([][2]string, 0, len(params))
	for name, values := range params {
		for _, value := range values {
			pairs = append(pairs, [2]string{percentEncode(name), percentEncode(value)})
		}
	}
	slices.SortFunc(pairs, func(x, y [2]string) int {
		if c := strings.Compare(x[0], y[0]); c != 0 {
			return c
		}
		return strings.Compare(x[1], y[1])
	})

	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = p[0] + "=" + p[1]
	}

	return strings.ToUpper(method) + "&" + percentEncode(base.String()) + "&" + percentEncode(strings.Join(encoded, "&"))
}

func baseHost(scheme string, u *url.URL) string {
	host := strings.ToLower(u.Host)
	switch port := u.Port(); {
	case scheme == "http" && port == "80", scheme == "https" && port == "443":
		return strings.TrimSuffix(host, ":"+port)
	}
	return host
}

func computeSignature(method SignatureMethod, baseString, consumerSecret, tokenSecret string) (string, error) {
	key := percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)

	var newHash func() hash.Hash
	switch method {
	case PlainText:
		return key, nil
	case HMACSHA1:
		newHash = sha1.New
	case HMACSHA256:
		newHash = sha256.New
	default:
		return "", fmt.Errorf("%w: oauth1 signature method %q", ErrNotSupported, method)
	}

	mac := hmac.New(newHash, []byte(key))
	mac.Write([]byte(baseString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// authorizationHeader renders OAuth k="v" pairs in name order.
func authorizationHeader(oauth url.Values) string {
	names := make([]string, 0, len(oauth))
	for name := range oauth {
		names = append(names, name)
	}
	slices.Sort(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf(`%s="%s"`, percentEncode(name), percentEncode(oauth.Get(name))))
	}
	return "OAuth " + strings.Join(pairs, ", ")
}
