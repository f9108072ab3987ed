package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"subsync/pkg/syncerr"
)

const (
	// DefaultTokenURL is Reddit's OAuth2 token endpoint
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	// DefaultAPIURL is the root for OAuth-authenticated API calls
	DefaultAPIURL = "https://oauth.reddit.com"

	defaultTimeout = 30 * time.Second
	opAuthenticate = "authenticate"
)

// Scopes are the OAuth2 scopes required to edit stylesheets and wiki pages
var Scopes = []string{"modconfig", "modwiki", "wikiread", "wikiedit"}

// Credentials identify the bot account and its registered script app
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	// UserAgent is mandatory for every Reddit request
	UserAgent   string
	RedirectURI string
}

// Authenticator obtains sessions through the OAuth2 password grant
type Authenticator struct {
	creds   Credentials
	oauth   *oauth2.Config
	apiURL  string
	base    http.RoundTripper
	timeout time.Duration
}

// Option customizes an Authenticator
type Option func(*Authenticator)

// WithTokenURL overrides the token endpoint
func WithTokenURL(tokenURL string) Option {
	return func(a *Authenticator) {
		a.oauth.Endpoint.TokenURL = tokenURL
	}
}

// WithAPIURL overrides the API root used by sessions
func WithAPIURL(apiURL string) Option {
	return func(a *Authenticator) {
		a.apiURL = apiURL
	}
}

// WithTransport sets the base transport for token and API requests
func WithTransport(rt http.RoundTripper) Option {
	return func(a *Authenticator) {
		a.base = rt
	}
}

// WithTimeout bounds each HTTP request
func WithTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		a.timeout = d
	}
}

// NewAuthenticator creates an authenticator for the given credentials
func NewAuthenticator(creds Credentials, opts ...Option) *Authenticator {
	a := &Authenticator{
		creds: creds,
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				TokenURL:  DefaultTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiURL:  DefaultAPIURL,
		base:    http.DefaultTransport,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Authenticate exchanges the bot's username and password for an access token
func (a *Authenticator) Authenticate(ctx context.Context) (*Session, error) {
	if a.creds.UserAgent == "" {
		return nil, syncerr.Auth(opAuthenticate, "a User-Agent is required by the Reddit API", nil)
	}

	transport := &userAgentTransport{userAgent: a.creds.UserAgent, base: a.base}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Transport: transport,
		Timeout:   a.timeout,
	})

	token, err := a.oauth.PasswordCredentialsToken(tokenCtx, a.creds.Username, a.creds.Password)
	if err != nil {
		return nil, classifyAuthError(err)
	}

	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   transport,
		},
		Timeout: a.timeout,
	}

	return &Session{
		token:  token,
		client: client,
		apiURL: a.apiURL,
	}, nil
}

// userAgentTransport stamps every request with the bot's User-Agent
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

func classifyAuthError(err error) *syncerr.Error {
	if isNetworkError(err) {
		return syncerr.Network(opAuthenticate, err)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		msg := "Reddit rejected the credentials"
		if retrieveErr.ErrorCode != "" {
			msg = fmt.Sprintf("Reddit rejected the credentials (%s)", retrieveErr.ErrorCode)
		}
		e := syncerr.Auth(opAuthenticate, msg, err)
		if retrieveErr.Response != nil {
			e.StatusCode = retrieveErr.Response.StatusCode
		}
		return e
	}

	return syncerr.Auth(opAuthenticate, "token request failed", err)
}
