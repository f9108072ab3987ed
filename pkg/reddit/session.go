package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"subsync/pkg/syncerr"
)

const (
	opPushStylesheet = "push stylesheet"
	opWriteWikiPage  = "write wiki page"

	maxResponseBytes = 1 << 20
)

// Session is an authenticated Reddit API session. It holds a single access
// token and is not refreshed in place.
type Session struct {
	token  *oauth2.Token
	client *http.Client
	apiURL string
}

// Valid reports whether the session's token is present and unexpired
func (s *Session) Valid() bool {
	return s != nil && s.token.Valid()
}

// Expiry returns when the access token expires, or the zero time if it never does
func (s *Session) Expiry() time.Time {
	if s == nil || s.token == nil {
		return time.Time{}
	}
	return s.token.Expiry
}

// PushStylesheet replaces the subreddit stylesheet with content
func (s *Session) PushStylesheet(ctx context.Context, subreddit string, content []byte) error {
	form := url.Values{
		"api_type":            {"json"},
		"op":                  {"save"},
		"reason":              {""},
		"stylesheet_contents": {string(content)},
	}
	return s.post(ctx, opPushStylesheet, fmt.Sprintf("/r/%s/api/subreddit_stylesheet", url.PathEscape(subreddit)), form)
}

// WriteWikiPage replaces the content of a subreddit wiki page
func (s *Session) WriteWikiPage(ctx context.Context, subreddit, page string, content []byte, reason string) error {
	form := url.Values{
		"content": {string(content)},
		"page":    {page},
		"reason":  {reason},
	}
	return s.post(ctx, opWriteWikiPage, fmt.Sprintf("/r/%s/api/wiki/edit", url.PathEscape(subreddit)), form)
}

// apiResponse covers the error shapes Reddit returns for both endpoints
type apiResponse struct {
	JSON *struct {
		Errors [][]interface{} `json:"errors"`
	} `json:"json"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (s *Session) post(ctx context.Context, op, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(s.apiURL, "/")+path, strings.NewReader(form.Encode()))
	if err != nil {
		return syncerr.New(syncerr.TypeAPI, op, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return syncerr.Network(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return syncerr.Network(op, err)
	}

	var parsed apiResponse
	parseErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return syncerr.API(op, resp.StatusCode, describeFailure(resp, parsed, parseErr))
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if parseErr != nil {
		return syncerr.Malformed(op, "response is not JSON", parseErr)
	}
	if parsed.JSON != nil && len(parsed.JSON.Errors) > 0 {
		return syncerr.API(op, resp.StatusCode, formatErrors(parsed.JSON.Errors))
	}

	return nil
}

func describeFailure(resp *http.Response, parsed apiResponse, parseErr error) string {
	msg := http.StatusText(resp.StatusCode)
	if parseErr == nil {
		switch {
		case parsed.JSON != nil && len(parsed.JSON.Errors) > 0:
			msg = formatErrors(parsed.JSON.Errors)
		case parsed.Reason != "":
			msg = parsed.Reason
		case parsed.Message != "":
			msg = parsed.Message
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Sprintf("access token rejected: %s", msg)
	case http.StatusForbidden:
		return fmt.Sprintf("permission denied, the bot must moderate the subreddit with config and wiki permissions: %s", msg)
	case http.StatusTooManyRequests:
		if reset := resp.Header.Get("X-Ratelimit-Reset"); reset != "" {
			return fmt.Sprintf("rate limited, resets in %s seconds", reset)
		}
		return "rate limited"
	default:
		return fmt.Sprintf("%d: %s", resp.StatusCode, msg)
	}
}

// formatErrors renders Reddit's [code, message, field] error triples
func formatErrors(errs [][]interface{}) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		fields := make([]string, 0, len(e))
		for _, f := range e {
			if f == nil {
				continue
			}
			fields = append(fields, fmt.Sprint(f))
		}
		parts = append(parts, strings.Join(fields, ": "))
	}
	return strings.Join(parts, "; ")
}
