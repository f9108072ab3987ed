package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-github/v66/github"

	"subsync/pkg/syncerr"
)

// WrapGitHubError classifies a go-github error. Undecodable payloads are
// malformed responses; transport failures and non-2xx statuses are network errors.
func WrapGitHubError(err error, resource string) *syncerr.Error {
	if err == nil {
		return nil
	}

	var classified *syncerr.Error
	if errors.As(err, &classified) {
		return classified
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return syncerr.Malformed(opLatestCommit, fmt.Sprintf("unexpected payload for %s", resource), err)
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		e := syncerr.New(syncerr.TypeNetwork, opLatestCommit,
			fmt.Sprintf("rate limit exceeded for %s, resets at %v", resource, rateErr.Rate.Reset.Time), err)
		e.StatusCode = statusOf(rateErr.Response)
		return e
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		e := syncerr.New(syncerr.TypeNetwork, opLatestCommit,
			fmt.Sprintf("secondary rate limit hit for %s", resource), err)
		e.StatusCode = statusOf(abuseErr.Response)
		return e
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		status := statusOf(respErr.Response)
		e := syncerr.New(syncerr.TypeNetwork, opLatestCommit, describeStatus(status, resource), err)
		e.StatusCode = status
		return e
	}

	return syncerr.New(syncerr.TypeNetwork, opLatestCommit, fmt.Sprintf("request for %s failed", resource), err)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func describeStatus(status int, resource string) string {
	switch status {
	case http.StatusUnauthorized:
		return fmt.Sprintf("GitHub rejected the token while reading %s", resource)
	case http.StatusNotFound:
		return fmt.Sprintf("%s not found, check github_owner and github_repo", resource)
	case http.StatusConflict:
		return fmt.Sprintf("%s has no commits", resource)
	default:
		return fmt.Sprintf("GitHub returned %d for %s", status, resource)
	}
}
