// Package github reports the newest commit of a GitHub repository.
//
// It wraps the go-github REST client, optionally authenticated with a token,
// and classifies every failure into the syncerr taxonomy so callers can decide
// whether to advance their sync state.
package github
