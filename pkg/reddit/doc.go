// Package reddit is a minimal Reddit API client for subreddit moderators.
//
// An Authenticator performs the OAuth2 password grant for a script app and
// yields a Session, which can replace the subreddit stylesheet and write wiki
// pages. Failures are reported as syncerr errors: auth for credential
// rejection, api for rejected writes and network for transport problems.
package reddit
