// Package google provides OAuth2 authentication and token management for the
// Gmail API.
//
// Tokens are cached per account under the user cache directory
// (~/.cache/autoreply/google-<account>.token). The auth flow is the
// out-of-band code flow: the auth command prints a URL, the operator pastes
// the resulting code back, and the exchanged token is persisted.
package google
