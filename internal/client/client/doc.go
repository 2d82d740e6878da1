// Package client talks to the university REST API.
//
// # Overview
//
// Client is the transport contract used by the services; HTTPClient is its
// net/http implementation. Credentials are attached by an Authorizer
// (bearer header by default, cookies as the alternative), so nothing above
// the token store depends on how the credential travels.
//
// # Error Handling
//
// Every failure is an *APIError that matches one sentinel with errors.Is:
// ErrUnavailable (no response, timeout), ErrUnauthorized (401),
// ErrValidation (other 4xx), ErrConflict (409 or a unique-set 400),
// ErrServer (5xx) or ErrUnknown. Network errors also unwrap to their cause,
// so context.DeadlineExceeded stays matchable. The client never retries.
//
// # Lists
//
// Collection endpoints may answer with a raw array or a {"results": [...]}
// envelope. NormalizeList is the one place that tells them apart.
package client
