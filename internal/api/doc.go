// Package api provides HTTP client functionality for communicating with the
// mail.tm REST API. It owns the persistent HTTP session, the bearer token and
// request/response serialization.
//
// # Client Creation
//
// The package provides two ways to create a client:
//
//   - [NewClient]: Struct-based configuration for explicit, type-safe setup.
//   - [New]: Functional options pattern for flexible configuration.
//
// Both default to https://api.mail.tm. Every request carries the headers
// User-Agent, Accept: application/json and Content-Type: application/json.
// Once a token is set with [Client.SetToken], every following request carries
// "Authorization: Bearer <token>".
//
// # Failure Behavior
//
// Requests are never retried. A non-2xx status is returned as
// *apierrors.APIError and a transport failure as *apierrors.NetworkError.
//
// # Collections
//
// GET /domains and GET /messages may answer with a bare array or a Hydra
// envelope. The endpoints return the raw body; [DecodeMembers] and
// [CountMembers] normalize it.
//
// # Observability
//
// [Config.Logger] receives one debug event per request. [Config.Debug] also
// enables resty's request/response dumps, which include the Authorization
// header; do not enable it where logs are shared. [Config.Registerer] exports
// the counter mailtm_client_requests_total and the histogram
// mailtm_client_request_duration_seconds.
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use. Multiple goroutines may call
// methods on a single Client simultaneously.
package api
