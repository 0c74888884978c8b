// Package clickup implements driven.SourceConnector against the ClickUp v2 API.
//
// Tasks are read from a list, a folder, a space, or discovered across a
// workspace. Explicit scopes return every task; discovery keeps only tasks
// whose name or description matches a playbook keyword and stops once the
// item limit is reached.
//
// Requests are throttled twice: a token bucket smooths bursts, and the
// shared fixed-window quota under the "clickup-api" key caps the total per
// window. A 429 response sets a backoff from Retry-After or the
// X-RateLimit-Reset header.
package clickup
