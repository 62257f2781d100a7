// Package middleware holds the inbound wrappers shared by every route:
// request ids, access logging and CORS. None of them read the query string
// or body, so they cannot change what the relay returns.
package middleware
