// Package web wires padlock guards into net/http handlers.
//
// Middleware starts the session for each request, builds a padlock.Guard
// over it and commits the session before the response is written.
// CookieJar adapts request and response cookies to padlock.CookieJar.
package web
