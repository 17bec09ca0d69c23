// Package server provides the local HTTP infrastructure for the Trakt OAuth
// login flow.
//
// The [Router] interface defines HTTP routing with middleware support;
// [Middleware] wraps handlers in reverse order (last added executes first).
// [BasicRouter] implements it over [http.ServeMux] with method filtering.
//
// [OAuthHandler] implements the authorization-code callback: it validates the
// state parameter (CSRF protection), exchanges the code for tokens, and sends
// the result through a channel. Only one callback is processed per flow.
//
// During `tsync auth login` a temporary server starts on the configured
// host and port, handles the callback, and shuts down once a token arrives.
package server
