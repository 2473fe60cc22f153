// Package padlock provides session and token based authentication for
// server rendered applications.
//
// Guard:
//   - A Guard is created per request with its collaborators: a SessionStore,
//     a CookieJar, a UserStore and optionally a PasswordVerifier and a
//     TokenGenerator. Check resolves the logged in user once and memoizes
//     the result for the rest of the request.
//   - The bearer token is read from the session first and from a signed
//     remember me cookie second. A cookie token is promoted into the
//     session. Tokens of unknown, banned or not activated users are purged.
//   - Login rotates the session identifier before storing the token, which
//     mitigates session fixation. Logout rotates it again.
//
// Login outcomes:
//   - Wrong credentials, banned users and users pending activation are
//     reported through LoginStatus (LoginIncorrect, LoginBanned,
//     LoginActivating), never as errors. Errors are reserved for invalid
//     usage (ErrConfigurationLocked, ErrInvalidRefinement) and collaborator
//     failures, which are returned unmodified.
//
// Configuration:
//   - The auth key and cookie options are fixed before the first check.
//     SetAuthKey, SetUserStore and SetCookieOptions return
//     ErrConfigurationLocked afterwards.
//
// Storage adapters live in the repository (bun), session (memory, redis)
// and web (net/http) packages.
package padlock
