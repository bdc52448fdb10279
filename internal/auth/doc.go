// Package auth manages the remote session: interactive sign-in flows,
// credential persistence, silent refresh with a shared in-flight guard,
// and the fallback into local simulation when the remote provider cannot
// be reached with valid credentials.
package auth
