// Package provider implements the REST client for the remote calendar
// service, along with the wire types and error taxonomy shared by every
// remote-facing component.
//
// All remote calls go through Client.Call, which attaches the current
// bearer token and applies the single retry policy: a 401 triggers exactly
// one silent re-authentication and one retry; a second 401 is definitive
// and demotes the session. Other failures map onto the typed errors in
// this package (NotFoundError, RemoteError, AuthError) and are never
// retried here.
package provider
