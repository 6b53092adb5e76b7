// Package http exposes the registry state to the host UI as a JSON API.
//
// Load and render failures are answered with the underlying error message in
// an "error" field so the host can show it inside the failing app's error
// boundary while the rest of the shell keeps working.
package http
