// Package manifest models the micro-app registry document and fetches it.
//
// A manifest is published in two variants:
//
//   - full (manifest.json): every app, served to authenticated sessions
//   - public (public-manifest.json): only apps that do not require auth
//
// The full variant is a superset of the public one; FilterPublic reproduces
// the publisher's partition from a full document and CheckPartition reports a
// producer that broke it.
//
// Fetcher walks an ordered list of candidate URLs and returns the first
// document that both downloads and parses. When every candidate fails the
// error wraps ErrManifestUnavailable and the caller must treat the registry
// as empty. Base URLs with the file:// scheme read local documents, which may
// contain comments.
package manifest
