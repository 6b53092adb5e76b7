package registry

import "errors"

var (
	// ErrUnknownApp is returned for ids absent from the latest manifest.
	ErrUnknownApp = errors.New("unknown app")
	// ErrStaleLoad is returned when a load finished after the state it was
	// launched against was reset or the app left the manifest.
	ErrStaleLoad = errors.New("load discarded: registry changed while loading")
	// ErrStaleRefresh is returned when a later-launched refresh already won.
	ErrStaleRefresh = errors.New("refresh discarded: superseded")
	// ErrEmptyToken is returned by Authenticate without a token.
	ErrEmptyToken = errors.New("auth token is empty")
)
