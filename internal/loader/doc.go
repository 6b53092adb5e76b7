// Package loader turns manifest entries into renderable micro-apps.
//
// Load fetches the entry bundle, evaluates it in a fresh sandbox runtime and
// extracts its component. Relative requires ("./x", "../x") are resolved
// against the requiring module's URL, probed for an extension when they have
// none, fetched and evaluated once per load. A module cache private to each
// Load call breaks circular imports by handing back an empty object.
//
// A relative import that cannot be fetched or evaluated is replaced by a stub
// whose exports render nothing. Stubs are logged, counted and listed in
// App.Degraded so a silently empty screen can be traced.
package loader
