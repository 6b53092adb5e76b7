package loader

import (
	"errors"

	"github.com/GriffinCanCode/SuperApp/backend/internal/sandbox"
)

var (
	// ErrBundleFetchFailed wraps failures to download an entry bundle.
	ErrBundleFetchFailed = errors.New("bundle fetch failed")
	// ErrBundleNotAllowed is returned for bundle URLs outside the allow patterns.
	ErrBundleNotAllowed = errors.New("bundle URL not allowed")
	// ErrRelativeImportFailed is the cause recorded for a stubbed relative import.
	ErrRelativeImportFailed = errors.New("relative import failed")

	ErrUnknownDependency      = sandbox.ErrUnknownDependency
	ErrInvalidComponentExport = sandbox.ErrInvalidComponentExport
)
