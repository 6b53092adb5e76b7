package utils

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/bytedance/sonic"
)

// Limits for values accepted from the host UI
const (
	MaxIDLength    = 128
	MaxPropsSize   = 64 * 1024 // 64KB - encoded prop patch
	MaxPropsDepth  = 16
	MaxRequestSize = 1 * 1024 * 1024 // 1MB - any request body
)

// SafeIDPattern allows alphanumeric, hyphens, underscores and dots
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ErrInvalidInput is matched by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// ValidateID checks an app id taken from a URL or request body
func ValidateID(id, field string) error {
	if id == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidInput, field, MaxIDLength)
	}
	if !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %s contains invalid characters", ErrInvalidInput, field)
	}
	return nil
}

// ValidateProps bounds the encoded size and nesting depth of a prop patch.
// Props are handed to a sandboxed component, so they stay plain JSON.
func ValidateProps(props map[string]any) error {
	data, err := sonic.Marshal(props)
	if err != nil {
		return fmt.Errorf("%w: props are not JSON: %v", ErrInvalidInput, err)
	}
	if len(data) > MaxPropsSize {
		return fmt.Errorf("%w: props size %d bytes exceeds maximum %d bytes", ErrInvalidInput, len(data), MaxPropsSize)
	}
	return ValidateJSONDepth(props, MaxPropsDepth)
}

// ValidateJSONDepth checks if JSON nesting depth is within limits
func ValidateJSONDepth(data any, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data any, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("%w: JSON nesting depth %d exceeds maximum %d", ErrInvalidInput, currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]any:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []any:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}
