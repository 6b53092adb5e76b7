package sandbox

import (
	"context"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Execution timeout per Run, zero disables it
	MaxCallStackSize int           // goja call stack limit
	MaxRenderDepth   int           // Nested element limit when rendering
	EnableConsole    bool          // Forward console.* to the logger
	Logger           *zap.Logger
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`   // log, info, warn, error
	Message string    `json:"message"` // Log message
	Time    time.Time `json:"time"`    // Timestamp
}

// Node is one element of a rendered component tree. Text nodes have Type
// "#text" and carry Text; host elements carry Props and Children.
type Node struct {
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Children []*Node        `json:"children,omitempty"`
	Text     string         `json:"text,omitempty"`
}

// Module is an evaluated entry module and the component it exports.
type Module struct {
	Name      string
	Exports   *goja.Object
	Component goja.Value
	rt        *Runtime
}

// RequireFunc resolves a specifier required by the module named from. It runs
// inside Run, so it may evaluate further modules through s.
type RequireFunc func(s *Scope, from, specifier string) (goja.Value, error)

// Evaluator is the execution boundary between the loader and the script
// engine. Callers only see source text in and a renderable module out.
type Evaluator interface {
	Evaluate(ctx context.Context, name, source string, require RequireFunc) (*Module, error)
	Render(ctx context.Context, m *Module, props map[string]any) (*Node, error)
	Console() []LogEntry
	Close() error
}

// DefaultConfig returns the runtime defaults. Bundle evaluation has no
// timeout unless one is configured.
func DefaultConfig() Config {
	return Config{
		MaxCallStackSize: 1024,
		MaxRenderDepth:   256,
		EnableConsole:    true,
	}
}
