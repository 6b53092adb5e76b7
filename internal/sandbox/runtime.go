package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Runtime wraps one goja VM together with the host libraries instantiated in it.
// A runtime is owned by a single loaded app for its whole lifetime.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	log    *zap.Logger
	mu     sync.Mutex
	closed bool

	deps      *Resolver
	render    goja.Callable
	interrupt func(v any) // vm.Interrupt, safe without mu

	// Console output
	console   []LogEntry
	consoleMu sync.Mutex
}

// New creates a sandboxed runtime with the host libraries loaded
func New(config Config) (*Runtime, error) {
	if config.MaxRenderDepth <= 0 {
		config.MaxRenderDepth = DefaultConfig().MaxRenderDepth
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	vm := goja.New()
	if config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}

	r := &Runtime{
		vm:      vm,
		config:  config,
		log:     log,
		console: []LogEntry{},
	}
	r.interrupt = vm.Interrupt

	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	if err := r.loadHostLibraries(); err != nil {
		return nil, fmt.Errorf("failed to load host libraries: %w", err)
	}

	return r, nil
}

// Run executes fn with exclusive access to the VM. The VM is interrupted when
// ctx is cancelled or the configured timeout elapses.
func (r *Runtime) Run(ctx context.Context, fn func(*Scope) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRuntimeClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var timeout <-chan time.Time
	if r.config.Timeout > 0 {
		timer := time.NewTimer(r.config.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-timeout:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	err := fn(&Scope{r: r})
	close(done)
	<-stopped
	r.vm.ClearInterrupt()

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%w: %v", ErrInterrupted, interrupted.Value())
	}
	return err
}

// Evaluate runs source as an entry module and extracts its component.
func (r *Runtime) Evaluate(ctx context.Context, name, source string, require RequireFunc) (*Module, error) {
	var mod *Module
	err := r.Run(ctx, func(s *Scope) error {
		exports, err := s.EvaluateModule(name, source, require)
		if err != nil {
			return err
		}
		component, err := s.Component(exports)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		mod = &Module{Name: name, Exports: exports, Component: component, rt: r}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mod, nil
}

// Render invokes the module's component with props and returns the element tree.
func (r *Runtime) Render(ctx context.Context, m *Module, props map[string]any) (*Node, error) {
	if m == nil || m.rt != r {
		return nil, ErrForeignModule
	}
	var node *Node
	err := r.Run(ctx, func(s *Scope) error {
		var err error
		node, err = s.Render(m.Component, props)
		return err
	})
	return node, err
}

// Console returns a copy of the captured console output.
func (r *Runtime) Console() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	return append([]LogEntry(nil), r.console...)
}

// Close releases the VM. A run in progress is interrupted first; further
// runs fail with ErrRuntimeClosed.
func (r *Runtime) Close() error {
	r.interrupt("runtime closed")

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.vm = nil
	r.deps = nil
	r.render = nil
	return nil
}

// setupGlobals removes module-system globals so bundles only see what their
// module wrapper injects
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}
	if err := r.vm.Set("__DEV__", false); err != nil {
		return err
	}

	console := r.vm.NewObject()
	for _, level := range []string{"log", "info", "debug", "warn", "error"} {
		if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
			return err
		}
	}
	if err := r.vm.Set("console", console); err != nil {
		return err
	}

	// Timers never fire; a render is a single synchronous pass.
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval", "requestAnimationFrame"} {
		if err := r.vm.Set(name, noop); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: msg,
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		if r.config.EnableConsole {
			fields := []zap.Field{zap.String("source", "bundle"), zap.String("message", msg)}
			switch level {
			case "warn":
				r.log.Warn("Bundle console warning", fields...)
			case "error":
				r.log.Error("Bundle console error", fields...)
			default:
				r.log.Debug("Bundle console output", fields...)
			}
		}
		return goja.Undefined()
	}
}

func (r *Runtime) loadHostLibraries() error {
	val, err := r.vm.RunScript("host-libraries.js", hostLibrariesSource)
	if err != nil {
		return err
	}
	host := val.ToObject(r.vm)

	modules := host.Get("modules").ToObject(r.vm)
	libs := make(map[string]goja.Value, len(DependencyNames))
	for _, name := range DependencyNames {
		lib := modules.Get(name)
		if lib == nil || goja.IsUndefined(lib) {
			return fmt.Errorf("host library %q is missing", name)
		}
		libs[name] = lib
	}
	r.deps = &Resolver{libs: libs}

	render, ok := goja.AssertFunction(host.Get("render"))
	if !ok {
		return errors.New("host renderer is not a function")
	}
	r.render = render
	return nil
}

// Scope is the view of a runtime inside Run. It must not escape fn.
type Scope struct {
	r *Runtime
}

// VM exposes the underlying runtime for building values.
func (s *Scope) VM() *goja.Runtime {
	return s.r.vm
}

// Resolve looks a host library up in the allow-list.
func (s *Scope) Resolve(name string) (goja.Value, error) {
	return s.r.deps.Resolve(name)
}

// EvaluateModule runs source as the body of function(module, exports, require)
// and returns the final module.exports. A require of an unknown dependency
// fails the module even when the script catches the thrown error.
func (s *Scope) EvaluateModule(name, source string, require RequireFunc) (*goja.Object, error) {
	vm := s.r.vm
	if require == nil {
		require = func(s *Scope, _, specifier string) (goja.Value, error) {
			return s.Resolve(specifier)
		}
	}

	prog, err := goja.Compile(name, "(function (module, exports, require) {\n"+source+"\n})", false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	wrapper, err := vm.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	call, ok := goja.AssertFunction(wrapper)
	if !ok {
		return nil, fmt.Errorf("compile %s: module wrapper is not callable", name)
	}

	module := vm.NewObject()
	exports := vm.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	if err := module.Set("id", name); err != nil {
		return nil, err
	}

	var depErr error
	requireFn := func(fc goja.FunctionCall) goja.Value {
		specifier := fc.Argument(0).String()
		val, err := require(s, name, specifier)
		if err != nil {
			if depErr == nil && errors.Is(err, ErrUnknownDependency) {
				depErr = err
			}
			panic(vm.NewGoError(err))
		}
		return val
	}

	_, err = call(goja.Undefined(), module, exports, vm.ToValue(requireFn))
	if depErr != nil {
		return nil, fmt.Errorf("evaluate %s: %w", name, depErr)
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", name, err)
	}

	final := module.Get("exports")
	if final == nil || goja.IsUndefined(final) || goja.IsNull(final) {
		return vm.NewObject(), nil
	}
	return final.ToObject(vm), nil
}

// Component picks the component handle from a module's exports: the default
// export, else the first enumerable export.
func (s *Scope) Component(exports *goja.Object) (goja.Value, error) {
	if exports == nil {
		return nil, ErrInvalidComponentExport
	}
	if _, ok := goja.AssertFunction(exports); ok {
		return exports, nil
	}

	candidate := exports.Get("default")
	if isMissing(candidate) {
		candidate = nil
		for _, key := range exports.Keys() {
			if key == "__esModule" {
				continue
			}
			candidate = exports.Get(key)
			break
		}
	}
	if isMissing(candidate) {
		return nil, fmt.Errorf("%w: exports are empty", ErrInvalidComponentExport)
	}
	if _, ok := goja.AssertFunction(candidate); !ok {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidComponentExport, candidate.ExportType())
	}
	return candidate, nil
}

// NoopComponent returns a component that renders nothing.
func (s *Scope) NoopComponent() goja.Value {
	return s.r.vm.ToValue(func(goja.FunctionCall) goja.Value { return goja.Null() })
}

// Render invokes component with props and expands the result into host elements.
func (s *Scope) Render(component goja.Value, props map[string]any) (*Node, error) {
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := sonic.ConfigStd.MarshalToString(props)
	if err != nil {
		return nil, fmt.Errorf("encode props: %w", err)
	}

	vm := s.r.vm
	out, err := s.r.render(goja.Undefined(), component, vm.ToValue(propsJSON), vm.ToValue(s.r.config.MaxRenderDepth))
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	var node Node
	if err := sonic.ConfigStd.UnmarshalFromString(out.String(), &node); err != nil {
		return nil, fmt.Errorf("%w: decode tree: %v", ErrRenderFailed, err)
	}
	return &node, nil
}

func isMissing(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
