package sandbox

import (
	"github.com/dop251/goja"
)

// DependencyNames is the closed allow-list of modules a bundle may require.
var DependencyNames = []string{
	"react",
	"react/jsx-runtime",
	"react-native",
	"@react-navigation/native",
	"@react-navigation/native-stack",
	"react-native-safe-area-context",
	"react-native-screens",
}

// Resolver maps allow-listed module names to host library instances living
// in one runtime.
type Resolver struct {
	libs map[string]goja.Value
}

// Resolve returns the host library for name or an *UnknownDependencyError.
func (d *Resolver) Resolve(name string) (goja.Value, error) {
	if d != nil {
		if lib, ok := d.libs[name]; ok {
			return lib, nil
		}
	}
	return nil, &UnknownDependencyError{Name: name}
}
