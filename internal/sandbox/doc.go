/*
Package sandbox evaluates micro-app bundles in isolated goja runtimes.

# Overview

Each loaded micro-app owns one Runtime. A runtime is created with the host
libraries already instantiated inside it, because goja values cannot cross
VMs. Bundle source is evaluated as the body of

	function (module, exports, require) { ... }

so a bundle sees exactly three injected bindings. The global require,
module, exports and process names are undefined.

# Dependencies

require resolves only the names in DependencyNames:

  - react, react/jsx-runtime
  - react-native
  - @react-navigation/native, @react-navigation/native-stack
  - react-native-safe-area-context, react-native-screens

Any other name fails with an *UnknownDependencyError. The failure sticks to
the module even if bundle code catches the thrown error.

# Rendering

The host libraries are a minimal element model, not a UI framework. Render
invokes a component with props and expands nested components into a tree of
host elements (View, Text, ...) that the host UI draws. Hooks return their
initial values; effects never run. A native stack navigator renders its
initial route.

# Execution limits

Run serialises access to the VM and interrupts it when the context is
cancelled or Config.Timeout elapses. With a zero timeout evaluation runs to
completion. Bundle code runs with the trust of a first-party build artifact.
*/
package sandbox
