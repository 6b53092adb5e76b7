package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderSource(t *testing.T, src string, props map[string]any) *Node {
	t.Helper()
	rt := newTestRuntime(t)
	mod, err := rt.Evaluate(context.Background(), "render.js", src, nil)
	require.NoError(t, err)
	node, err := rt.Render(context.Background(), mod, props)
	require.NoError(t, err)
	return node
}

func TestRenderJSXRuntimeAndHooks(t *testing.T) {
	src := `
var jsx = require('react/jsx-runtime');
var React = require('react');
var RN = require('react-native');
function Counter() {
  var state = React.useState(function () { return 3; });
  var ref = React.useRef(null);
  React.useEffect(function () { throw new Error('effects never run'); });
  return jsx.jsxs(RN.Text, { children: ['count ', state[0], ref.current === null ? '' : 'x'] });
}
exports.default = function () {
  return jsx.jsx(jsx.Fragment, { children: [jsx.jsx(Counter, {}), false, null] });
};
`
	node := renderSource(t, src, nil)

	assert.Equal(t, "Text", node.Type)
	require.Len(t, node.Children, 3)
	assert.Equal(t, "count ", node.Children[0].Text)
	assert.Equal(t, "3", node.Children[1].Text)
}

func TestRenderContextProvider(t *testing.T) {
	src := `
var React = require('react');
var Theme = React.createContext('light');
function Label() { return React.createElement('Text', null, React.useContext(Theme)); }
exports.default = function () {
  return React.createElement('View', null,
    React.createElement(Label),
    React.createElement(Theme.Provider, { value: 'dark' }, React.createElement(Label)));
};
`
	node := renderSource(t, src, nil)

	require.Len(t, node.Children, 2)
	assert.Equal(t, "light", node.Children[0].Children[0].Text)
	assert.Equal(t, "dark", node.Children[1].Children[0].Text)
}

func TestRenderNavigationInitialRoute(t *testing.T) {
	src := `
var React = require('react');
var nav = require('@react-navigation/native');
var Stack = require('@react-navigation/native-stack').createNativeStackNavigator();
function Home() { return React.createElement('Text', null, 'home'); }
function Details(props) {
  var route = nav.useRoute();
  return React.createElement('Text', { onPress: function () {} }, 'details ' + route.params.id);
}
exports.default = function () {
  return React.createElement(nav.NavigationContainer, null,
    React.createElement(Stack.Navigator, { initialRouteName: 'Details' },
      React.createElement(Stack.Screen, { name: 'Home', component: Home }),
      React.createElement(Stack.Screen, { name: 'Details', component: Details, initialParams: { id: 7 } })));
};
`
	node := renderSource(t, src, nil)

	assert.Equal(t, "NavigationContainer", node.Type)
	stack := node.Children[0]
	assert.Equal(t, "Stack.Navigator", stack.Type)
	assert.Equal(t, "Details", stack.Props["initialRouteName"])

	screen := stack.Children[0]
	assert.Equal(t, "Stack.Screen", screen.Type)
	text := screen.Children[0]
	assert.Equal(t, "[function]", text.Props["onPress"])
	assert.Equal(t, "details 7", text.Children[0].Text)
}

func TestRenderFlatListAndSafeArea(t *testing.T) {
	src := `
var React = require('react');
var RN = require('react-native');
var safe = require('react-native-safe-area-context');
exports.default = function (props) {
  var insets = safe.useSafeAreaInsets();
  return React.createElement(safe.SafeAreaProvider, null,
    React.createElement(RN.FlatList, {
      data: props.items,
      keyExtractor: function (i) { return i; },
      renderItem: function (info) { return React.createElement(RN.Text, { key: info.item }, info.item); },
      contentInset: insets.top
    }));
};
`
	node := renderSource(t, src, map[string]any{"items": []string{"a", "b"}})

	assert.Equal(t, "SafeAreaProvider", node.Type)
	list := node.Children[0]
	assert.Equal(t, "FlatList", list.Type)
	assert.Equal(t, float64(47), list.Props["contentInset"])
	require.Len(t, list.Children, 2)
	assert.Equal(t, "b", list.Children[1].Children[0].Text)
}

func TestRenderEmptyComponent(t *testing.T) {
	node := renderSource(t, `module.exports = function () { return null; };`, nil)
	assert.Equal(t, "Fragment", node.Type)
	assert.Empty(t, node.Children)
}

func TestRenderDepthGuard(t *testing.T) {
	rt, err := New(Config{MaxRenderDepth: 8})
	require.NoError(t, err)
	defer rt.Close()

	src := `
var React = require('react');
function Loop() { return React.createElement(Loop); }
module.exports = Loop;
`
	mod, err := rt.Evaluate(context.Background(), "loop.js", src, nil)
	require.NoError(t, err)

	_, err = rt.Render(context.Background(), mod, nil)
	assert.ErrorIs(t, err, ErrRenderFailed)
	assert.Contains(t, err.Error(), "render depth exceeded")
}

func TestRenderThrowingComponent(t *testing.T) {
	rt := newTestRuntime(t)
	mod, err := rt.Evaluate(context.Background(), "throw.js",
		`module.exports = function () { throw new Error('screen exploded'); };`, nil)
	require.NoError(t, err)

	_, err = rt.Render(context.Background(), mod, nil)
	assert.ErrorIs(t, err, ErrRenderFailed)
	assert.Contains(t, err.Error(), "screen exploded")
}
