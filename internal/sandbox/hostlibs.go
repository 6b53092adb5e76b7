package sandbox

// hostLibrariesSource builds the host libraries a bundle may require and the
// renderer that expands a component into plain element data. It evaluates to
// {modules, render} and defines no globals.
const hostLibrariesSource = `(function () {
  'use strict';

  var ELEMENT = '__element';
  var Fragment = { $$fragment: true };
  var contextStack = [];
  var idCounter = 0;

  function noop() {}

  function createElement(type, config) {
    var props = {};
    var key = null;
    if (config != null) {
      for (var k in config) {
        if (!Object.prototype.hasOwnProperty.call(config, k)) continue;
        if (k === 'key') { key = config[k]; continue; }
        props[k] = config[k];
      }
    }
    var n = arguments.length - 2;
    if (n === 1) props.children = arguments[2];
    else if (n > 1) props.children = Array.prototype.slice.call(arguments, 2);
    return { $$typeof: ELEMENT, type: type, key: key, props: props };
  }

  function jsx(type, config, key) {
    var el = createElement(type, config);
    if (key !== undefined) el.key = key;
    return el;
  }

  function isValidElement(v) {
    return v != null && typeof v === 'object' && v.$$typeof === ELEMENT;
  }

  function cloneElement(el, config) {
    var props = Object.assign({}, el.props, config || {});
    var n = arguments.length - 2;
    if (n === 1) props.children = arguments[2];
    else if (n > 1) props.children = Array.prototype.slice.call(arguments, 2);
    return { $$typeof: ELEMENT, type: el.type, key: el.key, props: props };
  }

  function toArray(children) {
    var out = [];
    (function walk(c) {
      if (c == null || typeof c === 'boolean') return;
      if (Array.isArray(c)) { c.forEach(walk); return; }
      out.push(c);
    })(children);
    return out;
  }

  function createContext(defaultValue) {
    var ctx = { _default: defaultValue };
    ctx.Provider = { $$provider: ctx };
    ctx.Consumer = { $$consumer: ctx };
    return ctx;
  }

  function readContext(ctx) {
    for (var i = contextStack.length - 1; i >= 0; i--) {
      if (contextStack[i].context === ctx) return contextStack[i].value;
    }
    return ctx._default;
  }

  function Component(props) { this.props = props; this.state = {}; }
  Component.prototype.isReactComponent = {};
  Component.prototype.setState = noop;
  Component.prototype.forceUpdate = noop;

  var React = {
    createElement: createElement,
    cloneElement: cloneElement,
    isValidElement: isValidElement,
    Fragment: Fragment,
    StrictMode: Fragment,
    Component: Component,
    PureComponent: Component,
    createContext: createContext,
    useContext: readContext,
    useState: function (init) { return [typeof init === 'function' ? init() : init, noop]; },
    useReducer: function (reducer, arg, init) { return [init ? init(arg) : arg, noop]; },
    useEffect: noop,
    useLayoutEffect: noop,
    useInsertionEffect: noop,
    useMemo: function (fn) { return fn(); },
    useCallback: function (fn) { return fn; },
    useRef: function (v) { return { current: v === undefined ? null : v }; },
    useId: function () { idCounter++; return ':r' + idCounter + ':'; },
    memo: function (c) { return c; },
    forwardRef: function (render) { return function (props) { return render(props, null); }; },
    Children: {
      toArray: toArray,
      count: function (c) { return toArray(c).length; },
      map: function (c, fn) { return toArray(c).map(fn); },
      forEach: function (c, fn) { toArray(c).forEach(fn); },
      only: function (c) {
        var arr = toArray(c);
        if (arr.length !== 1) throw new Error('React.Children.only expected one child');
        return arr[0];
      }
    }
  };
  React.default = React;

  var jsxRuntime = { jsx: jsx, jsxs: jsx, jsxDEV: jsx, Fragment: Fragment };

  var window = { width: 390, height: 844, scale: 3, fontScale: 1 };

  function flattenStyle(style) {
    if (!Array.isArray(style)) return style;
    var out = {};
    style.forEach(function (s) { if (s) Object.assign(out, flattenStyle(s)); });
    return out;
  }

  function FlatList(props) {
    var data = props.data || [];
    var items = data.map(function (item, index) {
      return props.renderItem ? props.renderItem({ item: item, index: index }) : null;
    });
    var rest = {};
    Object.keys(props).forEach(function (k) {
      if (k !== 'data' && k !== 'renderItem' && k !== 'keyExtractor' && k !== 'children') rest[k] = props[k];
    });
    rest.children = items;
    return createElement('FlatList', rest);
  }

  var ReactNative = {
    View: 'View',
    Text: 'Text',
    Image: 'Image',
    ImageBackground: 'ImageBackground',
    ScrollView: 'ScrollView',
    TextInput: 'TextInput',
    Pressable: 'Pressable',
    TouchableOpacity: 'TouchableOpacity',
    TouchableHighlight: 'TouchableHighlight',
    TouchableWithoutFeedback: 'TouchableWithoutFeedback',
    SafeAreaView: 'SafeAreaView',
    ActivityIndicator: 'ActivityIndicator',
    Button: 'Button',
    Switch: 'Switch',
    Modal: 'Modal',
    StatusBar: 'StatusBar',
    KeyboardAvoidingView: 'KeyboardAvoidingView',
    FlatList: FlatList,
    StyleSheet: {
      create: function (s) { return s; },
      flatten: flattenStyle,
      compose: function (a, b) { return [a, b]; },
      hairlineWidth: 1,
      absoluteFill: { position: 'absolute', top: 0, right: 0, bottom: 0, left: 0 }
    },
    Platform: {
      OS: 'ios',
      Version: '17.0',
      select: function (o) { return Object.prototype.hasOwnProperty.call(o, 'ios') ? o.ios : o.default; }
    },
    Dimensions: {
      get: function () { return Object.assign({}, window); },
      addEventListener: function () { return { remove: noop }; }
    },
    Alert: { alert: noop },
    Linking: { openURL: function () { return Promise.resolve(); } },
    Keyboard: { dismiss: noop },
    Animated: {
      View: 'Animated.View',
      Text: 'Animated.Text',
      Value: function (v) { this._value = v; },
      timing: function () { return { start: noop, stop: noop }; }
    },
    useColorScheme: function () { return 'light'; },
    useWindowDimensions: function () { return Object.assign({}, window); }
  };
  ReactNative.default = ReactNative;

  function makeNavigation() {
    return {
      navigate: noop, push: noop, pop: noop, goBack: noop, replace: noop, reset: noop,
      setOptions: noop, setParams: noop,
      canGoBack: function () { return false; },
      isFocused: function () { return true; },
      addListener: function () { return noop; }
    };
  }

  var NavigationContext = createContext(null);
  var RouteContext = createContext(null);

  var navigationNative = {
    NavigationContainer: function (props) {
      return createElement('NavigationContainer', null, props.children);
    },
    useNavigation: function () { return readContext(NavigationContext) || makeNavigation(); },
    useRoute: function () { return readContext(RouteContext) || { key: '', name: '', params: {} }; },
    useFocusEffect: noop,
    useIsFocused: function () { return true; },
    NavigationContext: NavigationContext,
    DefaultTheme: { dark: false, colors: {} },
    DarkTheme: { dark: true, colors: {} }
  };

  function createNativeStackNavigator() {
    function Screen() { return null; }
    function Group(props) { return props.children; }

    function collectScreens(children, out) {
      toArray(children).forEach(function (c) {
        if (!isValidElement(c)) return;
        if (c.type === Screen) out.push(c);
        else if (c.type === Group) collectScreens(c.props.children, out);
      });
      return out;
    }

    function Navigator(props) {
      var screens = collectScreens(props.children, []);
      if (screens.length === 0) return null;

      var chosen = screens[0];
      screens.forEach(function (s) {
        if (props.initialRouteName && s.props.name === props.initialRouteName) chosen = s;
      });

      var sp = chosen.props;
      var route = { key: sp.name, name: sp.name, params: sp.initialParams || {} };
      var navigation = makeNavigation();
      var screen = null;
      if (sp.component) screen = createElement(sp.component, { navigation: navigation, route: route });
      else if (typeof sp.children === 'function') screen = sp.children({ navigation: navigation, route: route });

      return createElement('Stack.Navigator', { initialRouteName: sp.name },
        createElement(NavigationContext.Provider, { value: navigation },
          createElement(RouteContext.Provider, { value: route },
            createElement('Stack.Screen', { name: sp.name }, screen))));
    }

    return { Navigator: Navigator, Screen: Screen, Group: Group };
  }

  var nativeStack = { createNativeStackNavigator: createNativeStackNavigator };

  var insets = { top: 47, right: 0, bottom: 34, left: 0 };
  var safeArea = {
    SafeAreaProvider: 'SafeAreaProvider',
    SafeAreaView: 'SafeAreaView',
    useSafeAreaInsets: function () { return Object.assign({}, insets); },
    useSafeAreaFrame: function () { return { x: 0, y: 0, width: window.width, height: window.height }; },
    initialWindowMetrics: { insets: insets, frame: { x: 0, y: 0, width: window.width, height: window.height } }
  };

  var screens = {
    enableScreens: noop,
    Screen: 'Screen',
    ScreenContainer: 'ScreenContainer'
  };

  function hostProps(props) {
    var out = null;
    Object.keys(props).forEach(function (k) {
      if (k === 'children') return;
      var v = props[k];
      if (typeof v === 'function') v = '[function]';
      else if (isValidElement(v)) v = '[element]';
      else if (k === 'style') v = flattenStyle(v);
      if (v === undefined) return;
      out = out || {};
      out[k] = v;
    });
    return out;
  }

  function expand(node, depth, max) {
    if (depth > max) throw new RangeError('render depth exceeded ' + max);
    if (node == null || typeof node === 'boolean') return [];
    if (typeof node === 'string' || typeof node === 'number') return [{ type: '#text', text: String(node) }];
    if (Array.isArray(node)) {
      var all = [];
      node.forEach(function (c) { all = all.concat(expand(c, depth, max)); });
      return all;
    }
    if (!isValidElement(node)) return [{ type: '#text', text: String(node) }];

    var type = node.type;
    var props = node.props || {};

    if (type === Fragment) return expand(props.children, depth + 1, max);
    if (typeof type === 'function') {
      if (type.prototype && type.prototype.isReactComponent) {
        var inst = new type(props);
        inst.props = props;
        return expand(inst.render(), depth + 1, max);
      }
      return expand(type(props), depth + 1, max);
    }
    if (type && type.$$provider) {
      contextStack.push({ context: type.$$provider, value: props.value });
      try {
        return expand(props.children, depth + 1, max);
      } finally {
        contextStack.pop();
      }
    }
    if (type && type.$$consumer) {
      var fn = props.children;
      return expand(typeof fn === 'function' ? fn(readContext(type.$$consumer)) : null, depth + 1, max);
    }
    if (typeof type === 'string') {
      var out = { type: type };
      var hp = hostProps(props);
      if (hp) out.props = hp;
      var children = expand(props.children, depth + 1, max);
      if (children.length) out.children = children;
      return [out];
    }
    throw new TypeError('invalid element type: ' + (type === null ? 'null' : typeof type));
  }

  function render(component, propsJSON, maxDepth) {
    contextStack = [];
    idCounter = 0;
    var out = expand(createElement(component, JSON.parse(propsJSON)), 0, maxDepth);
    var root = out.length === 1 ? out[0] : { type: 'Fragment', children: out };
    return JSON.stringify(root);
  }

  return {
    modules: {
      'react': React,
      'react/jsx-runtime': jsxRuntime,
      'react-native': ReactNative,
      '@react-navigation/native': navigationNative,
      '@react-navigation/native-stack': nativeStack,
      'react-native-safe-area-context': safeArea,
      'react-native-screens': screens
    },
    render: render
  };
})()`
