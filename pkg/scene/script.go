package scene

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// RunScript evaluates a scene script. Scripts build nodes with
//
//	box(style | {style, name, rowspan, colspan, span}, ...children)
//	text(style, str)
//	image(style, src)
//	viewport(width, height)
//
// and the value of the last expression is the root node. String children of
// box are text nodes with no style. Cancelling ctx interrupts the script.
func RunScript(ctx context.Context, name, src string, logger *zap.Logger) (*Scene, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := newEngine(logger.With(zap.String("script", name)))

	stop := context.AfterFunc(ctx, func() { e.vm.Interrupt(ctx.Err()) })
	defer stop()

	v, err := e.vm.RunScript(name, src)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return nil, fmt.Errorf("script interrupted: %w", cause)
			}
		}
		return nil, fmt.Errorf("script: %w", err)
	}

	root, ok := exportNode(v)
	if !ok {
		return nil, fmt.Errorf("%w: script returned %s", ErrNoRoot, describe(v))
	}
	e.scene.Root = root
	return e.scene, nil
}

type engine struct {
	vm    *goja.Runtime
	scene *Scene
}

func newEngine(logger *zap.Logger) *engine {
	e := &engine{vm: goja.New(), scene: &Scene{}}
	(&consoleAPI{logger: logger}).register(e.vm)
	e.set("box", e.box)
	e.set("text", e.text)
	e.set("image", e.image)
	e.set("viewport", e.viewport)
	return e
}

func (e *engine) set(name string, fn func(goja.FunctionCall) goja.Value) {
	if err := e.vm.Set(name, fn); err != nil {
		panic(err)
	}
}

func (e *engine) box(call goja.FunctionCall) goja.Value {
	n := e.options(call.Argument(0))
	for _, arg := range call.Arguments[min(1, len(call.Arguments)):] {
		e.appendChildren(n, arg)
	}
	return e.vm.ToValue(n)
}

func (e *engine) text(call goja.FunctionCall) goja.Value {
	n := e.options(call.Argument(0))
	n.Text = call.Argument(1).String()
	return e.vm.ToValue(n)
}

func (e *engine) image(call goja.FunctionCall) goja.Value {
	n := e.options(call.Argument(0))
	if goja.IsUndefined(call.Argument(1)) {
		panic(e.vm.NewTypeError("image: missing source"))
	}
	n.Image = call.Argument(1).String()
	return e.vm.ToValue(n)
}

func (e *engine) viewport(call goja.FunctionCall) goja.Value {
	w, h := call.Argument(0).ToFloat(), call.Argument(1).ToFloat()
	if !(w > 0 && h > 0) {
		panic(e.vm.NewTypeError("viewport: width and height must be positive"))
	}
	e.scene.Viewport = Viewport{Width: w, Height: h}
	return goja.Undefined()
}

// options reads the first argument of a node constructor: a style string or
// an object of node attributes.
func (e *engine) options(v goja.Value) *Node {
	n := &Node{}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return n
	}
	switch o := v.Export().(type) {
	case string:
		n.Style = o
	case map[string]any:
		for k, val := range o {
			switch k {
			case "style":
				n.Style = fmt.Sprint(val)
			case "name":
				n.Name = fmt.Sprint(val)
			case "rowspan":
				span := e.toInt(k, val)
				n.RowSpan = &span
			case "colspan":
				n.ColSpan = e.toInt(k, val)
			case "span":
				n.Span = e.toInt(k, val)
			default:
				panic(e.vm.NewTypeError("unknown node option %q", k))
			}
		}
	default:
		panic(e.vm.NewTypeError("node options must be a string or object, got %s", describe(v)))
	}
	return n
}

func (e *engine) toInt(key string, v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	panic(e.vm.NewTypeError("%s must be an integer", key))
}

func (e *engine) appendChildren(n *Node, v goja.Value) {
	if c, ok := exportNode(v); ok {
		n.Children = append(n.Children, c)
		return
	}
	switch o := v.Export().(type) {
	case string:
		n.Children = append(n.Children, &Node{Text: o})
	case []any:
		for _, item := range o {
			e.appendChildren(n, e.vm.ToValue(item))
		}
	default:
		panic(e.vm.NewTypeError("box children must be nodes or strings, got %s", describe(v)))
	}
}

func exportNode(v goja.Value) (*Node, bool) {
	if v == nil {
		return nil, false
	}
	n, ok := v.Export().(*Node)
	return n, ok && n != nil
}

func describe(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	return fmt.Sprintf("%T", v.Export())
}

// consoleAPI routes console.log, console.warn and console.error to a logger.
type consoleAPI struct {
	logger *zap.Logger
}

func (c *consoleAPI) register(vm *goja.Runtime) {
	console := vm.NewObject()
	_ = console.Set("log", c.log)
	_ = console.Set("warn", c.warn)
	_ = console.Set("error", c.errorFn)
	_ = vm.Set("console", console)
}

func (c *consoleAPI) log(call goja.FunctionCall) goja.Value {
	c.logger.Info(formatArgs(call.Arguments))
	return goja.Undefined()
}

func (c *consoleAPI) warn(call goja.FunctionCall) goja.Value {
	c.logger.Warn(formatArgs(call.Arguments))
	return goja.Undefined()
}

func (c *consoleAPI) errorFn(call goja.FunctionCall) goja.Value {
	c.logger.Error(formatArgs(call.Arguments))
	return goja.Undefined()
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
