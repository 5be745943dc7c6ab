package function

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"time"

	"github.com/dop251/goja"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	wrapperPrefix = "(async () => { try { "
	wrapperSuffix = "\n;if (typeof onRequest === 'function') return await onRequest(request); } catch (err) { " +
		"console.error(err instanceof Error ? (err.stack && String(err.stack).indexOf(err.message) !== -1 ? err.stack : String(err)) : err); } })()"
)

// wrap puts the script body on the wrapper's first line so reported
// line numbers match the source.
func wrap(code string) string {
	return wrapperPrefix + code + wrapperSuffix
}

type programCache struct {
	programs *lru.Cache[[sha256.Size]byte, *goja.Program]
	group    singleflight.Group
}

func newProgramCache(size int) *programCache {
	if size <= 0 {
		size = 128
	}
	programs, _ := lru.New[[sha256.Size]byte, *goja.Program](size)
	return &programCache{programs: programs}
}

func (c *programCache) compile(code string) (*goja.Program, error) {
	key := sha256.Sum256([]byte(code))
	if program, ok := c.programs.Get(key); ok {
		return program, nil
	}
	v, err, _ := c.group.Do(string(key[:]), func() (interface{}, error) {
		program, err := goja.Compile("", wrap(code), false)
		if err != nil {
			return nil, err
		}
		c.programs.Add(key, program)
		return program, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*goja.Program), nil
}

// JavaScript is one script run: a fresh runtime with its own sink.
type JavaScript struct {
	vm        *goja.Runtime
	ctx       context.Context
	caps      *Capabilities
	sink      *LogSink
	maxMemory int64
}

func NewJavaScript(ctx context.Context, opts Options, caps *Capabilities, sink *LogSink) *JavaScript {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if opts.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(opts.MaxCallStackSize)
	}
	return &JavaScript{
		vm:        vm,
		ctx:       ctx,
		caps:      caps,
		sink:      sink,
		maxMemory: opts.MaxMemory,
	}
}

func (js *JavaScript) setup(req WebhookRequestContext, clock func() time.Time) error {
	vm := js.vm

	request, err := js.fromJSON(req)
	if err != nil {
		return err
	}

	globals := map[string]interface{}{
		"request":           request,
		"console":           newConsole(vm, js.sink),
		"utils":             NewUtilsAPI(vm, clock).object(),
		"$get":              js.get,
		"$set":              js.set,
		"$getFile":          js.getFile,
		"$setFile":          js.setFile,
		"$uploadJsonAsBlob": js.uploadBlob,
		"$uploadBlob":       js.uploadBlob,
		"$scrapeUrl":        js.scrapeURL,
		"$screenShotUrl":    js.screenshotURL,
		"$json":             js.json,
		"$text":             js.text,
	}
	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Run executes program and returns the settled top-level promise.
func (js *JavaScript) Run(program *goja.Program) (*goja.Promise, error) {
	done := make(chan struct{})
	defer close(done)
	watch := newMemoryWatch(js.maxMemory)
	go func() {
		defer watch.stop()
		for {
			select {
			case <-js.ctx.Done():
				js.vm.Interrupt(context.Cause(js.ctx))
				return
			case <-watch.C():
				if watch.exceeded() {
					js.vm.Interrupt(ErrMemoryLimit)
					return
				}
			case <-done:
				return
			}
		}
	}()

	v, err := js.vm.RunProgram(program)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return nil, cause
			}
		}
		return nil, err
	}

	promise, ok := v.Export().(*goja.Promise)
	if !ok {
		return nil, errors.New("script did not return a promise")
	}
	return promise, nil
}

// export converts a settled value to a JSON-compatible Go value.
// Script-authored responses are kept as *HTTPResponse.
func (js *JavaScript) export(v goja.Value) interface{} {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	if resp, ok := v.Export().(*HTTPResponse); ok {
		return resp
	}
	value, ok, err := js.toJSON(v)
	if err != nil || !ok {
		return v.Export()
	}
	return value
}

func (js *JavaScript) toJSON(v goja.Value) (interface{}, bool, error) {
	s, ok, err := stringify(js.vm, v)
	if err != nil || !ok {
		return nil, ok, err
	}
	var value interface{}
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (js *JavaScript) fromJSON(v interface{}) (goja.Value, error) {
	if v == nil {
		return goja.Null(), nil
	}
	if resp, ok := v.(*HTTPResponse); ok {
		if resp == nil {
			return goja.Null(), nil
		}
		return js.vm.ToValue(resp), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	parse, _ := goja.AssertFunction(js.vm.Get("JSON").ToObject(js.vm).Get("parse"))
	return parse(goja.Undefined(), js.vm.ToValue(string(b)))
}

// promise runs fn and returns an already settled promise.
func (js *JavaScript) promise(fn func() (interface{}, error)) goja.Value {
	p, resolve, reject := js.vm.NewPromise()
	v, err := fn()
	if err == nil {
		var value goja.Value
		value, err = js.fromJSON(v)
		if err == nil {
			resolve(value)
		}
	}
	if err != nil {
		reject(js.vm.NewGoError(err))
	}
	return js.vm.ToValue(p)
}

func (js *JavaScript) throw(err error) {
	panic(js.vm.NewGoError(err))
}

func (js *JavaScript) get(call goja.FunctionCall) goja.Value {
	key := call.Argument(0).String()
	return js.promise(func() (interface{}, error) {
		return js.caps.Get(js.ctx, key)
	})
}

func (js *JavaScript) set(call goja.FunctionCall) goja.Value {
	key := call.Argument(0).String()
	value, present, err := js.toJSON(call.Argument(1))
	if err != nil {
		js.throw(err)
	}
	return js.promise(func() (interface{}, error) {
		return js.caps.Set(js.ctx, key, value, present)
	})
}

func (js *JavaScript) getFile(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	return js.promise(func() (interface{}, error) {
		url, found, err := js.caps.GetFile(js.ctx, name)
		if err != nil || !found {
			return nil, err
		}
		return url, nil
	})
}

func (js *JavaScript) setFile(call goja.FunctionCall) goja.Value {
	name, storageID := "", ""
	if arg := call.Argument(0); arg.ToBoolean() {
		name = arg.String()
	}
	if arg := call.Argument(1); arg.ToBoolean() {
		storageID = arg.String()
	}
	return js.promise(func() (interface{}, error) {
		return js.caps.SetFile(js.ctx, name, storageID)
	})
}

func (js *JavaScript) uploadBlob(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)
	var content interface{}
	switch {
	case isString(arg):
		content = arg.String()
	case isPlainObject(arg):
		s, ok, err := stringify(js.vm, arg)
		if err != nil {
			js.throw(err)
		}
		if ok {
			content = json.RawMessage(s)
		}
	default:
		content = arg.Export()
	}
	if _, _, err := ClassifyContent(content); err != nil {
		js.throw(err)
	}
	return js.promise(func() (interface{}, error) {
		return js.caps.UploadBlob(js.ctx, content)
	})
}

func (js *JavaScript) scrapeURL(call goja.FunctionCall) goja.Value {
	url := call.Argument(0).String()
	return js.promise(func() (interface{}, error) {
		var opts ScrapeOptions
		if err := js.decode(call.Argument(1), &opts); err != nil {
			return nil, err
		}
		return js.caps.ScrapeURL(js.ctx, url, opts)
	})
}

func (js *JavaScript) screenshotURL(call goja.FunctionCall) goja.Value {
	url := call.Argument(0).String()
	return js.promise(func() (interface{}, error) {
		var opts ScreenshotOptions
		if err := js.decode(call.Argument(1), &opts); err != nil {
			return nil, err
		}
		return js.caps.ScreenshotURL(js.ctx, url, opts)
	})
}

func (js *JavaScript) json(call goja.FunctionCall) goja.Value {
	if js.caps.mode != ServerSide {
		return goja.Null()
	}
	var init ResponseInit
	if err := js.decode(call.Argument(1), &init); err != nil {
		js.throw(err)
	}
	payload := json.RawMessage("null")
	s, ok, err := stringify(js.vm, call.Argument(0))
	if err != nil {
		js.throw(err)
	}
	if ok {
		payload = json.RawMessage(s)
	}
	resp, err := js.caps.JSONResponse(payload, init)
	if err != nil {
		js.throw(err)
	}
	if resp == nil {
		return goja.Null()
	}
	return js.vm.ToValue(resp)
}

func (js *JavaScript) text(call goja.FunctionCall) goja.Value {
	if js.caps.mode != ServerSide {
		return goja.Null()
	}
	var init ResponseInit
	if err := js.decode(call.Argument(1), &init); err != nil {
		js.throw(err)
	}
	payload := ""
	if arg := call.Argument(0); !goja.IsUndefined(arg) {
		payload = arg.String()
	}
	resp := js.caps.TextResponse(payload, init)
	if resp == nil {
		return goja.Null()
	}
	return js.vm.ToValue(resp)
}

// decode maps a script options object onto out, applying out's defaults.
func (js *JavaScript) decode(v goja.Value, out interface{}) error {
	var input interface{}
	if isPlainObject(v) {
		value, ok, err := js.toJSON(v)
		if err != nil {
			return err
		}
		if ok {
			input = value
		}
	}
	return decodeOptions(input, out)
}

func isString(v goja.Value) bool {
	_, ok := v.Export().(string)
	return ok
}

func isPlainObject(v goja.Value) bool {
	o, ok := v.(*goja.Object)
	if !ok {
		return false
	}
	_, callable := goja.AssertFunction(o)
	return !callable
}
