// Package scripting implements the sandboxed callback host (§4.5): one
// goja VM per package namespace (built-in, local user, or a remote peer),
// bridged object handles backed by the battle package's generational
// indices, and a package-resolution fallback chain so a remote peer's
// script can reference content the local client already owns.
package scripting

import (
	"log"

	"github.com/dop251/goja"
)

// VM wraps one goja runtime bound to a single package namespace. Scripts
// loaded into a VM may resolve only their own namespace's packages plus
// the fallback chain — never another peer's namespace directly (§4.5
// namespace isolation).
type VM struct {
	Namespace string
	runtime   *goja.Runtime
	index     int

	callbacks map[string]goja.Callable
}

// NewVM creates an empty VM for namespace, identified by index for
// diagnostics — the vm_index the NotFound taxonomy logs (§7).
func NewVM(namespace string, index int) *VM {
	return &VM{
		Namespace: namespace,
		runtime:   goja.New(),
		index:     index,
		callbacks: make(map[string]goja.Callable),
	}
}

// Index reports this VM's diagnostic index.
func (v *VM) Index() int { return v.index }

// Bind exposes a Go value (typically a bridge function) under name in
// this VM's global scope.
func (v *VM) Bind(name string, value interface{}) error {
	return v.runtime.Set(name, value)
}

// LoadScript compiles and runs src in this VM — the usual way a script
// registers its callbacks, by calling the bridge functions Bind installed.
func (v *VM) LoadScript(src string) error {
	_, err := v.runtime.RunString(src)
	return err
}

// RegisterCallback stores a JS function under slot for later invocation
// via Call. Bridge registration functions (action_set_execute and
// similar) call this after validating their arguments.
func (v *VM) RegisterCallback(slot string, fn goja.Callable) {
	v.callbacks[slot] = fn
}

// HasCallback reports whether slot currently has a registered function.
func (v *VM) HasCallback(slot string) bool {
	_, ok := v.callbacks[slot]
	return ok
}

// Call invokes a previously registered callback by slot name. A panic or
// error inside the script is caught and demoted to a log line (§7
// ScriptFailure) — the caller proceeds as if the callback had returned no
// result.
func (v *VM) Call(slot string, args ...interface{}) (result goja.Value, ok bool) {
	fn, registered := v.callbacks[slot]
	if !registered {
		return nil, false
	}

	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = v.runtime.ToValue(a)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("scripting: vm %d namespace %q: callback %q panicked: %v", v.index, v.Namespace, slot, r)
			ok = false
		}
	}()

	val, err := fn(goja.Undefined(), jsArgs...)
	if err != nil {
		log.Printf("scripting: vm %d namespace %q: callback %q failed: %v", v.index, v.Namespace, slot, err)
		return nil, false
	}
	return val, true
}

// Interrupt stops whatever script code is currently executing in this VM,
// used by Host.CallWithTimeout to enforce the per-callback time budget
// (§5: "the simulation itself never blocks").
func (v *VM) Interrupt(reason string) {
	v.runtime.Interrupt(reason)
}

// ClearInterrupt restores normal execution after a prior Interrupt. Must
// be called before the VM can run again.
func (v *VM) ClearInterrupt() {
	v.runtime.ClearInterrupt()
}
