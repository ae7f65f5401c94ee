package scripting

import (
	"testing"
	"time"

	"github.com/dop251/goja"
)

func TestVMCreationRespectsMaxVMs(t *testing.T) {
	h := NewHost(2, 0)

	if _, err := h.VM(NamespaceBuiltin); err != nil {
		t.Fatalf("unexpected error creating first VM: %v", err)
	}
	if _, err := h.VM(NamespaceLocal); err != nil {
		t.Fatalf("unexpected error creating second VM: %v", err)
	}
	if _, err := h.VM("peer:1"); err == nil {
		t.Fatal("expected an error creating a VM past maxVMs")
	}

	// Re-fetching an existing namespace must not count against the limit.
	if _, err := h.VM(NamespaceBuiltin); err != nil {
		t.Fatalf("unexpected error re-fetching existing VM: %v", err)
	}
}

func TestResolvePackageFallsBackToBuiltin(t *testing.T) {
	h := NewHost(4, 0)
	h.RegisterPackage(PackageRef{Namespace: NamespaceBuiltin, Category: "card", ID: "fire1"}, "builtin-fire1")

	vm, err := h.VM("peer:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pkg, err := h.ResolvePackage(vm, "card", "fire1")
	if err != nil {
		t.Fatalf("expected fallback resolution to succeed, got %v", err)
	}
	if pkg.(string) != "builtin-fire1" {
		t.Fatalf("expected builtin-fire1, got %v", pkg)
	}
}

func TestResolvePackagePrefersOwnNamespace(t *testing.T) {
	h := NewHost(4, 0)
	h.RegisterPackage(PackageRef{Namespace: NamespaceBuiltin, Category: "card", ID: "fire1"}, "builtin-fire1")
	h.RegisterPackage(PackageRef{Namespace: "peer:1", Category: "card", ID: "fire1"}, "peer-fire1")

	vm, _ := h.VM("peer:1")
	pkg, err := h.ResolvePackage(vm, "card", "fire1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkg.(string) != "peer-fire1" {
		t.Fatalf("expected peer's own package to win, got %v", pkg)
	}
}

func TestResolvePackageNotFound(t *testing.T) {
	h := NewHost(4, 0)
	vm, _ := h.VM("peer:1")

	if _, err := h.ResolvePackage(vm, "card", "missing"); err == nil {
		t.Fatal("expected NotFound error")
	} else if nf, ok := err.(NotFound); !ok || nf.Kind != KindPackage {
		t.Fatalf("expected a package NotFound, got %v", err)
	}
}

func TestVMCallRunsRegisteredFunction(t *testing.T) {
	vm := NewVM(NamespaceLocal, 0)
	if err := vm.LoadScript(`
		var lastArg = null;
		function onExecute(handle) { lastArg = handle; return handle; }
	`); err != nil {
		t.Fatalf("unexpected script error: %v", err)
	}

	fnVal, err := vm.runtime.RunString("onExecute")
	if err != nil {
		t.Fatalf("unexpected error fetching function: %v", err)
	}
	callable, ok := goja.AssertFunction(fnVal)
	if !ok {
		t.Fatal("expected onExecute to be callable")
	}
	vm.RegisterCallback("execute", callable)

	result, ok := vm.Call("execute", 42)
	if !ok {
		t.Fatal("expected callback to succeed")
	}
	if result.ToInteger() != 42 {
		t.Fatalf("expected echoed value 42, got %v", result)
	}
}

func TestCallWithTimeoutInterruptsLongRunningScript(t *testing.T) {
	h := NewHost(1, 5*time.Millisecond)
	vm, _ := h.VM(NamespaceLocal)
	if err := vm.LoadScript(`function spin() { while (true) {} }`); err != nil {
		t.Fatalf("unexpected script error: %v", err)
	}
	fnVal, _ := vm.runtime.RunString("spin")
	callable, _ := goja.AssertFunction(fnVal)
	vm.RegisterCallback("spin", callable)

	_, ok := h.CallWithTimeout(vm, "spin")
	if ok {
		t.Fatal("expected the interrupted call to report failure")
	}
}
