package scripting

import (
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// NamespaceBuiltin and NamespaceLocal are the two fixed namespaces every
// fallback chain ends at (§4.5 "fallback chain (local -> built-in)").
// Every other namespace name identifies one remote peer's package set.
const (
	NamespaceBuiltin = "built-in"
	NamespaceLocal   = "local"
)

// PackageRef identifies one content package a VM can resolve: a category
// (card, tile, player, ...) plus an id unique within its namespace.
type PackageRef struct {
	Namespace string
	Category  string
	ID        string
}

// Host owns every VM in a battle — one per package namespace (built-in,
// local user, and one per remote peer) — plus the package registry those
// VMs resolve against (§4.5).
type Host struct {
	mu            sync.RWMutex
	vms           map[string]*VM
	packages      map[PackageRef]interface{}
	maxVMs        int
	scriptTimeout time.Duration
	nextVMIndex   int
}

// NewHost builds an empty host. maxVMs bounds how many namespaces may
// exist at once — a battle has a handful of peers plus built-in/local,
// never an open-ended number (§3 resource limits in spirit). scriptTimeout
// bounds how long a single callback invocation may run before it is
// interrupted; zero disables the timeout.
func NewHost(maxVMs int, scriptTimeout time.Duration) *Host {
	return &Host{
		vms:           make(map[string]*VM),
		packages:      make(map[PackageRef]interface{}),
		maxVMs:        maxVMs,
		scriptTimeout: scriptTimeout,
	}
}

// VM returns namespace's VM, creating it (up to maxVMs) if it doesn't
// exist yet.
func (h *Host) VM(namespace string) (*VM, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if vm, ok := h.vms[namespace]; ok {
		return vm, nil
	}
	if len(h.vms) >= h.maxVMs {
		return nil, fmt.Errorf("scripting: namespace limit (%d) reached, refusing to create %q", h.maxVMs, namespace)
	}

	vm := NewVM(namespace, h.nextVMIndex)
	h.nextVMIndex++
	h.vms[namespace] = vm
	return vm, nil
}

// Lookup returns namespace's VM without creating one.
func (h *Host) Lookup(namespace string) (*VM, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	vm, ok := h.vms[namespace]
	return vm, ok
}

// RemoveVM drops namespace's VM, e.g. once a remote peer disconnects.
func (h *Host) RemoveVM(namespace string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.vms, namespace)
}

// RegisterPackage adds pkg to the registry under ref.
func (h *Host) RegisterPackage(ref PackageRef, pkg interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.packages[ref] = pkg
}

// resolvePackage implements package_or_fallback(namespace, id) (§4.5): it
// tries namespace first, then NamespaceLocal, then NamespaceBuiltin. This
// is how a remote peer's VM can reference a card package the local client
// already owns without the remote peer shipping its own copy. Unexported:
// the only caller is Host.ResolvePackage, which always supplies the VM's own
// namespace — scripts have no way to name an arbitrary one (§4.5
// namespace isolation).
func (h *Host) resolvePackage(namespace, category, id string) (interface{}, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ns := range fallbackChain(namespace) {
		if pkg, ok := h.packages[PackageRef{Namespace: ns, Category: category, ID: id}]; ok {
			return pkg, true
		}
	}
	return nil, false
}

func fallbackChain(namespace string) []string {
	switch namespace {
	case NamespaceLocal:
		return []string{NamespaceLocal, NamespaceBuiltin}
	case NamespaceBuiltin:
		return []string{NamespaceBuiltin}
	default:
		return []string{namespace, NamespaceLocal, NamespaceBuiltin}
	}
}

// ResolvePackage resolves id in vm's own namespace through the host's
// fallback chain, the only package lookup the bridge exposes to scripts.
func (h *Host) ResolvePackage(vm *VM, category, id string) (interface{}, error) {
	pkg, ok := h.resolvePackage(vm.Namespace, category, id)
	if !ok {
		return nil, NotFound{VMIndex: vm.index, Kind: KindPackage, ID: fmt.Sprintf("%s/%s", category, id)}
	}
	return pkg, nil
}

// CallWithTimeout invokes slot on vm, interrupting the script if it runs
// longer than the host's configured timeout — scripts may not suspend or
// block the simulation task (§5).
func (h *Host) CallWithTimeout(vm *VM, slot string, args ...interface{}) (goja.Value, bool) {
	if h.scriptTimeout <= 0 {
		return vm.Call(slot, args...)
	}

	timer := time.AfterFunc(h.scriptTimeout, func() {
		vm.Interrupt("scripting: callback exceeded timeout")
	})
	defer timer.Stop()

	result, ok := vm.Call(slot, args...)
	vm.ClearInterrupt()
	return result, ok
}

// Close releases every VM this host owns. Safe to call once a battle ends;
// the host is not reusable afterward.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vms = make(map[string]*VM)
}

// VMCount reports how many namespaces currently have a VM.
func (h *Host) VMCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.vms)
}
