package transport

import "runtime"

// RuntimeFinalizer implements Finalizer on top of runtime.SetFinalizer,
// the standard-library primitive for running a callback once the
// garbage collector determines an object is unreachable. It is the Go
// analogue of weakref.finalize used by the reference implementation.
type RuntimeFinalizer struct{}

// OnUnreachable registers cleanup to run once obj is no longer
// reachable from user code. obj must be a pointer (or a type with
// pointer-like GC-tracked fields); cleanup runs on its own goroutine
// and must not retain a reference to obj.
func (RuntimeFinalizer) OnUnreachable(obj any, cleanup func()) {
	runtime.SetFinalizer(obj, func(any) { cleanup() })
}
