package graph

import (
	"github.com/pkg/errors"

	"github.com/calyx-ml/onnxeval/internal/tensor"
)

// Env is the mutable name-to-tensor store threaded through one evaluation:
// seeded from caller inputs and initializers, grown as nodes execute, and
// drained to produce the final outputs. It is created per evaluation call
// and never shared across calls.
//
// Insert has last-write-wins semantics; the compile-time topology check is
// what guards against a node reading a value before it is produced.
type Env struct {
	values map[string]*tensor.RawTensor
}

// NewEnv creates an environment pre-sized for the given number of values.
func NewEnv(capacity int) *Env {
	return &Env{values: make(map[string]*tensor.RawTensor, capacity)}
}

// Get returns the tensor stored under name.
func (e *Env) Get(name string) (*tensor.RawTensor, error) {
	t, ok := e.values[name]
	if !ok {
		return nil, errors.Wrapf(ErrMissingValue, "%q", name)
	}
	return t, nil
}

// Insert stores a tensor under name, overwriting any previous entry.
func (e *Env) Insert(name string, t *tensor.RawTensor) {
	e.values[name] = t
}

// Len returns the number of stored values.
func (e *Env) Len() int {
	return len(e.values)
}

// Drain removes the given names from the environment and returns them as a
// name-to-tensor map. Any name not present fails.
func (e *Env) Drain(names []string) (map[string]*tensor.RawTensor, error) {
	out := make(map[string]*tensor.RawTensor, len(names))
	for _, name := range names {
		t, ok := e.values[name]
		if !ok {
			return nil, errors.Wrapf(ErrMissingValue, "output %q", name)
		}
		delete(e.values, name)
		out[name] = t
	}
	return out, nil
}
