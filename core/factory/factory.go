package factory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// ErrUnknownType is returned by Build for a type nobody registered.
var ErrUnknownType = errors.New("unknown backend type")

// Spec names a backend and carries its raw settings.
type Spec struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Builder constructs a T from raw settings.
type Builder[T any] func(conf map[string]any) (T, error)

// Registry stores builders keyed by backend type.
type Registry[T any] struct {
	mu       sync.RWMutex
	builders map[string]Builder[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{builders: make(map[string]Builder[T])}
}

// Register adds a builder for name. Names are registered once.
func (r *Registry[T]) Register(name string, b Builder[T]) error {
	if b == nil {
		return fmt.Errorf("builder nil for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.builders[name]; ok {
		return fmt.Errorf("builder already registered for %s", name)
	}
	r.builders[name] = b
	return nil
}

// MustRegister is Register for package init blocks.
func (r *Registry[T]) MustRegister(name string, b Builder[T]) {
	if err := r.Register(name, b); err != nil {
		panic(err)
	}
}

// Build instantiates the backend described by s.
func (r *Registry[T]) Build(s Spec) (T, error) {
	r.mu.RLock()
	b, ok := r.builders[s.Type]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w %q", ErrUnknownType, s.Type)
	}
	return b(s.Conf)
}

// Types lists the registered names in order.
func (r *Registry[T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.builders))
	for name := range r.builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Decode fills out from data using json tags. Numeric strings coming from
// environment overrides are converted.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
