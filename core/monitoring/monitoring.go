package monitoring

import (
	"sync"
	"time"
)

// Monitor reports errors that were recovered locally but deserve attention,
// such as malformed collaborator responses.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// RecoverPanic reports a recovered panic value.
	RecoverPanic(r any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) RecoverPanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Capture records err tagged with the reporting component.
func Capture(component string, err error) {
	CaptureException(err, map[string]string{"component": component})
}

// Recover reports a panic in progress and re-panics. It must be deferred
// directly.
func Recover() {
	if r := recover(); r != nil {
		m := get()
		m.RecoverPanic(r)
		m.Flush(2 * time.Second)
		panic(r)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
