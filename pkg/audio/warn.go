// ABOUTME: Library-wide warning channel for non-fatal failures
// ABOUTME: Routes device and decode problems to a replaceable handler
package audio

import (
	"fmt"
	"log"
	"sync"
)

// WarnHandler receives non-fatal failures: device initialization problems,
// decode corruption, unsupported formats. The library never aborts on these;
// the affected operation becomes a no-op or the affected stream stops.
type WarnHandler func(error)

var (
	warnMu      sync.Mutex
	warnHandler WarnHandler = defaultWarnHandler
)

func defaultWarnHandler(err error) {
	log.Printf("aural: %v", err)
}

// SetWarnHandler replaces the handler invoked for non-fatal failures.
// Passing nil restores the default handler, which logs through the standard
// logger. Safe to call from any goroutine.
func SetWarnHandler(h WarnHandler) {
	warnMu.Lock()
	defer warnMu.Unlock()
	if h == nil {
		h = defaultWarnHandler
	}
	warnHandler = h
}

// Warnf reports a non-fatal failure to the registered handler.
func Warnf(format string, args ...any) {
	warnMu.Lock()
	h := warnHandler
	warnMu.Unlock()
	h(fmt.Errorf(format, args...))
}
