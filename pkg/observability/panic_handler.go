package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers a panic in the calling goroutine and logs it with
// its stack. It must be deferred directly. The panic is not re-raised.
//
//	go func() {
//	    defer observability.RecoverPanic(logger, "scheduled publish")
//	    ...
//	}()
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		logger.WithFields(map[string]interface{}{
			"panic":   fmt.Sprintf("%v", r),
			"stack":   string(debug.Stack()),
			"context": where,
		}).Error("panic recovered")
	}
}

// MustRecover converts a recovered value into an error, or nil when there
// was no panic
//
//	defer func() {
//	    if perr := observability.MustRecover(recover()); perr != nil {
//	        err = perr
//	    }
//	}()
func MustRecover(r interface{}) error {
	if r != nil {
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}
