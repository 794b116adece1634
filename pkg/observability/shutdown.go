package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ShutdownFunc is a function to call during shutdown
type ShutdownFunc func(context.Context) error

type namedShutdown struct {
	name string
	fn   ShutdownFunc
}

// ShutdownManager stops HTTP servers and then runs registered cleanup
// functions in reverse registration order
type ShutdownManager struct {
	logger          *Logger
	servers         []*http.Server
	shutdownFuncs   []namedShutdown
	shutdownTimeout time.Duration
	mu              sync.Mutex
}

// NewShutdownManager creates a shutdown manager for the given servers
func NewShutdownManager(logger *Logger, timeout time.Duration, servers ...*http.Server) *ShutdownManager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:          logger,
		servers:         servers,
		shutdownTimeout: timeout,
	}
}

// RegisterShutdownFunc registers a cleanup function. Later registrations run
// first.
func (sm *ShutdownManager) RegisterShutdownFunc(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.shutdownFuncs = append(sm.shutdownFuncs, namedShutdown{name: name, fn: fn})
}

// WaitForShutdown blocks until SIGINT, SIGTERM, or ctx is done, then shuts
// everything down
func (sm *ShutdownManager) WaitForShutdown(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		sm.logger.WithField("signal", sig.String()).Info("starting graceful shutdown")
	case <-ctx.Done():
		sm.logger.Info("context done, starting graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), sm.shutdownTimeout)
	defer cancel()
	return sm.Shutdown(shutdownCtx)
}

// Shutdown stops the servers and runs every cleanup function, collecting
// their errors
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	var result *multierror.Error

	for _, server := range sm.servers {
		if err := server.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("server %s shutdown: %w", server.Addr, err))
		}
	}

	sm.mu.Lock()
	funcs := make([]namedShutdown, len(sm.shutdownFuncs))
	copy(funcs, sm.shutdownFuncs)
	sm.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, fmt.Errorf("shutdown timeout reached before %s: %w", funcs[i].name, err))
			break
		}
		if err := funcs[i].fn(ctx); err != nil {
			sm.logger.WithError(err).WithField("component", funcs[i].name).Error("shutdown step failed")
			result = multierror.Append(result, fmt.Errorf("%s: %w", funcs[i].name, err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	sm.logger.Info("graceful shutdown complete")
	return nil
}
