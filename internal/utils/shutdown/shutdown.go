// Package shutdown runs registered close hooks, newest first, when the
// process receives a termination signal.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

type logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

var (
	mu    sync.Mutex
	hooks []func() error
	out   logger
)

func Init(log logger) {
	mu.Lock()
	defer mu.Unlock()
	out = log
	hooks = nil
}

// Register appends a close hook. Hooks run in reverse registration
// order so dependents close before their dependencies.
func Register(fn func() error) {
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, fn)
}

// Listen blocks until SIGINT/SIGTERM/SIGHUP, runs the hooks and exits.
func Listen() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	out.Infof("running, press Ctrl+C to exit")
	sig := <-quit
	out.Warnf("received signal: %v", sig)

	mu.Lock()
	defer mu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](); err != nil {
			out.Errorf("shutdown hook failed: %v", err)
		}
	}
	out.Infof("shutdown complete")
	os.Exit(0)
}
