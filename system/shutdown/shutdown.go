package shutdown

import (
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/internal/datadog"
)

var (
	osExit = os.Exit
	// exit is swapped out in tests.
	exit = osExit

	mu    sync.Mutex
	hooks []func() error
)

// OnShutdown registers fn to run before the process exits. Hooks run in
// reverse order of registration.
func OnShutdown(fn func() error) {
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, fn)
}

func Shutdown(code int) {
	mu.Lock()
	pending := hooks
	hooks = nil
	mu.Unlock()

	for i := len(pending) - 1; i >= 0; i-- {
		if err := pending[i](); err != nil {
			log.Warn().Err(err).Msg("Shutdown hook failed")
		}
	}
	datadog.Close()
	log.Info().Int("code", code).Msg("Simulation shut down")
	exit(code)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Shutdown(1)
}
