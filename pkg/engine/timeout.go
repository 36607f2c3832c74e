package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/facet/pkg/logging"
	"github.com/chazu/facet/pkg/scene"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult passes an evaluation's output back from its goroutine.
type evalResult struct {
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// once timeout elapses. Results from an older generation than currentGen
// are discarded.
//
// On timeout the evaluating goroutine may still be running; ch is buffered
// so it can finish and exit without a reader.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
	timeout time.Duration,
) (*scene.Scene, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.scene, res.errors, res.err

	case <-timer.C:
		logging.Logger().Warn("engine: evaluation timed out", "timeout", timeout, "generation", gen)
		return nil, nil, fmt.Errorf("evaluation timed out after %s", timeout)
	}
}
