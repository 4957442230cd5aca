package assistant

import (
	"fmt"
	"time"

	"github.com/pastel-sketchbook/hangul-typing/internal/copilot"
)

// collect folds a session's event stream into the final answer text.
//
// Deltas are appended as they arrive. A full message only seeds the
// accumulator when it is still empty, so assistants that emit both
// deltas and a final message never produce duplicated content. An idle
// event ends the fold; an error event aborts it, discarding any
// partial content. If the stream closes before an idle event, whatever
// was accumulated is returned.
//
// The timeout bounds each wait for the next event and re-arms on every
// received event: a slow but steady stream never times out, a stalled
// one does.
func collect(events <-chan copilot.Event, timeout time.Duration) (string, error) {
	var content string

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return content, nil
			}

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(timeout)

			switch e := ev.(type) {
			case copilot.MessageDeltaEvent:
				content += e.Delta
			case copilot.MessageEvent:
				if content == "" {
					content = e.Content
				}
			case copilot.IdleEvent:
				return content, nil
			case copilot.ErrorEvent:
				return "", fmt.Errorf("%w: %s", ErrSendFailed, e.Message)
			default:
				// Other event kinds carry nothing to aggregate.
			}

		case <-timer.C:
			return "", ErrTimeout
		}
	}
}
