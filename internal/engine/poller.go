package engine

import (
	"time"

	"retrochat/internal/backend"
)

// pollLoop runs the fixed-cadence safety net. Every tick fetches the
// messages that landed after the watermark, regardless of push health,
// and feeds them through the same ingestion path as pushed events.
func (e *Engine) pollLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.dispatch(func() { e.pollTick() })
		case <-e.ctx.Done():
			return
		}
	}
}

// pollTick kicks off one poll cycle. Runs on the loop. A slow backend
// never stacks requests: the next tick is skipped while one is in
// flight.
func (e *Engine) pollTick() {
	if e.pollBusy {
		return
	}
	e.pollBusy = true

	if e.watermark.IsZero() {
		// No server timestamp to anchor on yet. Polling from the client
		// clock could skip events when the clocks disagree, so retry the
		// scope bulk fetch that primes the cursor instead.
		e.primeTick()
		return
	}

	after := e.watermark.Time()

	go func() {
		msgs, err := e.backend.FetchMessages(e.ctx, backend.MessageFilter{After: &after})
		e.dispatch(func() {
			e.pollBusy = false
			if err != nil {
				e.log.Debug().Err(err).Msg("poll cycle failed")
				e.setPollState(ChannelDegraded)
				return
			}
			e.setPollState(ChannelActive)
			for _, m := range msgs {
				e.ingest(m)
			}
		})
	}()
}

// primeTick retries the scope bulk fetch whose timestamps seed the
// poll cursor. Runs on the loop with pollBusy held; against an empty
// store it is equivalent to a poll of the active scope.
func (e *Engine) primeTick() {
	epoch := e.epoch
	scope := e.scope

	go func() {
		msgs, err := e.backend.FetchMessages(e.ctx, backend.MessageFilter{Scope: &scope})
		e.dispatch(func() {
			e.pollBusy = false
			if err != nil {
				e.log.Debug().Err(err).Msg("priming fetch failed")
				e.setPollState(ChannelDegraded)
				return
			}
			e.setPollState(ChannelActive)
			// An empty scope has no timestamps to seed from, and resetting
			// to an empty snapshot could erase rows that landed while the
			// fetch was in flight.
			if epoch != e.epoch || len(msgs) == 0 {
				return
			}
			e.timeline.Reset(msgs)
			for _, m := range msgs {
				e.watermark.Advance(m.CreatedAt)
			}
			e.notify(UpdateMessages)
		})
	}()
}
