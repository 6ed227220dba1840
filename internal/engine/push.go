package engine

import (
	"time"

	"retrochat/internal/backend"
	"retrochat/internal/chat"
)

// connectPush subscribes to the realtime message and presence feeds.
// The subscriptions own their reconnect loop; the engine only reacts
// to state transitions. All callbacks hop onto the loop.
func (e *Engine) connectPush() {
	msgSub, err := e.backend.SubscribeMessages(e.ctx, backend.MessageHandlers{
		OnEvent: func(msg chat.Message) {
			e.dispatch(func() { e.ingest(msg) })
		},
		OnState: func(status backend.ChannelStatus) {
			e.dispatch(func() { e.setPushState(channelStateFrom(status)) })
		},
	})
	if err != nil {
		e.log.Error().Err(err).Msg("message subscription failed")
		e.dispatch(func() { e.setPushState(ChannelDisconnected) })
		return
	}

	presSub, err := e.backend.SubscribePresence(e.ctx, backend.PresenceHandlers{
		OnSync: func(ids []string) {
			e.dispatch(func() {
				e.presence.Sync(ids)
				e.notify(UpdatePresence)
			})
		},
		OnJoin: func(id string) {
			e.dispatch(func() {
				e.presence.Join(id)
				e.notify(UpdatePresence)
			})
		},
		OnLeave: func(id string) {
			e.dispatch(func() {
				e.presence.Leave(id)
				e.notify(UpdatePresence)
			})
		},
		OnState: func(status backend.ChannelStatus) {
			// Message feed state drives the channel machine; presence
			// feed loss only invalidates the set.
			if status == backend.StatusDisconnected || status == backend.StatusDegraded {
				e.dispatch(func() {
					e.presence.Clear()
					e.notify(UpdatePresence)
				})
			}
		},
	})
	if err != nil {
		e.log.Error().Err(err).Msg("presence subscription failed")
		_ = msgSub.Unsubscribe()
		e.dispatch(func() { e.setPushState(ChannelDisconnected) })
		return
	}

	e.mu.Lock()
	if e.started {
		e.msgSub = msgSub
		e.presSub = presSub
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	// Lost the race with Stop; tear down what was just opened.
	_ = msgSub.Unsubscribe()
	_ = presSub.Unsubscribe()
}

// announceLoop re-broadcasts presence at a fixed interval so the
// remote set heals even if a join event was missed.
func (e *Engine) announceLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PresenceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.announcePresence()
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *Engine) announcePresence() {
	if err := e.backend.AnnouncePresence(e.ctx, e.localID, e.displayName); err != nil {
		e.log.Debug().Err(err).Msg("presence announcement failed")
	}
}
