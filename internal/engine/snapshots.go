package engine

import (
	"sort"

	"retrochat/internal/chat"
)

// Snapshot accessors. Each one round-trips through the loop so the
// caller sees a consistent view; after Stop they return zero values.

// Messages returns the visible timeline in chronological order.
func (e *Engine) Messages() []chat.Message {
	reply := make(chan []chat.Message, 1)
	if !e.dispatch(func() { reply <- e.timeline.Snapshot() }) {
		return nil
	}
	select {
	case msgs := <-reply:
		return msgs
	case <-e.closed:
		return nil
	}
}

// Scope returns the active viewing scope.
func (e *Engine) Scope() chat.Scope {
	reply := make(chan chat.Scope, 1)
	if !e.dispatch(func() { reply <- e.scope }) {
		return chat.Public()
	}
	select {
	case s := <-reply:
		return s
	case <-e.closed:
		return chat.Public()
	}
}

// Online returns the sorted identifiers of online participants, and
// whether the set reflects a live presence sync.
func (e *Engine) Online() ([]string, bool) {
	type result struct {
		ids   []string
		valid bool
	}
	reply := make(chan result, 1)
	if !e.dispatch(func() { reply <- result{e.presence.Online(), e.presence.Valid()} }) {
		return nil, false
	}
	select {
	case r := <-reply:
		return r.ids, r.valid
	case <-e.closed:
		return nil, false
	}
}

// Unread returns a copy of the per-conversation unread counters.
func (e *Engine) Unread() map[string]int {
	reply := make(chan map[string]int, 1)
	if !e.dispatch(func() {
		out := make(map[string]int, len(e.unread))
		for k, v := range e.unread {
			out[k] = v
		}
		reply <- out
	}) {
		return nil
	}
	select {
	case m := <-reply:
		return m
	case <-e.closed:
		return nil
	}
}

// Conversations returns the sorted peers of the active conversations.
func (e *Engine) Conversations() []string {
	reply := make(chan []string, 1)
	if !e.dispatch(func() {
		out := make([]string, 0, len(e.conversations))
		for peer := range e.conversations {
			out = append(out, peer)
		}
		sort.Strings(out)
		reply <- out
	}) {
		return nil
	}
	select {
	case peers := <-reply:
		return peers
	case <-e.closed:
		return nil
	}
}

// Participants returns the known participant directory keyed by id.
func (e *Engine) Participants() map[string]chat.Participant {
	reply := make(chan map[string]chat.Participant, 1)
	if !e.dispatch(func() {
		out := make(map[string]chat.Participant, len(e.participants))
		for k, v := range e.participants {
			out[k] = v
		}
		reply <- out
	}) {
		return nil
	}
	select {
	case m := <-reply:
		return m
	case <-e.closed:
		return nil
	}
}

// ConnectionStatus returns the combined channel status.
func (e *Engine) ConnectionStatus() Status {
	reply := make(chan Status, 1)
	if !e.dispatch(func() { reply <- e.status }) {
		return StatusDisconnected
	}
	select {
	case s := <-reply:
		return s
	case <-e.closed:
		return StatusDisconnected
	}
}
