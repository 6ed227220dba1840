package engine

import (
	"sort"

	"retrochat/internal/chat"
)

// Timeline is the ordered, deduplicated message list for the active
// scope. It is owned by the engine loop and not safe for concurrent
// use.
type Timeline struct {
	msgs []chat.Message
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// Len returns the number of messages.
func (t *Timeline) Len() int {
	return len(t.msgs)
}

// Snapshot returns a copy of the messages in display order.
func (t *Timeline) Snapshot() []chat.Message {
	out := make([]chat.Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Reset replaces the whole timeline, used on scope switches and bulk
// resyncs. The input is copied and sorted.
func (t *Timeline) Reset(msgs []chat.Message) {
	t.msgs = make([]chat.Message, len(msgs))
	copy(t.msgs, msgs)
	t.sort()
}

// Upsert inserts a message unless an entry with the same confirmed
// identifier already exists. A confirmed message first evicts a
// matching provisional entry: by client token when both carry one,
// falling back to (sender, body). Reconciliation lives here rather
// than only in the send path because the confirming row may arrive via
// either channel. Returns true if the list changed.
func (t *Timeline) Upsert(msg chat.Message) bool {
	if t.containsID(msg.ID) {
		return false
	}

	if !msg.Provisional {
		t.removeProvisionalMatch(msg)
	}

	t.msgs = append(t.msgs, msg)
	t.sort()
	return true
}

// Remove deletes the entry with the given identifier. Returns true if
// an entry was removed.
func (t *Timeline) Remove(id string) bool {
	for i, m := range t.msgs {
		if m.ID == id {
			t.msgs = append(t.msgs[:i], t.msgs[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether an entry with the identifier exists.
func (t *Timeline) Contains(id string) bool {
	return t.containsID(id)
}

func (t *Timeline) containsID(id string) bool {
	for _, m := range t.msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (t *Timeline) removeProvisionalMatch(confirmed chat.Message) {
	for i, m := range t.msgs {
		if !m.Provisional {
			continue
		}
		if confirmed.ClientToken != "" && m.ClientToken != "" {
			if m.ClientToken == confirmed.ClientToken {
				t.msgs = append(t.msgs[:i], t.msgs[i+1:]...)
				return
			}
			continue
		}
		if m.SenderID == confirmed.SenderID && m.Body == confirmed.Body {
			t.msgs = append(t.msgs[:i], t.msgs[i+1:]...)
			return
		}
	}
}

// sort restores ascending (CreatedAt, ID) order. Stable so that equal
// keys keep arrival order.
func (t *Timeline) sort() {
	sort.SliceStable(t.msgs, func(i, j int) bool {
		return t.msgs[i].Less(t.msgs[j])
	})
}
