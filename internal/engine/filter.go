package engine

import "retrochat/internal/chat"

// Verdict is the visibility decision for one incoming message event.
type Verdict int

const (
	// Ignore drops the event: it does not belong to the local user's
	// view or bookkeeping.
	Ignore Verdict = iota

	// Show inserts the event into the active scope's timeline.
	Show

	// CountUnread increments the sender's unread counter instead of
	// showing the event.
	CountUnread
)

func (v Verdict) String() string {
	switch v {
	case Show:
		return "show"
	case CountUnread:
		return "count-unread"
	default:
		return "ignore"
	}
}

// Decide is the single visibility rule for both ingestion channels.
// It is a pure, total function of (event, scope, local identity):
//
//   - public event, public scope: show
//   - public event, direct scope: ignore
//   - direct event not addressed to or sent by the local user: ignore
//   - direct event, matching direct scope: show
//   - direct event, any other scope: count unread if the local user is
//     the recipient; otherwise ignore (echoes of our own sends while
//     looking elsewhere)
func Decide(ev chat.Message, scope chat.Scope, localID string) Verdict {
	if !ev.IsDirect() {
		if scope.IsPublic() {
			return Show
		}
		return Ignore
	}

	// Third-party conversations never reach this client's view; without
	// this guard a sender matching the open scope's peer would leak in.
	if ev.SenderID != localID && ev.RecipientID != localID {
		return Ignore
	}

	other := ev.Peer(localID)
	if scope.IsDirect() && scope.Other() == other {
		return Show
	}
	if ev.RecipientID == localID && ev.SenderID != localID {
		return CountUnread
	}
	return Ignore
}
