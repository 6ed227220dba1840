package engine

// UpdateKind tells the UI which part of the engine's state changed.
// Consumers re-read the relevant snapshot; updates carry no payload
// beyond the send failure error.
type UpdateKind int

const (
	UpdateMessages UpdateKind = iota
	UpdatePresence
	UpdateUnread
	UpdateStatus
	UpdateParticipants
	UpdateSendFailed
)

// Update is a change notification delivered on Engine.Updates().
type Update struct {
	Kind UpdateKind

	// Err is set for UpdateSendFailed.
	Err error
}
