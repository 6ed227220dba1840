package engine

import "retrochat/internal/backend"

// ChannelState is the lifecycle state of one ingestion channel.
type ChannelState string

const (
	ChannelIdle         ChannelState = "idle"
	ChannelConnecting   ChannelState = "connecting"
	ChannelActive       ChannelState = "active"
	ChannelDegraded     ChannelState = "degraded"
	ChannelDisconnected ChannelState = "disconnected"
)

// Status is the human-readable connectivity status surfaced to the UI.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDegraded     Status = "degraded"
	StatusDisconnected Status = "disconnected"
)

// combineStatus derives the surfaced status from both channel states.
// A healthy push feed means connected; a dead push feed with a live
// poll loop is degraded, not disconnected, because no message is lost.
func combineStatus(push, poll ChannelState) Status {
	switch {
	case push == ChannelActive:
		return StatusConnected
	case push == ChannelConnecting:
		return StatusConnecting
	case poll == ChannelActive:
		return StatusDegraded
	case poll == ChannelConnecting:
		return StatusConnecting
	default:
		return StatusDisconnected
	}
}

func channelStateFrom(status backend.ChannelStatus) ChannelState {
	switch status {
	case backend.StatusConnecting:
		return ChannelConnecting
	case backend.StatusActive:
		return ChannelActive
	case backend.StatusDegraded:
		return ChannelDegraded
	case backend.StatusDisconnected:
		return ChannelDisconnected
	default:
		return ChannelIdle
	}
}
