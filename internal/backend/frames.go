package backend

import (
	"fmt"

	"github.com/goccy/go-json"

	"retrochat/internal/chat"
)

// Frame types exchanged over the realtime socket.
const (
	frameMessageInsert    = "message.insert"
	framePresenceSync     = "presence.sync"
	framePresenceJoin     = "presence.join"
	framePresenceLeave    = "presence.leave"
	framePresenceAnnounce = "presence.announce"
)

// frame is the wire envelope for realtime events. Only the fields
// relevant to a given type are populated.
type frame struct {
	Type string `json:"type"`

	// message.insert
	Message *chat.Message `json:"message,omitempty"`

	// presence.sync
	Participants []string `json:"participants,omitempty"`

	// presence.join / presence.leave / presence.announce
	ParticipantID string `json:"participant_id,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
}

func decodeFrame(data []byte) (frame, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" {
		return frame{}, fmt.Errorf("frame missing type")
	}
	return f, nil
}

func encodeFrame(f frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}
