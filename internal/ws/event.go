package ws

import "encoding/json"

// inbound is the envelope every client frame arrives in. Payload stays raw
// until the type is known.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinRoomPayload struct {
	Room string `json:"room"`
}

type sendMessagePayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
	Room    string `json:"room"`
}

type markReadPayload struct {
	Peer string `json:"peer"`
}

type resolveConfirmationPayload struct {
	TaskID string `json:"taskId"`
	Action string `json:"action"`
}
