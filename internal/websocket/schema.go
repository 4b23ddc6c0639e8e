package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSetTitle         Action = "set_title"
	ActionReplaceDoc       Action = "replace_doc"
	ActionAddBlock         Action = "add_block"
	ActionDeleteBlock      Action = "delete_block"
	ActionSetStem          Action = "set_stem"
	ActionAddOption        Action = "add_option"
	ActionRemoveOption     Action = "remove_option"
	ActionSetOptionContent Action = "set_option_content"
	ActionAddPart          Action = "add_part"
	ActionRemovePart       Action = "remove_part"
	ActionSetPartContent   Action = "set_part_content"
	ActionSetOverrides     Action = "set_overrides"
	ActionSetDisplayNumber Action = "set_display_number"
	ActionPaste            Action = "paste"
	ActionRefreshBlocks    Action = "refresh_blocks"
	ActionSaveNow          Action = "save_now"
	ActionUndo             Action = "undo"
	ActionRedo             Action = "redo"
	ActionPing             Action = "ping"
)

// PastedImage is one clipboard image; Data is base64 on the wire.
type PastedImage struct {
	MimeType string `json:"mime_type"`
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"data"`
}

// RequestPayload carries every client action; only the fields the action
// needs are set.
type RequestPayload struct {
	Action Action `json:"action"`

	Title          string          `json:"title,omitempty"`
	Doc            json.RawMessage `json:"doc,omitempty"`
	BlockID        int64           `json:"block_id,omitempty"`
	QuestionType   string          `json:"question_type,omitempty"`
	QuestionItemID *int64          `json:"question_item_id,omitempty"`
	Position       *int            `json:"position,omitempty"`
	Index          *int            `json:"index,omitempty"`
	Content        json.RawMessage `json:"content,omitempty"`
	Overrides      json.RawMessage `json:"overrides,omitempty"`
	Value          string          `json:"value,omitempty"`
	Images         []PastedImage   `json:"images,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError           Event = "error"
	EventAck             Event = "ack"
	EventSaved           Event = "saved"
	EventSaveFailed      Event = "save_failed"
	EventUploadComplete  Event = "upload_complete"
	EventUploadFailed    Event = "upload_failed"
	EventBlocksRefreshed Event = "blocks_refreshed"
	EventBlock           Event = "block"
	EventDoc             Event = "doc"
	EventPong            Event = "pong"
)

// EventPayload is the server push envelope.
type EventPayload struct {
	Event     Event       `json:"event"`
	Message   string      `json:"message,omitempty"`
	BlockID   int64       `json:"block_id,omitempty"`
	UploadKey string      `json:"upload_key,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
