package editor

// EventKind classifies session notifications pushed to the author.
type EventKind string

const (
	// EventSaved confirms a debounced persistence call completed.
	EventSaved EventKind = "saved"
	// EventSaveFailed reports a failed persistence call. Local state is
	// kept; only the saved confirmation is withheld.
	EventSaveFailed EventKind = "save_failed"
	// EventUploadComplete reports an image upload finishing; the node now
	// carries its stable reference.
	EventUploadComplete EventKind = "upload_complete"
	// EventUploadFailed reports an image upload failing; the placeholder
	// node was removed.
	EventUploadFailed EventKind = "upload_failed"
	// EventBlocksRefreshed reports a registry refresh from persistence.
	EventBlocksRefreshed EventKind = "blocks_refreshed"
)

// Event is a non-blocking notification about an asynchronous outcome.
// Failures are always scoped to the single operation that caused them.
type Event struct {
	Kind      EventKind `json:"kind"`
	Message   string    `json:"message,omitempty"`
	BlockID   int64     `json:"block_id,omitempty"`
	UploadKey string    `json:"upload_key,omitempty"`
}

// Notifier receives session events. Implementations must not block; the
// session calls Notify from its async flows.
type Notifier interface {
	Notify(event Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}
