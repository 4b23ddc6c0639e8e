package document

import (
	"encoding/base64"
	"strings"
)

// Image node attribute keys.
const (
	AttrSrc                = "src"
	AttrAlt                = "alt"
	AttrUploadKey          = "dataUploadKey"
	AttrUploadStatus       = "dataUploadStatus"
	AttrUploadPersistedSrc = "dataUploadPersistedSrc"
)

// Upload status values carried on image nodes.
const (
	UploadStatusPending  = "pending"
	UploadStatusComplete = "complete"
	UploadStatusError    = "error"
)

// pendingPrefix marks a durable reference whose upload has not finished yet.
// The sentinel is stable across save/load cycles: hydrating and re-preparing
// a document must reproduce it byte for byte.
const pendingPrefix = "pending:"

// previewScheme marks a session-local preview reference served from the
// in-memory preview store. Preview references must never reach storage.
const previewScheme = "preview://"

// PendingRef builds the durable sentinel reference for an unfinished upload.
func PendingRef(uploadKey string) string {
	return pendingPrefix + uploadKey
}

// ParsePendingRef extracts the upload key from a pending sentinel.
func ParsePendingRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, pendingPrefix) {
		return "", false
	}
	return ref[len(pendingPrefix):], true
}

// PreviewRef builds a session-local preview reference for an upload key.
func PreviewRef(uploadKey string) string {
	return previewScheme + uploadKey
}

// IsTransientRef reports whether a reference is only valid inside the current
// editing session: preview store references, raw blob handles and inline data
// URIs all qualify.
func IsTransientRef(ref string) bool {
	return strings.HasPrefix(ref, previewScheme) ||
		strings.HasPrefix(ref, "blob:") ||
		strings.HasPrefix(ref, "data:")
}

// placeholderSVG is the graphic shown for an image whose upload is still in
// flight when the document is reloaded. Inline so it renders with no backend.
var placeholderSVG = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(
	`<svg xmlns="http://www.w3.org/2000/svg" width="320" height="180">` +
		`<rect width="100%" height="100%" fill="#e5e7eb"/>` +
		`<text x="50%" y="50%" dominant-baseline="middle" text-anchor="middle" ` +
		`font-family="sans-serif" font-size="14" fill="#6b7280">Image uploading…</text></svg>`))

// PlaceholderRef returns a renderable stand-in reference for a pending image.
func PlaceholderRef() string {
	return placeholderSVG
}

// ImageAttrs is the typed view of an image node's attrs bag.
type ImageAttrs struct {
	Src          string
	Alt          string
	UploadKey    string
	UploadStatus string
	PersistedSrc string
}

// ParseImageAttrs narrows an image node's attrs into a typed record.
func ParseImageAttrs(attrs map[string]any) ImageAttrs {
	return ImageAttrs{
		Src:          AttrString(attrs, AttrSrc),
		Alt:          AttrString(attrs, AttrAlt),
		UploadKey:    AttrString(attrs, AttrUploadKey),
		UploadStatus: AttrString(attrs, AttrUploadStatus),
		PersistedSrc: AttrString(attrs, AttrUploadPersistedSrc),
	}
}

// NewImageNode builds an atomic image node from typed attrs. Zero-value
// fields are omitted from the bag so the sparse-attrs convention holds.
func NewImageNode(a ImageAttrs) Node {
	attrs := map[string]any{AttrSrc: a.Src}
	if a.Alt != "" {
		attrs[AttrAlt] = a.Alt
	}
	if a.UploadKey != "" {
		attrs[AttrUploadKey] = a.UploadKey
	}
	if a.UploadStatus != "" {
		attrs[AttrUploadStatus] = a.UploadStatus
	}
	if a.PersistedSrc != "" {
		attrs[AttrUploadPersistedSrc] = a.PersistedSrc
	}
	return Node{Type: TypeImage, Attrs: attrs}
}
