package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/paperforge/paperforge-backend/internal/document"
)

// MaxImageBytes caps accepted pasted images at 5 MiB.
const MaxImageBytes = 5 << 20

// Validation failures surfaced to the author before anything is inserted.
var (
	ErrImageTooLarge        = errors.New("editor: image exceeds the 5MB limit")
	ErrUnsupportedImageType = errors.New("editor: unsupported image type")
)

// allowedImageTypes is the accepted paste MIME set.
var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/jpg":  {},
	"image/webp": {},
	"image/gif":  {},
	"image/heic": {},
	"image/heif": {},
}

// ClipboardItem is one entry of a paste payload.
type ClipboardItem struct {
	MimeType string
	Filename string
	Data     []byte
}

// IsImage reports whether the item carries an image MIME type.
func (c ClipboardItem) IsImage() bool {
	return strings.HasPrefix(c.MimeType, "image/")
}

// ValidateImage checks one pasted image against the size and type limits.
func ValidateImage(item ClipboardItem) error {
	if _, ok := allowedImageTypes[strings.ToLower(item.MimeType)]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedImageType, item.MimeType)
	}
	if len(item.Data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}

// HandlePaste scans a paste payload for images and starts the upload
// pipeline for each. The synchronous part validates, registers the preview
// bytes and appends a pending image node at the given position of the
// document, so the author sees the image immediately. The upload itself
// runs in the background; its completion rewrites the node by upload key.
//
// Non-image items are ignored. The first validation failure aborts the
// whole paste before any node is inserted, so the document never holds a
// node for a rejected image.
func (s *Session) HandlePaste(items []ClipboardItem, position int) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}

	var images []ClipboardItem
	for _, item := range items {
		if !item.IsImage() {
			continue
		}
		if err := ValidateImage(item); err != nil {
			return nil, err
		}
		images = append(images, item)
	}
	if len(images) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(images))
	s.mu.Lock()
	s.recordHistoryLocked()
	for i, item := range images {
		key := uuid.New().String()
		keys = append(keys, key)
		s.previews.Put(key, item.Data)

		node := document.NewImageNode(document.ImageAttrs{
			Src:          document.PreviewRef(key),
			Alt:          item.Filename,
			UploadKey:    key,
			UploadStatus: document.UploadStatusPending,
			PersistedSrc: document.PendingRef(key),
		})
		if position < 0 {
			s.doc.Append(node)
		} else {
			s.doc.InsertAt(position+i, node)
		}
	}
	s.mu.Unlock()

	s.scheduleDocSave()

	for i, item := range images {
		s.uploads.Add(1)
		go s.runUpload(keys[i], item)
	}
	return keys, nil
}

// runUpload performs one background upload and applies its outcome to the
// document. Whatever happens, the preview entry for the key is released
// exactly once; the deferred release is a no-op when a terminal path
// already freed it.
func (s *Session) runUpload(key string, item ClipboardItem) {
	defer s.uploads.Done()
	defer s.previews.Release(key)

	ref, err := s.uploader.UploadPaperImage(context.Background(), s.paperID, item.Filename, item.MimeType, item.Data)
	if s.closed.Load() {
		return
	}
	if err != nil {
		s.failUpload(key, err)
		return
	}
	s.completeUpload(key, ref)
}

// completeUpload rewrites the pending node for the key with its stable
// reference. The node may be gone (author deleted the image mid-upload);
// that is the expected race and the result is simply dropped. The rewrite
// bypasses undo history: it is upload bookkeeping, not an authoring step.
func (s *Session) completeUpload(key, ref string) {
	s.mu.Lock()
	updated := s.doc.UpdateFirst(document.TypeImage, matchUploadKey(key), func(attrs map[string]any) map[string]any {
		attrs[document.AttrSrc] = ref
		attrs[document.AttrUploadPersistedSrc] = ref
		attrs[document.AttrUploadStatus] = document.UploadStatusComplete
		return attrs
	})
	s.mu.Unlock()

	s.previews.Release(key)
	if !updated {
		s.log.Debug().Str("upload_key", key).Msg("Upload finished after its node was removed")
		return
	}
	s.notify.Notify(Event{Kind: EventUploadComplete, UploadKey: key})
	s.scheduleDocSave()
}

// failUpload removes the pending node for the key and notifies the author.
// A missing node means the image was already deleted; nothing to report.
func (s *Session) failUpload(key string, cause error) {
	s.mu.Lock()
	removed := s.doc.RemoveFirst(document.TypeImage, matchUploadKey(key))
	s.mu.Unlock()

	s.previews.Release(key)
	if !removed {
		return
	}
	s.log.Warn().Err(cause).Str("upload_key", key).Msg("Image upload failed")
	s.notify.Notify(Event{Kind: EventUploadFailed, UploadKey: key, Message: "Image upload failed"})
	s.scheduleDocSave()
}

// WaitForUploads blocks until every in-flight upload has settled. Test and
// shutdown helper; the editing path never waits.
func (s *Session) WaitForUploads() {
	s.uploads.Wait()
}

// PreviewData serves the bytes behind a preview:// reference.
func (s *Session) PreviewData(key string) ([]byte, bool) {
	return s.previews.Get(key)
}

func matchUploadKey(key string) func(map[string]any) bool {
	return func(attrs map[string]any) bool {
		return document.AttrString(attrs, document.AttrUploadKey) == key
	}
}
