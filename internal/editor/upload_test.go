package editor

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperforge/paperforge-backend/internal/document"
)

func pngItem(name string, size int) ClipboardItem {
	return ClipboardItem{
		MimeType: "image/png",
		Filename: name,
		Data:     bytes.Repeat([]byte{0x89}, size),
	}
}

func findImage(t *testing.T, doc *document.Node, key string) *document.Node {
	t.Helper()
	return doc.FindFirst(document.TypeImage, func(attrs map[string]any) bool {
		return document.AttrString(attrs, document.AttrUploadKey) == key
	})
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage(pngItem("ok.png", 64)))

	err := ValidateImage(pngItem("big.png", MaxImageBytes+1))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	err = ValidateImage(ClipboardItem{MimeType: "image/tiff", Data: []byte{1}})
	assert.ErrorIs(t, err, ErrUnsupportedImageType)

	err = ValidateImage(ClipboardItem{MimeType: "application/pdf", Data: []byte{1}})
	assert.ErrorIs(t, err, ErrUnsupportedImageType)
}

func TestPasteInsertsPendingNodeImmediately(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.gate = make(chan struct{})

	keys, err := env.session.HandlePaste([]ClipboardItem{pngItem("figure.png", 128)}, -1)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	key := keys[0]

	// The node is visible before the upload resolves, with a preview src
	// and the durable pending sentinel on the persisted reference.
	doc, err := env.session.Doc()
	require.NoError(t, err)
	node := findImage(t, doc, key)
	require.NotNil(t, node)

	attrs := document.ParseImageAttrs(node.Attrs)
	assert.Equal(t, document.PreviewRef(key), attrs.Src)
	assert.Equal(t, document.PendingRef(key), attrs.PersistedSrc)
	assert.Equal(t, document.UploadStatusPending, attrs.UploadStatus)

	data, ok := env.session.PreviewData(key)
	assert.True(t, ok)
	assert.Len(t, data, 128)

	close(env.uploader.gate)
	env.session.WaitForUploads()
}

func TestUploadCompletionRewritesNode(t *testing.T) {
	env := newTestEnv(t)

	keys, err := env.session.HandlePaste([]ClipboardItem{pngItem("diagram.png", 64)}, -1)
	require.NoError(t, err)
	env.session.WaitForUploads()

	doc, err := env.session.Doc()
	require.NoError(t, err)
	node := findImage(t, doc, keys[0])
	require.NotNil(t, node)

	attrs := document.ParseImageAttrs(node.Attrs)
	want := "https://media.example.com/papers/42/diagram.png"
	assert.Equal(t, want, attrs.Src)
	assert.Equal(t, want, attrs.PersistedSrc)
	assert.Equal(t, document.UploadStatusComplete, attrs.UploadStatus)

	assert.True(t, env.notifier.has(EventUploadComplete))
	assert.Equal(t, 0, env.session.previews.Len(), "preview must be released after completion")
}

func TestUploadFailureRemovesNodeAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.err = fmt.Errorf("storage unavailable")

	keys, err := env.session.HandlePaste([]ClipboardItem{pngItem("broken.png", 64)}, -1)
	require.NoError(t, err)
	env.session.WaitForUploads()

	doc, err := env.session.Doc()
	require.NoError(t, err)
	assert.Nil(t, findImage(t, doc, keys[0]), "failed upload's node must be removed")

	assert.True(t, env.notifier.has(EventUploadFailed))
	assert.False(t, env.notifier.has(EventUploadComplete))
	assert.Equal(t, 0, env.session.previews.Len())
}

func TestUploadResolvingAfterNodeDeleted(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.gate = make(chan struct{})

	keys, err := env.session.HandlePaste([]ClipboardItem{pngItem("gone.png", 64)}, -1)
	require.NoError(t, err)
	key := keys[0]

	// Author deletes the image while its upload is still in flight.
	doc, err := env.session.Doc()
	require.NoError(t, err)
	require.True(t, doc.RemoveFirst(document.TypeImage, func(attrs map[string]any) bool {
		return document.AttrString(attrs, document.AttrUploadKey) == key
	}))
	require.NoError(t, env.session.ReplaceDoc(doc))

	before, err := env.session.Doc()
	require.NoError(t, err)

	// The upload resolves into a document that no longer holds its node:
	// the result is dropped and nothing else changes.
	close(env.uploader.gate)
	env.session.WaitForUploads()

	after, err := env.session.Doc()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.False(t, env.notifier.has(EventUploadComplete))
	assert.Equal(t, 0, env.session.previews.Len())
}

func TestPasteRejectsInvalidImageBeforeInserting(t *testing.T) {
	env := newTestEnv(t)

	before, err := env.session.Doc()
	require.NoError(t, err)

	_, err = env.session.HandlePaste([]ClipboardItem{
		pngItem("fine.png", 64),
		{MimeType: "image/bmp", Filename: "nope.bmp", Data: []byte{1}},
	}, -1)
	assert.ErrorIs(t, err, ErrUnsupportedImageType)

	after, err := env.session.Doc()
	require.NoError(t, err)
	assert.Equal(t, before, after, "a rejected paste must not touch the document")
}

func TestPasteIgnoresNonImageItems(t *testing.T) {
	env := newTestEnv(t)

	keys, err := env.session.HandlePaste([]ClipboardItem{
		{MimeType: "text/plain", Data: []byte("hello")},
		{MimeType: "text/html", Data: []byte("<b>hi</b>")},
	}, -1)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMultipleImagesUploadIndependently(t *testing.T) {
	env := newTestEnv(t)

	keys, err := env.session.HandlePaste([]ClipboardItem{
		pngItem("one.png", 16),
		pngItem("two.png", 16),
	}, -1)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	env.session.WaitForUploads()

	doc, err := env.session.Doc()
	require.NoError(t, err)
	for _, key := range keys {
		node := findImage(t, doc, key)
		require.NotNil(t, node)
		attrs := document.ParseImageAttrs(node.Attrs)
		assert.Equal(t, document.UploadStatusComplete, attrs.UploadStatus)
	}
	assert.Equal(t, 0, env.session.previews.Len())
}
