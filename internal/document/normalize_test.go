package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageDoc(attrs ImageAttrs) *Node {
	doc := NewDoc()
	doc.Append(NewImageNode(attrs))
	return doc
}

func firstImage(t *testing.T, doc *Node) ImageAttrs {
	t.Helper()
	n := doc.FindFirst(TypeImage, func(map[string]any) bool { return true })
	require.NotNil(t, n)
	return ParseImageAttrs(n.Attrs)
}

func TestPrepareRewritesTransientWithKey(t *testing.T) {
	doc := imageDoc(ImageAttrs{
		Src:          PreviewRef("k1"),
		UploadKey:    "k1",
		UploadStatus: UploadStatusPending,
	})

	prepared, err := PrepareForSave(doc)
	require.NoError(t, err)

	img := firstImage(t, prepared)
	assert.Equal(t, PendingRef("k1"), img.Src)
	assert.Equal(t, PendingRef("k1"), img.PersistedSrc)
	assert.Equal(t, UploadStatusPending, img.UploadStatus)

	// Input is never mutated.
	assert.Equal(t, PreviewRef("k1"), firstImage(t, doc).Src)
}

func TestPrepareClearsTransientWithoutKey(t *testing.T) {
	doc := imageDoc(ImageAttrs{Src: "blob:abc123"})

	prepared, err := PrepareForSave(doc)
	require.NoError(t, err)

	img := firstImage(t, prepared)
	assert.Empty(t, img.Src)
	assert.Empty(t, img.PersistedSrc)
	assert.Equal(t, UploadStatusError, img.UploadStatus)
}

func TestPrepareCopiesStableRef(t *testing.T) {
	doc := imageDoc(ImageAttrs{Src: "/uploads/photo.png"})

	prepared, err := PrepareForSave(doc)
	require.NoError(t, err)

	img := firstImage(t, prepared)
	assert.Equal(t, "/uploads/photo.png", img.Src)
	assert.Equal(t, "/uploads/photo.png", img.PersistedSrc)
	assert.Equal(t, UploadStatusComplete, img.UploadStatus)
}

func TestPrepareKeepsPendingSentinelPending(t *testing.T) {
	// A client save can echo back a document whose visible src is already
	// the pending sentinel. That is not a stable reference and must never
	// be persisted as complete.
	doc := imageDoc(ImageAttrs{Src: PendingRef("k1")})

	prepared, err := PrepareForSave(doc)
	require.NoError(t, err)

	img := firstImage(t, prepared)
	assert.Equal(t, PendingRef("k1"), img.Src)
	assert.Equal(t, PendingRef("k1"), img.PersistedSrc)
	assert.Equal(t, UploadStatusPending, img.UploadStatus)
	assert.Equal(t, "k1", img.UploadKey)
}

func TestHydrateRestoresPendingUpload(t *testing.T) {
	doc := imageDoc(ImageAttrs{
		Src:          PendingRef("k2"),
		PersistedSrc: PendingRef("k2"),
		UploadStatus: UploadStatusPending,
	})
	// Simulate a payload that lost the upload key attribute in storage.
	n := doc.FindFirst(TypeImage, func(map[string]any) bool { return true })
	delete(n.Attrs, AttrUploadKey)

	hydrated, err := HydrateForEdit(doc)
	require.NoError(t, err)

	img := firstImage(t, hydrated)
	assert.Equal(t, "k2", img.UploadKey)
	assert.Equal(t, UploadStatusPending, img.UploadStatus)
	assert.Equal(t, PlaceholderRef(), img.Src)
	assert.NotEmpty(t, img.Src)
}

func TestHydrateCompleteUpload(t *testing.T) {
	doc := imageDoc(ImageAttrs{PersistedSrc: "/uploads/final.png"})

	hydrated, err := HydrateForEdit(doc)
	require.NoError(t, err)

	img := firstImage(t, hydrated)
	assert.Equal(t, "/uploads/final.png", img.Src)
	assert.Equal(t, UploadStatusComplete, img.UploadStatus)
}

// Every image node in hydrate(prepare(D)) must carry a renderable visible
// reference, and prepare is a fixed point on durable references:
// prepare(hydrate(prepare(D))) == prepare(D).
func TestRoundTripProperties(t *testing.T) {
	doc := NewDoc()
	doc.Append(NewImageNode(ImageAttrs{Src: PreviewRef("ka"), UploadKey: "ka"}))
	doc.Append(NewImageNode(ImageAttrs{Src: "/uploads/done.png"}))
	doc.Append(NewImageNode(ImageAttrs{Src: "blob:lost"}))
	doc.Append(NewQuestionBlockNode(5, nil))

	prepared, err := PrepareForSave(doc)
	require.NoError(t, err)

	hydrated, err := HydrateForEdit(prepared)
	require.NoError(t, err)

	hydrated.Walk(func(n *Node) bool {
		if n.Type != TypeImage {
			return true
		}
		img := ParseImageAttrs(n.Attrs)
		if img.UploadStatus != UploadStatusError {
			assert.NotEmpty(t, img.Src, "hydrated image must be renderable")
			_, pending := ParsePendingRef(img.Src)
			assert.False(t, pending, "hydrated image must not show the sentinel")
		}
		return true
	})

	reprepared, err := PrepareForSave(hydrated)
	require.NoError(t, err)

	var want, got []string
	prepared.Walk(func(n *Node) bool {
		if n.Type == TypeImage {
			want = append(want, ParseImageAttrs(n.Attrs).PersistedSrc)
		}
		return true
	})
	reprepared.Walk(func(n *Node) bool {
		if n.Type == TypeImage {
			got = append(got, ParseImageAttrs(n.Attrs).PersistedSrc)
		}
		return true
	})
	assert.Equal(t, want, got)
}

func TestCloneDetaches(t *testing.T) {
	doc := imageDoc(ImageAttrs{Src: "/uploads/a.png"})
	clone, err := Clone(doc)
	require.NoError(t, err)

	clone.Content[1].Attrs[AttrSrc] = "/uploads/b.png"
	assert.Equal(t, "/uploads/a.png", firstImage(t, doc).Src)
}
