package document

// PrepareForSave normalizes a document immediately before persistence.
// The returned tree is a detached deep clone; the input is never mutated.
//
// For every image node:
//   - a transient visible reference with an upload key is rewritten to the
//     pending sentinel in both the visible and durable fields, status pending;
//   - a transient reference with no upload key is unrecoverable: the
//     reference is cleared and the status set to error;
//   - a visible reference that is already the pending sentinel keeps it in
//     both fields, status pending, restoring the upload key if absent;
//   - a stable reference is copied into the durable field, status complete.
//
// The invariant this enforces: no transient reference ever reaches storage.
func PrepareForSave(doc *Node) (*Node, error) {
	out, err := Clone(doc)
	if err != nil {
		return nil, err
	}
	out.Walk(func(n *Node) bool {
		if n.Type == TypeImage {
			prepareImage(n)
		}
		return true
	})
	return out, nil
}

func prepareImage(n *Node) {
	if n.Attrs == nil {
		n.Attrs = map[string]any{}
	}
	img := ParseImageAttrs(n.Attrs)

	if IsTransientRef(img.Src) {
		if img.UploadKey != "" {
			ref := PendingRef(img.UploadKey)
			n.Attrs[AttrSrc] = ref
			n.Attrs[AttrUploadPersistedSrc] = ref
			n.Attrs[AttrUploadStatus] = UploadStatusPending
			return
		}
		n.Attrs[AttrSrc] = ""
		delete(n.Attrs, AttrUploadPersistedSrc)
		n.Attrs[AttrUploadStatus] = UploadStatusError
		return
	}

	if key, ok := ParsePendingRef(img.Src); ok {
		// An unresolved upload round-tripped through a client save. The
		// sentinel is not a stable reference; the node stays pending.
		if img.UploadKey == "" {
			n.Attrs[AttrUploadKey] = key
		}
		n.Attrs[AttrUploadPersistedSrc] = img.Src
		n.Attrs[AttrUploadStatus] = UploadStatusPending
		return
	}

	if img.Src != "" {
		n.Attrs[AttrUploadPersistedSrc] = img.Src
		n.Attrs[AttrUploadStatus] = UploadStatusComplete
	}
}

// HydrateForEdit restores a persisted document to an editable state. The
// returned tree is a detached deep clone; the input is never mutated.
//
// For every image node whose durable field holds a pending sentinel, the
// upload key is restored if absent, the status set to pending, and any
// non-renderable visible reference (empty, the sentinel itself, or another
// pending sentinel) replaced with a generated placeholder graphic. A real
// durable reference is copied back to the visible field, status complete.
func HydrateForEdit(doc *Node) (*Node, error) {
	out, err := Clone(doc)
	if err != nil {
		return nil, err
	}
	out.Walk(func(n *Node) bool {
		if n.Type == TypeImage {
			hydrateImage(n)
		}
		return true
	})
	return out, nil
}

func hydrateImage(n *Node) {
	if n.Attrs == nil {
		n.Attrs = map[string]any{}
	}
	img := ParseImageAttrs(n.Attrs)

	if key, ok := ParsePendingRef(img.PersistedSrc); ok {
		if img.UploadKey == "" {
			n.Attrs[AttrUploadKey] = key
		}
		n.Attrs[AttrUploadStatus] = UploadStatusPending

		_, srcIsPending := ParsePendingRef(img.Src)
		if img.Src == "" || img.Src == img.PersistedSrc || srcIsPending {
			n.Attrs[AttrSrc] = PlaceholderRef()
		}
		return
	}

	if img.PersistedSrc != "" {
		n.Attrs[AttrSrc] = img.PersistedSrc
		n.Attrs[AttrUploadStatus] = UploadStatusComplete
	}
}
