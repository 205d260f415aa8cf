package raster

// Buffer holds two images: the committed current image and a staging image
// that edits are written to. Commit promotes staging to current by swapping
// slot indices; no pixel data is copied and no pointer is aliased.
//
// A Buffer is not safe for concurrent use; the owner serialises access.
type Buffer struct {
	slots   [2]*Image
	current int
	staged  bool
}

// NewBuffer returns a buffer whose slots are both empty images.
func NewBuffer() *Buffer {
	return NewBufferWithin(0)
}

// NewBufferWithin returns an empty buffer whose images are bounded by
// maxPixels. Zero means DefaultMaxPixels.
func NewBufferWithin(maxPixels int) *Buffer {
	return &Buffer{slots: [2]*Image{{MaxPixels: maxPixels}, {MaxPixels: maxPixels}}}
}

// Current returns the committed image.
func (b *Buffer) Current() *Image {
	return b.slots[b.current]
}

// Staging returns the image that the next edit should write into.
func (b *Buffer) Staging() *Image {
	return b.slots[1-b.current]
}

// MarkStaged records that Staging holds an uncommitted result.
func (b *Buffer) MarkStaged() {
	b.staged = true
}

// Pending reports whether Staging holds an uncommitted result.
func (b *Buffer) Pending() bool {
	return b.staged
}

// Commit promotes Staging to Current. The previous current image becomes the
// new staging area. Commit reports false when nothing was staged.
func (b *Buffer) Commit() bool {
	if !b.staged {
		return false
	}
	b.current = 1 - b.current
	b.staged = false
	return true
}

// Discard drops a staged result without promoting it.
func (b *Buffer) Discard() {
	b.staged = false
}

// StageFrom copies img into Staging and marks it staged.
func (b *Buffer) StageFrom(img *Image) {
	b.Staging().CopyFrom(img)
	b.staged = true
}
