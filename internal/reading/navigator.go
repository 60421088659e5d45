package reading

import "github.com/RohitKattimani/MedReadApp/internal/models"

// Navigator sequences through a session's fixed ordered image list.
type Navigator struct {
	images []models.Image
	index  int
}

// NewNavigator starts at the first image of the given order.
func NewNavigator(images []models.Image) *Navigator {
	return &Navigator{images: images}
}

// Current returns the image under review. Callers must not invoke it on an
// empty navigator; the controller fails fast before that can happen.
func (n *Navigator) Current() models.Image {
	return n.images[n.index]
}

// Advance moves to the next image. It returns false exactly when called on
// the last image: the session is exhausted, which triggers completion rather
// than an error.
func (n *Navigator) Advance() bool {
	if n.index >= len(n.images)-1 {
		return false
	}
	n.index++
	return true
}

// Retreat moves back one image for review navigation; it never re-submits.
// Returns false at the first image.
func (n *Navigator) Retreat() bool {
	if n.index == 0 {
		return false
	}
	n.index--
	return true
}

// Peek returns the image after the current one, if any. Used for the
// one-deep prefetch.
func (n *Navigator) Peek() (models.Image, bool) {
	if n.index+1 >= len(n.images) {
		return models.Image{}, false
	}
	return n.images[n.index+1], true
}

// Position returns the zero-based index and the total count.
func (n *Navigator) Position() (index, total int) {
	return n.index, len(n.images)
}

// Empty reports whether there are no images at all.
func (n *Navigator) Empty() bool {
	return len(n.images) == 0
}
