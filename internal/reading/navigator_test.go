package reading_test

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/reading"
)

func makeImages(n int) []models.Image {
	images := make([]models.Image, n)
	for i := range images {
		images[i] = models.Image{ID: fmt.Sprintf("img_%012d", i)}
	}
	return images
}

func TestNavigatorAdvanceExhausts(t *testing.T) {
	nav := reading.NewNavigator(makeImages(3))

	if idx, total := nav.Position(); idx != 0 || total != 3 {
		t.Fatalf("Position() = %d,%d, want 0,3", idx, total)
	}
	if !nav.Advance() {
		t.Error("Advance() from 0 of 3 returned false")
	}
	if !nav.Advance() {
		t.Error("Advance() from 1 of 3 returned false")
	}
	// Last image: advancing reports exhaustion.
	if nav.Advance() {
		t.Error("Advance() past last image returned true")
	}
	if idx, _ := nav.Position(); idx != 2 {
		t.Errorf("index moved past end: %d", idx)
	}
}

func TestNavigatorRetreatStopsAtStart(t *testing.T) {
	nav := reading.NewNavigator(makeImages(2))

	if nav.Retreat() {
		t.Error("Retreat() at index 0 returned true")
	}
	nav.Advance()
	if !nav.Retreat() {
		t.Error("Retreat() from index 1 returned false")
	}
	if got := nav.Current().ID; got != "img_000000000000" {
		t.Errorf("Current().ID = %q after retreat to start", got)
	}
}

func TestNavigatorPeek(t *testing.T) {
	nav := reading.NewNavigator(makeImages(2))

	next, ok := nav.Peek()
	if !ok || next.ID != "img_000000000001" {
		t.Errorf("Peek() = %q,%v, want img_000000000001,true", next.ID, ok)
	}
	nav.Advance()
	if _, ok := nav.Peek(); ok {
		t.Error("Peek() on last image reported a next image")
	}
}

func TestNavigatorEmpty(t *testing.T) {
	nav := reading.NewNavigator(nil)
	if !nav.Empty() {
		t.Error("Empty() = false for no images")
	}
	if nav.Advance() || nav.Retreat() {
		t.Error("movement on an empty navigator succeeded")
	}
}

// TestNavigatorPositionInvariant walks random movement sequences and checks
// the index always stays inside the image list.
func TestNavigatorPositionInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		nav := reading.NewNavigator(makeImages(n))

		steps := rapid.IntRange(0, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(rt, "forward") {
				nav.Advance()
			} else {
				nav.Retreat()
			}
			idx, total := nav.Position()
			if total != n {
				rt.Fatalf("total changed: %d != %d", total, n)
			}
			if idx < 0 || idx >= n {
				rt.Fatalf("index %d out of range [0,%d)", idx, n)
			}
		}
	})
}
