package pipeline

import (
	"fmt"
	"testing"
)

func TestVisitedSet(t *testing.T) {
	// An undersized filter reports many false positives; none may hide a new link.
	v := newVisitedSet(1)

	for i := 0; i < 2000; i++ {
		link := fmt.Sprintf("/matches/%d/team-a-vs-team-b", i)
		if !v.visit(link) {
			t.Fatalf("visit(%q) = false on first visit", link)
		}
	}
	for i := 0; i < 2000; i++ {
		link := fmt.Sprintf("/matches/%d/team-a-vs-team-b", i)
		if v.visit(link) {
			t.Fatalf("visit(%q) = true on second visit", link)
		}
	}
}
