package pagination

import "testing"

func TestNew(t *testing.T) {
	p := New([]int{1, 2, 3}, 1, 9, 12)
	if p.LastPage != 2 {
		t.Errorf("Expected last page 2, got %d", p.LastPage)
	}
	if p.Total != 12 {
		t.Errorf("Expected total 12, got %d", p.Total)
	}

	// An empty table still reports one page
	empty := New([]int{}, 1, 9, 0)
	if empty.LastPage != 1 {
		t.Errorf("Expected last page 1 for empty set, got %d", empty.LastPage)
	}
}

func TestOffset(t *testing.T) {
	cases := []struct {
		page, perPage, want int
	}{
		{1, 9, 0},
		{2, 9, 9},
		{3, 10, 20},
		{0, 9, 0},  // clamped
		{-5, 9, 0}, // clamped
	}
	for _, c := range cases {
		if got := Offset(c.page, c.perPage); got != c.want {
			t.Errorf("Offset(%d, %d) = %d, want %d", c.page, c.perPage, got, c.want)
		}
	}
}
