package team

import (
	"testing"
	"time"
)

func TestWindow_Query(t *testing.T) {
	now := time.Date(2026, 10, 16, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		window Window
		want   string
	}{
		{AllTime, "?startDate=all"},
		{1, "?startDate=2026-09-16&endDate=2026-10-16"},
		{3, "?startDate=2026-07-18&endDate=2026-10-16"},
		{12, "?startDate=2025-10-21&endDate=2026-10-16"},
	}

	for _, tt := range tests {
		t.Run(tt.window.String(), func(t *testing.T) {
			if got := tt.window.Query(now); got != tt.want {
				t.Errorf("Query() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWindow_Range(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for n := 1; n <= 24; n++ {
		start, end, ok := Window(n).Range(now)
		if !ok {
			t.Fatalf("Range(%d) ok = false", n)
		}
		if !end.Equal(now) {
			t.Errorf("Range(%d) end = %s, want today", n, end)
		}
		if want := now.AddDate(0, 0, -30*n); !start.Equal(want) {
			t.Errorf("Range(%d) start = %s, want %s", n, start, want)
		}
	}

	if _, _, ok := AllTime.Range(now); ok {
		t.Error("AllTime.Range() ok = true, want sentinel")
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"0", AllTime, false},
		{"3", 3, false},
		{"-1", 0, true},
		{"three", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseWindow(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWindow(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseWindow(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
