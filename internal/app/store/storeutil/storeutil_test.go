package storeutil

import (
	"net/url"
	"testing"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name              string
		number, size, max int64
		want              Page
	}{
		{"defaults", 0, 0, 100, Page{1, DefaultSize}},
		{"clamped to max", 3, 500, 100, Page{3, 100}},
		{"default above max", 1, 0, 10, Page{1, 10}},
		{"no max", 2, 500, 0, Page{2, 500}},
		{"negative number", -4, 5, 100, Page{1, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPage(tt.number, tt.size, tt.max); got != tt.want {
				t.Errorf("NewPage(%d, %d, %d) = %+v, want %+v", tt.number, tt.size, tt.max, got, tt.want)
			}
		})
	}
}

func TestFromQuery(t *testing.T) {
	p := FromQuery(url.Values{"page": {"3"}, "limit": {"10"}}, 100)
	if p != (Page{3, 10}) {
		t.Errorf("FromQuery = %+v", p)
	}
	if p.Skip() != 20 {
		t.Errorf("Skip() = %d, want 20", p.Skip())
	}
	opts := p.FindOptions()
	if *opts.Limit != 10 || *opts.Skip != 20 {
		t.Errorf("FindOptions limit=%d skip=%d", *opts.Limit, *opts.Skip)
	}

	if got := FromQuery(url.Values{"page": {"x"}, "limit": {"-1"}}, 100); got != (Page{1, DefaultSize}) {
		t.Errorf("FromQuery(invalid) = %+v", got)
	}
}

func TestPages(t *testing.T) {
	p := Page{Number: 1, Size: 50}
	for total, want := range map[int64]int64{0: 1, 1: 1, 50: 1, 51: 2, 150: 3} {
		if got := p.Pages(total); got != want {
			t.Errorf("Pages(%d) = %d, want %d", total, got, want)
		}
	}
}
