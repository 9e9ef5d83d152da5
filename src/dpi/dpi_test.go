package dpi

import (
	"errors"
	"image"
	"math"
	"testing"
)

type fakeLookup struct {
	x, y uint32
	err  error
}

func (f fakeLookup) DPIForPoint(image.Point) (uint32, uint32, error) { return f.x, f.y, f.err }

func TestScaleForPoint(t *testing.T) {
	tests := []struct {
		name   string
		lookup fakeLookup
		want   Scale
	}{
		{"baseline", fakeLookup{x: 96, y: 96}, Scale{1, 1}},
		{"150 percent", fakeLookup{x: 144, y: 144}, Scale{1.5, 1.5}},
		{"200 percent", fakeLookup{x: 192, y: 192}, Scale{2, 2}},
		{"lookup failure", fakeLookup{err: errors.New("boom")}, Identity},
		{"zero dpi", fakeLookup{}, Identity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewResolver(tt.lookup).ScaleForPoint(image.Pt(10, 10))
			if got != tt.want {
				t.Errorf("ScaleForPoint = %+v, expected %+v", got, tt.want)
			}
		})
	}
}

func TestScaleValid(t *testing.T) {
	cases := []struct {
		s    Scale
		want bool
	}{
		{Scale{1, 1}, true},
		{Scale{0, 1}, false},
		{Scale{1, -1}, false},
		{Scale{math.NaN(), 1}, false},
		{Scale{1, math.Inf(1)}, false},
	}
	for _, c := range cases {
		if c.s.Valid() != c.want {
			t.Errorf("%+v.Valid() = %v, expected %v", c.s, c.s.Valid(), c.want)
		}
	}
}

func TestToLogical(t *testing.T) {
	r := image.Rect(100, 100, 300, 250)
	got := Scale{2, 2}.ToLogical(r)
	want := LogicalRect{Left: 50, Top: 50, Width: 100, Height: 75}
	if got != want {
		t.Errorf("ToLogical = %+v, expected %+v", got, want)
	}
	if got.Right() != 150 || got.Bottom() != 125 {
		t.Errorf("Right/Bottom = %v/%v", got.Right(), got.Bottom())
	}
}
