// Package dpi resolves the effective scale factor of the monitor under a screen point
// so physical pixels can be converted to logical units.
package dpi

import (
	"image"
	"log"
	"math"
)

// BaselineDPI is the DPI at which one logical unit equals one physical pixel.
const BaselineDPI = 96.0

// Scale is a per-axis physical-to-logical factor.
type Scale struct {
	X, Y float64
}

// Identity is the scale used when a monitor cannot be resolved.
var Identity = Scale{X: 1, Y: 1}

// Valid reports whether both axes can be divided by.
func (s Scale) Valid() bool {
	return s.X > 0 && s.Y > 0 && !math.IsNaN(s.X) && !math.IsNaN(s.Y) && !math.IsInf(s.X, 0) && !math.IsInf(s.Y, 0)
}

// LogicalRect is a rectangle in presentation-layer units.
type LogicalRect struct {
	Left, Top, Width, Height float64
}

func (r LogicalRect) Right() float64  { return r.Left + r.Width }
func (r LogicalRect) Bottom() float64 { return r.Top + r.Height }

// ToLogical converts a physical rectangle. The caller must check Valid first.
func (s Scale) ToLogical(r image.Rectangle) LogicalRect {
	return LogicalRect{
		Left:   float64(r.Min.X) / s.X,
		Top:    float64(r.Min.Y) / s.Y,
		Width:  float64(r.Dx()) / s.X,
		Height: float64(r.Dy()) / s.Y,
	}
}

// ToPhysical converts a logical point back to device pixels.
func (s Scale) ToPhysical(x, y float64) image.Point {
	return image.Pt(int(math.Round(x*s.X)), int(math.Round(y*s.Y)))
}

// MonitorLookup finds the effective DPI of the monitor containing p.
type MonitorLookup interface {
	DPIForPoint(p image.Point) (dpiX, dpiY uint32, err error)
}

// Resolver turns monitor DPI into a Scale.
type Resolver struct {
	lookup MonitorLookup
}

// NewResolver uses the platform lookup when lookup is nil.
func NewResolver(lookup MonitorLookup) *Resolver {
	if lookup == nil {
		lookup = platformLookup{}
	}
	return &Resolver{lookup: lookup}
}

// ScaleForPoint returns dpi/96 for the monitor under p, or Identity on failure.
func (r *Resolver) ScaleForPoint(p image.Point) Scale {
	x, y, err := r.lookup.DPIForPoint(p)
	if err != nil {
		log.Printf("WARNING: DPI lookup failed at (%d,%d): %v; using 1.0", p.X, p.Y, err)
		return Identity
	}
	if x == 0 || y == 0 {
		log.Printf("WARNING: DPI lookup at (%d,%d) returned %dx%d; using 1.0", p.X, p.Y, x, y)
		return Identity
	}
	return Scale{X: float64(x) / BaselineDPI, Y: float64(y) / BaselineDPI}
}
