// Package pointcloud holds the in-memory point cloud model: loading,
// bounding volume computation and density reduction for lower device tiers.
package pointcloud

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Point is a single sample of the reconstructed surface.
// Immutable once loaded.
type Point struct {
	Position mgl32.Vec3
	Color    [3]uint8
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

// Center returns the box center.
func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents per axis.
func (b Box) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Cloud is an ordered, immutable set of points plus derived metadata.
// Whether color is present is decided once at load time and never
// re-checked per point.
type Cloud struct {
	ID       uuid.UUID
	Points   []Point
	Bounds   Box
	HasColor bool
}

// New builds a cloud from loaded points and computes its bounding box.
func New(points []Point, hasColor bool) *Cloud {
	c := &Cloud{
		ID:       uuid.New(),
		Points:   points,
		HasColor: hasColor,
	}
	c.Bounds = computeBounds(points)
	return c
}

// Size returns the number of points.
func (c *Cloud) Size() int {
	return len(c.Points)
}

func computeBounds(points []Point) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{Min: points[0].Position, Max: points[0].Position}
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			if p.Position[i] < b.Min[i] {
				b.Min[i] = p.Position[i]
			}
			if p.Position[i] > b.Max[i] {
				b.Max[i] = p.Position[i]
			}
		}
	}
	return b
}

// Degenerate reports whether any point carries non-finite coordinates.
// Such clouds cannot be spatially indexed. A full scan, so callers run
// it once per load, off the frame loop.
func (c *Cloud) Degenerate() bool {
	for _, p := range c.Points {
		for i := 0; i < 3; i++ {
			if math32.IsNaN(p.Position[i]) || math32.IsInf(p.Position[i], 0) {
				return true
			}
		}
	}
	return false
}
