package mesh

import "github.com/go-gl/mathgl/mgl64"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// BoundsOf returns the bounding box of a set of points.
// The zero AABB is returned for an empty set.
func BoundsOf(points []mgl64.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	bounds := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < bounds.Min[i] {
				bounds.Min[i] = p[i]
			}
			if p[i] > bounds.Max[i] {
				bounds.Max[i] = p[i]
			}
		}
	}

	return bounds
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Size returns the per-axis lengths of the box
func (a AABB) Size() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

// Corners enumerates the 8 corners of the box
func (a AABB) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{a.Min.X(), a.Min.Y(), a.Min.Z()},
		{a.Max.X(), a.Min.Y(), a.Min.Z()},
		{a.Min.X(), a.Max.Y(), a.Min.Z()},
		{a.Max.X(), a.Max.Y(), a.Min.Z()},
		{a.Min.X(), a.Min.Y(), a.Max.Z()},
		{a.Max.X(), a.Min.Y(), a.Max.Z()},
		{a.Min.X(), a.Max.Y(), a.Max.Z()},
		{a.Max.X(), a.Max.Y(), a.Max.Z()},
	}
}

// ProjectOnto projects the 8 corners of the box onto an axis, measured
// relative to a reference point, and returns the projected interval.
func (a AABB) ProjectOnto(ref, axis mgl64.Vec3) (float64, float64) {
	corners := a.Corners()

	outMin := corners[0].Sub(ref).Dot(axis)
	outMax := outMin
	for _, corner := range corners[1:] {
		proj := corner.Sub(ref).Dot(axis)
		if proj < outMin {
			outMin = proj
		}
		if proj > outMax {
			outMax = proj
		}
	}

	return outMin, outMax
}
