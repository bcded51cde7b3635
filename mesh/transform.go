package mesh

import "github.com/go-gl/mathgl/mgl64"

// Transform represents an object-to-world transform
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Apply transforms a local-space point into world space.
// Scale is applied first, then rotation, then translation.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	scaled := mgl64.Vec3{
		p.X() * t.Scale.X(),
		p.Y() * t.Scale.Y(),
		p.Z() * t.Scale.Z(),
	}

	return t.Rotation.Rotate(scaled).Add(t.Position)
}
