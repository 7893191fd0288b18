package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is an entity's placement relative to its parent in the scene
// frame (origin at the centre, Y up).
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityTransform returns the transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// FromTranslation returns an identity transform moved to (x, y, z).
func FromTranslation(x, y, z float32) Transform {
	t := IdentityTransform()
	t.Translation = mgl32.Vec3{x, y, z}
	return t
}

// Mat4 composes translation, rotation and scale, in that order.
func (t Transform) Mat4() mgl32.Mat4 {
	tr := mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z())
	sc := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return tr.Mul4(t.Rotation.Normalize().Mat4()).Mul4(sc)
}

// TransformFromMat4 decomposes an affine matrix without shear.
func TransformFromMat4(m mgl32.Mat4) Transform {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()

	rot := m
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	if sx != 0 {
		rot.SetCol(0, m.Col(0).Mul(1/sx))
	}
	if sy != 0 {
		rot.SetCol(1, m.Col(1).Mul(1/sy))
	}
	if sz != 0 {
		rot.SetCol(2, m.Col(2).Mul(1/sz))
	}

	return Transform{
		Translation: mgl32.Vec3{m[12], m[13], m[14]},
		Rotation:    mgl32.Mat4ToQuat(rot),
		Scale:       mgl32.Vec3{sx, sy, sz},
	}
}
