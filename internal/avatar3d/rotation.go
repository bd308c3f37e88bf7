package avatar3d

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Euler is a rotation in radians. Order names the axis application order
// ("XYZ" when empty), with the angle of the first letter applied first.
type Euler struct {
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Z     float32 `json:"z"`
	Order string  `json:"rotationOrder,omitempty"`
}

var rotationOrders = map[string]mgl32.RotationOrder{
	"XYZ": mgl32.XYZ,
	"XZY": mgl32.XZY,
	"YXZ": mgl32.YXZ,
	"YZX": mgl32.YZX,
	"ZXY": mgl32.ZXY,
	"ZYX": mgl32.ZYX,
}

// Scale multiplies every axis by d, keeping the order.
func (e Euler) Scale(d float32) Euler {
	return Euler{X: e.X * d, Y: e.Y * d, Z: e.Z * d, Order: e.Order}
}

// Quat converts the rotation to a unit quaternion. Unknown orders fall back
// to XYZ.
func (e Euler) Quat() mgl32.Quat {
	order := strings.ToUpper(e.Order)
	if order == "" {
		order = "XYZ"
	}
	ro, ok := rotationOrders[order]
	if !ok {
		order, ro = "XYZ", mgl32.XYZ
	}

	angles := [3]float32{}
	for i, axis := range order {
		switch axis {
		case 'X':
			angles[i] = e.X
		case 'Y':
			angles[i] = e.Y
		case 'Z':
			angles[i] = e.Z
		}
	}
	return mgl32.AnglesToQuat(angles[0], angles[1], angles[2], ro).Normalize()
}

// Slerp interpolates from q1 toward q2 along the shorter arc. t is clamped
// to [0,1]; the bounds return the inputs unchanged.
func Slerp(q1, q2 mgl32.Quat, t float32) mgl32.Quat {
	if t <= 0 {
		return q1
	}
	if t >= 1 {
		return q2
	}
	if q1.Dot(q2) < 0 {
		q2 = q2.Scale(-1)
	}
	return mgl32.QuatSlerp(q1, q2, t).Normalize()
}

// LerpVec3 moves a toward b by t, clamped to [0,1].
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	t = clamp(t, 0, 1)
	if t == 1 {
		return b
	}
	return a.Add(b.Sub(a).Mul(t))
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
