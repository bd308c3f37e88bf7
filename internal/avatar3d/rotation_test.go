package avatar3d

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestEulerQuat(t *testing.T) {
	t.Run("zero is identity", func(t *testing.T) {
		assert.True(t, Euler{}.Quat().ApproxEqual(mgl32.QuatIdent()))
	})

	t.Run("single axis matches axis rotation", func(t *testing.T) {
		q := Euler{Y: math.Pi / 2}.Quat()
		want := mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0})
		assert.True(t, q.ApproxEqualThreshold(want, 1e-5))
	})

	t.Run("unknown order falls back to XYZ", func(t *testing.T) {
		e := Euler{X: 0.3, Y: -0.2, Z: 0.5}
		bad := e
		bad.Order = "QQQ"
		assert.True(t, e.Quat().ApproxEqual(bad.Quat()))
	})

	t.Run("order changes composition", func(t *testing.T) {
		e := Euler{X: 0.6, Y: 0.4, Z: 0.2}
		zyx := e
		zyx.Order = "ZYX"
		assert.False(t, e.Quat().ApproxEqualThreshold(zyx.Quat(), 1e-4))
	})

	t.Run("unit length", func(t *testing.T) {
		q := Euler{X: 2.1, Y: -1.3, Z: 0.7, Order: "yxz"}.Quat()
		assert.InDelta(t, 1.0, float64(q.Len()), 1e-5)
	})
}

func TestSlerpBounds(t *testing.T) {
	from := Euler{X: 0.2}.Quat()
	to := Euler{Y: 1.1, Z: -0.4}.Quat()

	assert.Equal(t, from, Slerp(from, to, 0))
	assert.Equal(t, to, Slerp(from, to, 1))
	assert.Equal(t, from, Slerp(from, to, -3))
	assert.Equal(t, to, Slerp(from, to, 7))

	mid := Slerp(from, to, 0.5)
	assert.InDelta(t, 1.0, float64(mid.Len()), 1e-5)
}

func TestSlerpShortestArc(t *testing.T) {
	from := mgl32.QuatIdent()
	to := Euler{Z: 0.4}.Quat().Scale(-1)

	mid := Slerp(from, to, 0.5)
	want := Euler{Z: 0.2}.Quat()
	assert.True(t, mid.ApproxEqualThreshold(want, 1e-4), "got %v want %v", mid, want)
}

func TestLerpVec3(t *testing.T) {
	a := mgl32.Vec3{0, 0, 0}
	b := mgl32.Vec3{1, 2, -4}

	assert.Equal(t, a, LerpVec3(a, b, 0))
	assert.Equal(t, b, LerpVec3(a, b, 1))
	assert.True(t, LerpVec3(a, b, 0.25).ApproxEqual(mgl32.Vec3{0.25, 0.5, -1}))
}
