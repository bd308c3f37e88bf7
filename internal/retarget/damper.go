package retarget

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/normanking/cortexpuppet/internal/avatar3d"
)

// RigRotation damps rotation by dampener, converts it to an orientation and
// slerps the bone toward it by lerpAmount. It reports false, touching
// nothing, when the rig is nil, lacks the bone or the rotation is not finite.
func RigRotation(rig *avatar3d.Rig, bone avatar3d.Bone, rotation avatar3d.Euler, dampener, lerpAmount float32) bool {
	if rig == nil || !rig.Skeleton.HasBone(bone) {
		return false
	}
	if !avatar3d.Finite(rotation.X, rotation.Y, rotation.Z) {
		return false
	}
	part := rig.Skeleton.Bone(bone)

	target := rotation.Scale(clamp01(dampener)).Quat()
	current := part.Rotation
	if q, ok := rig.State.Rotation(bone); ok {
		current = q
	}

	next := avatar3d.Slerp(current, target, clamp01(lerpAmount))
	if !avatar3d.Finite(next.W, next.V[0], next.V[1], next.V[2]) {
		return false
	}
	part.Rotation = next
	if rig.State != nil {
		rig.State.SetRotation(bone, next)
	}
	return true
}

// RigPosition damps each axis of position independently and lerps the bone
// toward the result by lerpAmount. Non-finite positions are skipped.
func RigPosition(rig *avatar3d.Rig, bone avatar3d.Bone, position, dampener mgl32.Vec3, lerpAmount float32) bool {
	if rig == nil || !rig.Skeleton.HasBone(bone) {
		return false
	}
	if !avatar3d.Finite(position[0], position[1], position[2]) {
		return false
	}
	part := rig.Skeleton.Bone(bone)

	target := mgl32.Vec3{
		position[0] * clamp01(dampener[0]),
		position[1] * clamp01(dampener[1]),
		position[2] * clamp01(dampener[2]),
	}
	part.Position = avatar3d.LerpVec3(part.Position, target, clamp01(lerpAmount))
	return true
}

// Uniform returns a per-axis dampener with the same factor on every axis.
func Uniform(d float32) mgl32.Vec3 {
	return mgl32.Vec3{d, d, d}
}

// clamp01 maps NaN to 0.
func clamp01(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
