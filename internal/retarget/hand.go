package retarget

import "github.com/normanking/cortexpuppet/internal/avatar3d"

// WristRotation composes the wrist: Z follows the forearm (body pose), X and
// Y come from the hand solver. Without a body pose this frame the last pose Z
// held in the rig state is used.
func WristRotation(rig *avatar3d.Rig, side avatar3d.Side, hand *HandRig, pose *PoseRig) avatar3d.Euler {
	var z float32
	switch {
	case pose != nil:
		z = pose.HandZ(side)
	case rig != nil && rig.State != nil:
		z = rig.State.WristZ[side]
	}
	return avatar3d.Euler{X: hand.Wrist.X, Y: hand.Wrist.Y, Z: z}
}

func rigHand(rig *avatar3d.Rig, side avatar3d.Side, hand *HandRig, pose *PoseRig, t Tuning) {
	RigRotation(rig, avatar3d.WristBone(side), WristRotation(rig, side, hand, pose), t.DefaultDampener, t.DefaultLerp)

	for j := avatar3d.FingerJoint(0); j < avatar3d.FingerJointCount; j++ {
		rot, ok := hand.Fingers[j]
		if !ok {
			continue
		}
		RigRotation(rig, avatar3d.HandBone(side, j), rot, t.DefaultDampener, t.DefaultLerp)
	}
}
