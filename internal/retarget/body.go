package retarget

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/normanking/cortexpuppet/internal/avatar3d"
)

type limb struct {
	bone     avatar3d.Bone
	rotation func(p *PoseRig) avatar3d.Euler
}

var limbs = []limb{
	{avatar3d.BoneRightUpperArm, func(p *PoseRig) avatar3d.Euler { return p.RightUpperArm }},
	{avatar3d.BoneRightLowerArm, func(p *PoseRig) avatar3d.Euler { return p.RightLowerArm }},
	{avatar3d.BoneLeftUpperArm, func(p *PoseRig) avatar3d.Euler { return p.LeftUpperArm }},
	{avatar3d.BoneLeftLowerArm, func(p *PoseRig) avatar3d.Euler { return p.LeftLowerArm }},
	{avatar3d.BoneLeftUpperLeg, func(p *PoseRig) avatar3d.Euler { return p.LeftUpperLeg }},
	{avatar3d.BoneLeftLowerLeg, func(p *PoseRig) avatar3d.Euler { return p.LeftLowerLeg }},
	{avatar3d.BoneRightUpperLeg, func(p *PoseRig) avatar3d.Euler { return p.RightUpperLeg }},
	{avatar3d.BoneRightLowerLeg, func(p *PoseRig) avatar3d.Euler { return p.RightLowerLeg }},
}

// HipsTarget maps a solved hip position into avatar space: camera X and Z
// are mirrored and the hip-relative height is lifted by heightOffset.
func HipsTarget(p Position, heightOffset float32) mgl32.Vec3 {
	return mgl32.Vec3{-p.X, p.Y + heightOffset, -p.Z}
}

func rigPose(rig *avatar3d.Rig, pose *PoseRig, t Tuning) {
	RigRotation(rig, avatar3d.BoneHips, pose.Hips.Rotation, t.HipsDampener, t.DefaultLerp)
	RigPosition(rig, avatar3d.BoneHips,
		HipsTarget(pose.Hips.Position, t.HipsHeightOffset),
		Uniform(t.DefaultDampener),
		t.HipsPositionLerp,
	)

	// One solved spine rotation spread over two bones.
	RigRotation(rig, avatar3d.BoneChest, pose.Spine, t.ChestDampener, t.TorsoLerp)
	RigRotation(rig, avatar3d.BoneSpine, pose.Spine, t.SpineDampener, t.TorsoLerp)

	for _, l := range limbs {
		RigRotation(rig, l.bone, l.rotation(pose), t.LimbDampener, t.LimbLerp)
	}

	if rig != nil && rig.State != nil {
		rig.State.WristZ[avatar3d.SideLeft] = pose.LeftHand.Z
		rig.State.WristZ[avatar3d.SideRight] = pose.RightHand.Z
	}
}
