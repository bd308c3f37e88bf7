package retarget

import (
	"github.com/normanking/cortexpuppet/internal/avatar3d"
)

// Frame is one solved estimate for a single tracked person. Every modality
// is optional; a nil modality leaves the matching avatar parts untouched.
type Frame struct {
	Face      *FaceRig `json:"face,omitempty"`
	Pose      *PoseRig `json:"pose,omitempty"`
	LeftHand  *HandRig `json:"leftHand,omitempty"`
	RightHand *HandRig `json:"rightHand,omitempty"`
}

// Empty reports whether the frame carries no modality at all.
func (f *Frame) Empty() bool {
	return f == nil || (f.Face == nil && f.Pose == nil && f.LeftHand == nil && f.RightHand == nil)
}

// Hand returns the hand rig of a side.
func (f *Frame) Hand(side avatar3d.Side) *HandRig {
	if f == nil {
		return nil
	}
	if side == avatar3d.SideRight {
		return f.RightHand
	}
	return f.LeftHand
}

// EyePair holds one value per eye. Solver output uses openness (1 = open);
// blink weights use closure (1 = closed).
type EyePair struct {
	L float32 `json:"l"`
	R float32 `json:"r"`
}

type Pupil struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// MouthShape carries the five vowel viseme weights.
type MouthShape struct {
	A float32 `json:"A"`
	E float32 `json:"E"`
	I float32 `json:"I"`
	O float32 `json:"O"`
	U float32 `json:"U"`
}

// Weight returns the weight of a viseme preset, zero for other presets.
func (m MouthShape) Weight(p avatar3d.Preset) float32 {
	switch p {
	case avatar3d.PresetA:
		return m.A
	case avatar3d.PresetE:
		return m.E
	case avatar3d.PresetI:
		return m.I
	case avatar3d.PresetO:
		return m.O
	case avatar3d.PresetU:
		return m.U
	default:
		return 0
	}
}

type Mouth struct {
	Shape MouthShape `json:"shape"`
}

type FaceRig struct {
	Head  avatar3d.Euler `json:"head"`
	Eye   EyePair        `json:"eye"`
	Pupil Pupil          `json:"pupil"`
	Mouth Mouth          `json:"mouth"`
}

type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

type HipsRig struct {
	Rotation avatar3d.Euler `json:"rotation"`
	Position Position       `json:"position"`
}

// PoseRig is the solved body pose. LeftHand and RightHand only contribute
// their Z axis, to the wrists.
type PoseRig struct {
	Hips          HipsRig        `json:"Hips"`
	Spine         avatar3d.Euler `json:"Spine"`
	LeftUpperArm  avatar3d.Euler `json:"LeftUpperArm"`
	LeftLowerArm  avatar3d.Euler `json:"LeftLowerArm"`
	RightUpperArm avatar3d.Euler `json:"RightUpperArm"`
	RightLowerArm avatar3d.Euler `json:"RightLowerArm"`
	LeftUpperLeg  avatar3d.Euler `json:"LeftUpperLeg"`
	LeftLowerLeg  avatar3d.Euler `json:"LeftLowerLeg"`
	RightUpperLeg avatar3d.Euler `json:"RightUpperLeg"`
	RightLowerLeg avatar3d.Euler `json:"RightLowerLeg"`
	LeftHand      avatar3d.Euler `json:"LeftHand"`
	RightHand     avatar3d.Euler `json:"RightHand"`
}

// HandZ returns the pose-derived Z rotation of a hand.
func (p *PoseRig) HandZ(side avatar3d.Side) float32 {
	if side == avatar3d.SideRight {
		return p.RightHand.Z
	}
	return p.LeftHand.Z
}

// HandRig is the solved rotation set of one hand.
type HandRig struct {
	Wrist   avatar3d.Euler                          `json:"wrist"`
	Fingers map[avatar3d.FingerJoint]avatar3d.Euler `json:"fingers"`
}
