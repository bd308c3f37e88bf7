package avatar3d

import (
	"fmt"
	"strings"
)

// Bone identifies a canonical humanoid bone. The set is closed; skeletons
// report which of these bones they actually carry through HasBone.
type Bone int

const (
	BoneHips Bone = iota
	BoneSpine
	BoneChest
	BoneUpperChest
	BoneNeck
	BoneHead

	BoneLeftShoulder
	BoneLeftUpperArm
	BoneLeftLowerArm
	BoneLeftHand
	BoneRightShoulder
	BoneRightUpperArm
	BoneRightLowerArm
	BoneRightHand

	BoneLeftUpperLeg
	BoneLeftLowerLeg
	BoneLeftFoot
	BoneRightUpperLeg
	BoneRightLowerLeg
	BoneRightFoot

	BoneLeftThumbProximal
	BoneLeftThumbIntermediate
	BoneLeftThumbDistal
	BoneLeftIndexProximal
	BoneLeftIndexIntermediate
	BoneLeftIndexDistal
	BoneLeftMiddleProximal
	BoneLeftMiddleIntermediate
	BoneLeftMiddleDistal
	BoneLeftRingProximal
	BoneLeftRingIntermediate
	BoneLeftRingDistal
	BoneLeftLittleProximal
	BoneLeftLittleIntermediate
	BoneLeftLittleDistal

	BoneRightThumbProximal
	BoneRightThumbIntermediate
	BoneRightThumbDistal
	BoneRightIndexProximal
	BoneRightIndexIntermediate
	BoneRightIndexDistal
	BoneRightMiddleProximal
	BoneRightMiddleIntermediate
	BoneRightMiddleDistal
	BoneRightRingProximal
	BoneRightRingIntermediate
	BoneRightRingDistal
	BoneRightLittleProximal
	BoneRightLittleIntermediate
	BoneRightLittleDistal

	BoneCount
)

// BoneNames uses the VRM humanoid naming.
var BoneNames = [BoneCount]string{
	"hips",
	"spine",
	"chest",
	"upperChest",
	"neck",
	"head",

	"leftShoulder",
	"leftUpperArm",
	"leftLowerArm",
	"leftHand",
	"rightShoulder",
	"rightUpperArm",
	"rightLowerArm",
	"rightHand",

	"leftUpperLeg",
	"leftLowerLeg",
	"leftFoot",
	"rightUpperLeg",
	"rightLowerLeg",
	"rightFoot",

	"leftThumbProximal",
	"leftThumbIntermediate",
	"leftThumbDistal",
	"leftIndexProximal",
	"leftIndexIntermediate",
	"leftIndexDistal",
	"leftMiddleProximal",
	"leftMiddleIntermediate",
	"leftMiddleDistal",
	"leftRingProximal",
	"leftRingIntermediate",
	"leftRingDistal",
	"leftLittleProximal",
	"leftLittleIntermediate",
	"leftLittleDistal",

	"rightThumbProximal",
	"rightThumbIntermediate",
	"rightThumbDistal",
	"rightIndexProximal",
	"rightIndexIntermediate",
	"rightIndexDistal",
	"rightMiddleProximal",
	"rightMiddleIntermediate",
	"rightMiddleDistal",
	"rightRingProximal",
	"rightRingIntermediate",
	"rightRingDistal",
	"rightLittleProximal",
	"rightLittleIntermediate",
	"rightLittleDistal",
}

func (b Bone) Valid() bool {
	return b >= 0 && b < BoneCount
}

func (b Bone) String() string {
	if !b.Valid() {
		return fmt.Sprintf("bone(%d)", int(b))
	}
	return BoneNames[b]
}

// BoneFromName resolves a humanoid bone name, ignoring case. It returns -1
// and false for names outside the canonical set.
func BoneFromName(name string) (Bone, bool) {
	for i, n := range BoneNames {
		if strings.EqualFold(n, name) {
			return Bone(i), true
		}
	}
	return -1, false
}

func (b Bone) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid bone %d", int(b))
	}
	return []byte(BoneNames[b]), nil
}

func (b *Bone) UnmarshalText(text []byte) error {
	bone, ok := BoneFromName(string(text))
	if !ok {
		return fmt.Errorf("unknown bone %q", string(text))
	}
	*b = bone
	return nil
}

// Side is a body side as seen from the tracked person.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// FingerJoint is a side-agnostic finger bone. HandBone maps it onto the
// canonical bone of a given side.
type FingerJoint int

const (
	ThumbProximal FingerJoint = iota
	ThumbIntermediate
	ThumbDistal
	IndexProximal
	IndexIntermediate
	IndexDistal
	MiddleProximal
	MiddleIntermediate
	MiddleDistal
	RingProximal
	RingIntermediate
	RingDistal
	LittleProximal
	LittleIntermediate
	LittleDistal
	FingerJointCount
)

var fingerJointNames = [FingerJointCount]string{
	"ThumbProximal",
	"ThumbIntermediate",
	"ThumbDistal",
	"IndexProximal",
	"IndexIntermediate",
	"IndexDistal",
	"MiddleProximal",
	"MiddleIntermediate",
	"MiddleDistal",
	"RingProximal",
	"RingIntermediate",
	"RingDistal",
	"LittleProximal",
	"LittleIntermediate",
	"LittleDistal",
}

func (j FingerJoint) String() string {
	if j < 0 || j >= FingerJointCount {
		return fmt.Sprintf("finger(%d)", int(j))
	}
	return fingerJointNames[j]
}

func (j FingerJoint) MarshalText() ([]byte, error) {
	if j < 0 || j >= FingerJointCount {
		return nil, fmt.Errorf("invalid finger joint %d", int(j))
	}
	return []byte(fingerJointNames[j]), nil
}

func (j *FingerJoint) UnmarshalText(text []byte) error {
	name := string(text)
	// Solver output prefixes joints with the side ("LeftRingProximal").
	name = strings.TrimPrefix(strings.TrimPrefix(name, "Left"), "Right")
	for i, n := range fingerJointNames {
		if strings.EqualFold(n, name) {
			*j = FingerJoint(i)
			return nil
		}
	}
	return fmt.Errorf("unknown finger joint %q", string(text))
}

// HandBone returns the canonical bone for a finger joint on the given side.
func HandBone(side Side, joint FingerJoint) Bone {
	if side == SideRight {
		return BoneRightThumbProximal + Bone(joint)
	}
	return BoneLeftThumbProximal + Bone(joint)
}

// WristBone returns the hand root bone of a side.
func WristBone(side Side) Bone {
	if side == SideRight {
		return BoneRightHand
	}
	return BoneLeftHand
}
