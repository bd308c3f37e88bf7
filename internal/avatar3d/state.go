package avatar3d

import "github.com/go-gl/mathgl/mgl32"

// RigState is the smoothing memory of one avatar. It is owned by the avatar
// and handed to the retargeters by reference, so avatars never share it.
type RigState struct {
	// bones holds the last applied orientation per bone, created on first write.
	bones map[Bone]mgl32.Quat

	// Gaze is the last blended look direction.
	Gaze LookTarget

	// WristZ holds the last body-pose hand Z per side, used when a hand frame
	// arrives without a body pose.
	WristZ [2]float32
}

func NewRigState() *RigState {
	return &RigState{}
}

// Rotation returns the last applied orientation of b.
func (s *RigState) Rotation(b Bone) (mgl32.Quat, bool) {
	if s == nil || s.bones == nil {
		return mgl32.Quat{}, false
	}
	q, ok := s.bones[b]
	return q, ok
}

func (s *RigState) SetRotation(b Bone, q mgl32.Quat) {
	if s.bones == nil {
		s.bones = make(map[Bone]mgl32.Quat)
	}
	s.bones[b] = q
}

// TrackedBones reports how many bones have damping state.
func (s *RigState) TrackedBones() int {
	if s == nil {
		return 0
	}
	return len(s.bones)
}
