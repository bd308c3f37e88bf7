package avatar3d

import "github.com/go-gl/mathgl/mgl32"

// Transform is the local pose of one bone node.
type Transform struct {
	Rotation mgl32.Quat
	Position mgl32.Vec3
}

// Skeleton maps canonical bones to the transforms of a loaded model. Bones
// the model lacks have no entry.
type Skeleton struct {
	bones [BoneCount]*Transform
}

// NewSkeleton builds a skeleton from rest transforms.
func NewSkeleton(rest map[Bone]Transform) *Skeleton {
	s := &Skeleton{}
	for bone, t := range rest {
		if !bone.Valid() {
			continue
		}
		t := t
		if t.Rotation.Len() == 0 {
			t.Rotation = mgl32.QuatIdent()
		}
		s.bones[bone] = &t
	}
	return s
}

// FullSkeleton returns a skeleton carrying every canonical bone at identity.
func FullSkeleton() *Skeleton {
	rest := make(map[Bone]Transform, BoneCount)
	for b := Bone(0); b < BoneCount; b++ {
		rest[b] = Transform{Rotation: mgl32.QuatIdent()}
	}
	return NewSkeleton(rest)
}

func (s *Skeleton) HasBone(b Bone) bool {
	return s != nil && b.Valid() && s.bones[b] != nil
}

// Bone returns the transform handle of b, or nil when the skeleton lacks it.
func (s *Skeleton) Bone(b Bone) *Transform {
	if !s.HasBone(b) {
		return nil
	}
	return s.bones[b]
}

// Bones lists the bones present, in enum order.
func (s *Skeleton) Bones() []Bone {
	var out []Bone
	for b := Bone(0); b < BoneCount; b++ {
		if s.HasBone(b) {
			out = append(out, b)
		}
	}
	return out
}

// Pose copies every present transform.
func (s *Skeleton) Pose() map[Bone]Transform {
	out := make(map[Bone]Transform)
	for b := Bone(0); b < BoneCount; b++ {
		if t := s.Bone(b); t != nil {
			out[b] = *t
		}
	}
	return out
}
