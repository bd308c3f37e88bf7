// Package avatar3d models puppeted humanoid avatars: the canonical bone and
// blendshape sets, the per-avatar skeleton and face rig, and the smoothing
// state the retargeters carry between frames.
package avatar3d

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type AvatarID string

// Status is the load lifecycle of an avatar.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
	StatusUnloaded
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	case StatusUnloaded:
		return "unloaded"
	default:
		return "unknown"
	}
}

// Model is what an asset loader produces for one avatar.
type Model struct {
	Name        string
	Skeleton    *Skeleton
	Blendshapes *BlendshapeProxy
}

// Rig groups the mutable parts of a ready avatar for one retarget pass.
type Rig struct {
	Skeleton    *Skeleton
	Blendshapes *BlendshapeProxy
	LookAt      *LookAtApplier
	State       *RigState
}

type Avatar struct {
	ID   AvatarID
	Name string
	URL  string

	mu     sync.RWMutex
	status Status
	err    error

	skeleton    *Skeleton
	blendshapes *BlendshapeProxy
	lookAt      *LookAtApplier
	state       *RigState

	position mgl32.Vec3
	rotation mgl32.Vec3
	scale    float32
}

func NewAvatar(id AvatarID, name, url string) *Avatar {
	return &Avatar{
		ID:       id,
		Name:     name,
		URL:      url,
		status:   StatusLoading,
		position: mgl32.Vec3{0, 0, 0},
		rotation: mgl32.Vec3{0, 0, 0},
		scale:    1.0,
	}
}

// MarkReady attaches a loaded model and makes the avatar eligible for
// retargeting. It has no effect unless the avatar is still loading.
func (a *Avatar) MarkReady(m *Model) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != StatusLoading || m == nil {
		return false
	}
	if m.Name != "" && a.Name == "" {
		a.Name = m.Name
	}
	a.skeleton = m.Skeleton
	if a.skeleton == nil {
		a.skeleton = NewSkeleton(nil)
	}
	a.blendshapes = m.Blendshapes
	if a.blendshapes == nil {
		a.blendshapes = NewBlendshapeProxy(nil)
	}
	a.lookAt = NewLookAtApplier()
	a.state = NewRigState()
	a.status = StatusReady
	return true
}

// MarkFailed records a load failure. A failed avatar never becomes ready.
func (a *Avatar) MarkFailed(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != StatusLoading {
		return
	}
	a.status = StatusFailed
	a.err = err
}

// Unload discards the model and its smoothing state.
func (a *Avatar) Unload() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = StatusUnloaded
	a.skeleton = nil
	a.blendshapes = nil
	a.lookAt = nil
	a.state = nil
}

func (a *Avatar) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

func (a *Avatar) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Apply runs fn against the rig while holding the avatar's write lock. It
// reports false without calling fn when the avatar is not ready.
func (a *Avatar) Apply(fn func(rig *Rig)) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != StatusReady {
		return false
	}
	fn(&Rig{
		Skeleton:    a.skeleton,
		Blendshapes: a.blendshapes,
		LookAt:      a.lookAt,
		State:       a.state,
	})
	return true
}

// Snapshot is a consistent copy of an avatar for readers such as a render
// loop.
type Snapshot struct {
	ID       AvatarID
	Name     string
	Status   Status
	Pose     map[Bone]Transform
	Weights  BlendshapeWeights
	Look     LookTarget
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    float32

	// Model is the placement transform composed from Position, Rotation and Scale.
	Model mgl32.Mat4
}

func (a *Avatar) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := Snapshot{
		ID:       a.ID,
		Name:     a.Name,
		Status:   a.status,
		Position: a.position,
		Rotation: a.rotation,
		Scale:    a.scale,
		Model:    a.modelMatrix(),
	}
	if a.skeleton != nil {
		snap.Pose = a.skeleton.Pose()
	}
	if a.blendshapes != nil {
		snap.Weights = a.blendshapes.Weights()
	}
	if a.lookAt != nil {
		snap.Look, _ = a.lookAt.Target()
	}
	return snap
}

// ModelMatrix composes the placement transform of the avatar.
func (a *Avatar) ModelMatrix() mgl32.Mat4 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.modelMatrix()
}

func (a *Avatar) modelMatrix() mgl32.Mat4 {
	model := mgl32.Translate3D(a.position[0], a.position[1], a.position[2])
	model = model.Mul4(mgl32.HomogRotate3DX(a.rotation[0]))
	model = model.Mul4(mgl32.HomogRotate3DY(a.rotation[1]))
	model = model.Mul4(mgl32.HomogRotate3DZ(a.rotation[2]))
	model = model.Mul4(mgl32.Scale3D(a.scale, a.scale, a.scale))
	return model
}

// Placement changes never touch the rig or its smoothing state.

func (a *Avatar) SetPosition(pos mgl32.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.position = pos
}

func (a *Avatar) SetRotation(rot mgl32.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rotation = rot
}

func (a *Avatar) SetScale(s float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scale = s
}
