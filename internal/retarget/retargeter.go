// Package retarget applies solved motion frames to avatar rigs with per-bone
// damping and interpolation, blink and gaze stabilization and viseme mixing.
package retarget

import (
	"sync"

	"github.com/normanking/cortexpuppet/internal/avatar3d"
)

// Retargeter runs the full retarget pass of one frame against one avatar.
// It keeps no per-avatar state of its own and is safe for concurrent use.
type Retargeter struct {
	mu     sync.RWMutex
	tuning Tuning
	blink  BlinkStabilizer
}

func New(tuning Tuning, blink BlinkStabilizer) *Retargeter {
	return &Retargeter{
		tuning: tuning.Sanitized(),
		blink:  blink,
	}
}

func (r *Retargeter) Tuning() Tuning {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tuning
}

// SetTuning swaps the constants used by subsequent passes.
func (r *Retargeter) SetTuning(t Tuning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tuning = t.Sanitized()
}

// Apply retargets f onto a. It reports false when the avatar is not ready.
func (r *Retargeter) Apply(a *avatar3d.Avatar, f *Frame) bool {
	if a == nil {
		return false
	}
	return a.Apply(func(rig *avatar3d.Rig) {
		r.ApplyRig(rig, f)
	})
}

// ApplyRig retargets f onto an already locked rig. Modalities absent from
// the frame are skipped entirely.
func (r *Retargeter) ApplyRig(rig *avatar3d.Rig, f *Frame) {
	if rig == nil || f.Empty() {
		return
	}
	r.mu.RLock()
	t, blink := r.tuning, r.blink
	r.mu.RUnlock()

	if f.Face != nil {
		rigFace(rig, f.Face, blink, t)
	}
	if f.Pose != nil {
		rigPose(rig, f.Pose, t)
	}
	for _, side := range []avatar3d.Side{avatar3d.SideLeft, avatar3d.SideRight} {
		if hand := f.Hand(side); hand != nil {
			rigHand(rig, side, hand, f.Pose, t)
		}
	}
}
