package retarget

import "github.com/normanking/cortexpuppet/internal/avatar3d"

// BlinkStabilizer settles a pair of blink weights, using head yaw to ignore
// the eye hidden by a turned head.
type BlinkStabilizer interface {
	StabilizeBlink(eye EyePair, headY float32) EyePair
}

// BlinkStabilizerFunc adapts a function to BlinkStabilizer.
type BlinkStabilizerFunc func(eye EyePair, headY float32) EyePair

func (f BlinkStabilizerFunc) StabilizeBlink(eye EyePair, headY float32) EyePair {
	return f(eye, headY)
}

func rigFace(rig *avatar3d.Rig, face *FaceRig, blink BlinkStabilizer, t Tuning) {
	if rig == nil {
		return
	}
	RigRotation(rig, avatar3d.BoneNeck, face.Head, t.NeckDampener, t.DefaultLerp)

	if rig.Blendshapes != nil {
		rigBlink(rig.Blendshapes, face, blink, t)
		MixMouth(rig.Blendshapes, face.Mouth.Shape, t.VisemeBlend)
	}

	rigGaze(rig, face.Pupil, t)
}

// rigBlink inverts solver openness into closure, low-passes it against the
// previous blink weight and hands the pair to the stabilizer. Both eyes share
// the resulting weight.
func rigBlink(proxy *avatar3d.BlendshapeProxy, face *FaceRig, blink BlinkStabilizer, t Tuning) {
	prev := proxy.Value(avatar3d.PresetBlink)
	eye := EyePair{
		L: lerp(clamp01(1-face.Eye.L), prev, t.BlinkBlend),
		R: lerp(clamp01(1-face.Eye.R), prev, t.BlinkBlend),
	}
	if blink != nil {
		eye = blink.StabilizeBlink(eye, face.Head.Y)
	}
	proxy.SetValue(avatar3d.PresetBlink, clamp01(eye.L))
}

// rigGaze swaps pupil axes into look space (pupil Y drives pitch, pupil X
// drives yaw) and steps from the avatar's previous gaze toward them. A
// non-finite pupil leaves the gaze where it was.
func rigGaze(rig *avatar3d.Rig, pupil Pupil, t Tuning) {
	if !avatar3d.Finite(pupil.X, pupil.Y) {
		return
	}
	var prev avatar3d.LookTarget
	if rig.State != nil {
		prev = rig.State.Gaze
	}
	look := avatar3d.LookTarget{
		X: lerp(prev.X, pupil.Y, t.GazeBlend),
		Y: lerp(prev.Y, pupil.X, t.GazeBlend),
	}
	if rig.State != nil {
		rig.State.Gaze = look
	}
	if rig.LookAt != nil {
		rig.LookAt.LookAt(look, rig.Blendshapes)
	}
}
