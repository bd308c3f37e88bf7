package avatar3d

// LookTarget is a look direction: X is pitch (positive looks up), Y is yaw
// (positive looks to the avatar's left).
type LookTarget struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// LookAtApplier turns a look target into eye blendshape weights. Targets are
// clamped to +/- Range on each axis before mapping.
type LookAtApplier struct {
	Range float32

	target  LookTarget
	applied bool
}

func NewLookAtApplier() *LookAtApplier {
	return &LookAtApplier{Range: 1}
}

// LookAt clamps and stores the target, then drives the look presets of the
// proxy. A nil proxy only records the target.
func (l *LookAtApplier) LookAt(target LookTarget, proxy *BlendshapeProxy) {
	r := l.Range
	if r <= 0 {
		r = 1
	}
	l.target = LookTarget{X: clamp(target.X, -r, r), Y: clamp(target.Y, -r, r)}
	l.applied = true

	if proxy == nil {
		return
	}

	if l.target.X < 0 {
		proxy.SetValue(PresetLookUp, 0)
		proxy.SetValue(PresetLookDown, -l.target.X/r)
	} else {
		proxy.SetValue(PresetLookDown, 0)
		proxy.SetValue(PresetLookUp, l.target.X/r)
	}

	if l.target.Y < 0 {
		proxy.SetValue(PresetLookLeft, 0)
		proxy.SetValue(PresetLookRight, -l.target.Y/r)
	} else {
		proxy.SetValue(PresetLookRight, 0)
		proxy.SetValue(PresetLookLeft, l.target.Y/r)
	}
}

// Target returns the last applied target and whether one was applied.
func (l *LookAtApplier) Target() (LookTarget, bool) {
	return l.target, l.applied
}
