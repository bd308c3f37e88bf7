package retarget

// Tuning holds the damping and interpolation constants of a retarget pass.
type Tuning struct {
	DefaultDampener float32 `mapstructure:"default_dampener"`
	DefaultLerp     float32 `mapstructure:"default_lerp"`

	HipsDampener     float32 `mapstructure:"hips_dampener"`
	HipsPositionLerp float32 `mapstructure:"hips_position_lerp"`
	HipsHeightOffset float32 `mapstructure:"hips_height_offset"`

	SpineDampener float32 `mapstructure:"spine_dampener"`
	ChestDampener float32 `mapstructure:"chest_dampener"`
	TorsoLerp     float32 `mapstructure:"torso_lerp"`

	LimbDampener float32 `mapstructure:"limb_dampener"`
	LimbLerp     float32 `mapstructure:"limb_lerp"`

	NeckDampener float32 `mapstructure:"neck_dampener"`

	// Blend weights toward the previous value of the one-step filters.
	BlinkBlend  float32 `mapstructure:"blink_blend"`
	VisemeBlend float32 `mapstructure:"viseme_blend"`
	// GazeBlend is the step from the previous gaze toward the new pupil reading.
	GazeBlend float32 `mapstructure:"gaze_blend"`
}

func DefaultTuning() Tuning {
	return Tuning{
		DefaultDampener: 1,
		DefaultLerp:     0.3,

		HipsDampener:     0.7,
		HipsPositionLerp: 0.07,
		HipsHeightOffset: 1,

		SpineDampener: 0.45,
		ChestDampener: 0.25,
		TorsoLerp:     0.3,

		LimbDampener: 1,
		LimbLerp:     0.3,

		NeckDampener: 0.7,

		BlinkBlend:  0.5,
		VisemeBlend: 0.5,
		GazeBlend:   0.4,
	}
}

// Sanitized clamps every factor into [0,1].
func (t Tuning) Sanitized() Tuning {
	fields := []*float32{
		&t.DefaultDampener, &t.DefaultLerp,
		&t.HipsDampener, &t.HipsPositionLerp,
		&t.SpineDampener, &t.ChestDampener, &t.TorsoLerp,
		&t.LimbDampener, &t.LimbLerp,
		&t.NeckDampener,
		&t.BlinkBlend, &t.VisemeBlend, &t.GazeBlend,
	}
	for _, f := range fields {
		*f = clamp01(*f)
	}
	return t
}
