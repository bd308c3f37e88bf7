package solver

import (
	"math"

	"github.com/normanking/cortexpuppet/internal/retarget"
)

// BlinkOptions tunes StabilizeBlink.
type BlinkOptions struct {
	// EnableWink lets the eyes differ when one is clearly closed.
	EnableWink bool
	// MaxRot is the head yaw beyond which the hidden eye copies the visible one.
	MaxRot float32
}

func DefaultBlinkOptions() BlinkOptions {
	return BlinkOptions{EnableWink: true, MaxRot: 0.5}
}

// BlinkStabilizer returns a retarget.BlinkStabilizer using opts.
func BlinkStabilizer(opts BlinkOptions) retarget.BlinkStabilizer {
	return retarget.BlinkStabilizerFunc(func(eye retarget.EyePair, headY float32) retarget.EyePair {
		return StabilizeBlink(eye, headY, opts)
	})
}

// StabilizeBlink settles two blink weights. Beyond MaxRot of head yaw the
// eye turned away from the camera is unreliable and copies the other one.
// Otherwise the eyes are averaged toward each other unless they differ
// enough to read as a wink.
func StabilizeBlink(eye retarget.EyePair, headY float32, opts BlinkOptions) retarget.EyePair {
	eye.L = clamp(eye.L, 0, 1)
	eye.R = clamp(eye.R, 0, 1)

	if headY > opts.MaxRot {
		return retarget.EyePair{L: eye.R, R: eye.R}
	}
	if headY < -opts.MaxRot {
		return retarget.EyePair{L: eye.L, R: eye.L}
	}

	diff := float32(math.Abs(float64(eye.L - eye.R)))
	thresh := float32(1.2)
	if opts.EnableWink {
		thresh = 0.8
	}
	closing := eye.L < 0.3 && eye.R < 0.3
	open := eye.L > 0.6 && eye.R > 0.6

	if diff >= thresh && !closing && !open {
		return eye
	}

	amt := float32(0.05)
	if eye.R > eye.L {
		amt = 0.95
	}
	v := lerp(eye.R, eye.L, amt)
	return retarget.EyePair{L: v, R: v}
}

func clamp(v, min, max float32) float32 {
	if v < min || v != v {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
