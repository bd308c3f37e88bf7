package avatar3d

import (
	"math"
	"strings"
)

// Preset is a canonical blendshape name of a humanoid face rig.
type Preset int

const (
	PresetNeutral Preset = iota
	PresetA
	PresetI
	PresetU
	PresetE
	PresetO
	PresetBlink
	PresetBlinkL
	PresetBlinkR
	PresetJoy
	PresetAngry
	PresetSorrow
	PresetFun
	PresetLookUp
	PresetLookDown
	PresetLookLeft
	PresetLookRight
	PresetCount
)

var PresetNames = [PresetCount]string{
	"neutral",
	"a",
	"i",
	"u",
	"e",
	"o",
	"blink",
	"blink_l",
	"blink_r",
	"joy",
	"angry",
	"sorrow",
	"fun",
	"lookup",
	"lookdown",
	"lookleft",
	"lookright",
}

// presetAliases covers the VRM 1.0 expression names that differ from 0.x.
var presetAliases = map[string]Preset{
	"aa":         PresetA,
	"ih":         PresetI,
	"ou":         PresetU,
	"ee":         PresetE,
	"oh":         PresetO,
	"blinkleft":  PresetBlinkL,
	"blinkright": PresetBlinkR,
	"happy":      PresetJoy,
	"sad":        PresetSorrow,
	"relaxed":    PresetFun,
}

// Visemes are the mouth presets driven by the mouth mixer, in mixing order.
var Visemes = [5]Preset{PresetI, PresetA, PresetE, PresetO, PresetU}

func (p Preset) String() string {
	if p < 0 || p >= PresetCount {
		return "unknown"
	}
	return PresetNames[p]
}

// PresetFromName resolves a preset name, ignoring case and accepting VRM 1.0
// expression names.
func PresetFromName(name string) (Preset, bool) {
	lower := strings.ToLower(name)
	for i, n := range PresetNames {
		if n == lower {
			return Preset(i), true
		}
	}
	if p, ok := presetAliases[lower]; ok {
		return p, true
	}
	return -1, false
}

// AllPresets lists every preset, in enum order.
func AllPresets() []Preset {
	out := make([]Preset, PresetCount)
	for i := range out {
		out[i] = Preset(i)
	}
	return out
}

type BlendshapeWeights [PresetCount]float32

func NewBlendshapeWeights() BlendshapeWeights {
	return BlendshapeWeights{}
}

func (w *BlendshapeWeights) Set(p Preset, value float32) {
	w[p] = clamp(value, 0, 1)
}

func (w BlendshapeWeights) Get(p Preset) float32 {
	return w[p]
}

// BlendshapeProxy is the weight control surface of one avatar. Presets the
// model does not expose are unbound: they read as zero and ignore writes.
// Non-finite writes are ignored too, keeping the last applied weight.
type BlendshapeProxy struct {
	weights BlendshapeWeights
	bound   [PresetCount]bool
}

func NewBlendshapeProxy(bound []Preset) *BlendshapeProxy {
	p := &BlendshapeProxy{}
	for _, preset := range bound {
		if preset >= 0 && preset < PresetCount {
			p.bound[preset] = true
		}
	}
	return p
}

func (p *BlendshapeProxy) Bound(preset Preset) bool {
	return preset >= 0 && preset < PresetCount && p.bound[preset]
}

func (p *BlendshapeProxy) Value(preset Preset) float32 {
	if !p.Bound(preset) {
		return 0
	}
	return p.weights.Get(preset)
}

func (p *BlendshapeProxy) SetValue(preset Preset, weight float32) {
	if !p.Bound(preset) || !Finite(weight) {
		return
	}
	p.weights.Set(preset, weight)
}

// Weights returns a copy of the current weights.
func (p *BlendshapeProxy) Weights() BlendshapeWeights {
	return p.weights
}

// BoundPresets lists the presets the model exposes.
func (p *BlendshapeProxy) BoundPresets() []Preset {
	var out []Preset
	for i, ok := range p.bound {
		if ok {
			out = append(out, Preset(i))
		}
	}
	return out
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(vs ...float32) bool {
	for _, v := range vs {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

// clamp maps NaN to min.
func clamp(v, min, max float32) float32 {
	if v < min || v != v {
		return min
	}
	if v > max {
		return max
	}
	return v
}
