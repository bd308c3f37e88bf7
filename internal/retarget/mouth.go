package retarget

import "github.com/normanking/cortexpuppet/internal/avatar3d"

// MixMouth blends each viseme weight with the weight currently applied on
// the proxy. blend is the share kept from the applied weight. A non-finite
// viseme keeps the applied weight.
func MixMouth(proxy *avatar3d.BlendshapeProxy, shape MouthShape, blend float32) {
	if proxy == nil {
		return
	}
	for _, p := range avatar3d.Visemes {
		proxy.SetValue(p, lerp(shape.Weight(p), proxy.Value(p), blend))
	}
}
