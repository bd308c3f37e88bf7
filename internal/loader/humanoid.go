package loader

import (
	"encoding/json"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/normanking/cortexpuppet/internal/avatar3d"
	"github.com/qmuntal/gltf"
)

const (
	extVRM0 = "VRM"
	extVRM1 = "VRMC_vrm"
)

type vrm0Extension struct {
	Meta struct {
		Title string `json:"title"`
	} `json:"meta"`
	Humanoid struct {
		HumanBones []struct {
			Bone string `json:"bone"`
			Node int    `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
	BlendShapeMaster struct {
		BlendShapeGroups []struct {
			Name       string `json:"name"`
			PresetName string `json:"presetName"`
		} `json:"blendShapeGroups"`
	} `json:"blendShapeMaster"`
}

type vrm1Extension struct {
	Meta struct {
		Name string `json:"name"`
	} `json:"meta"`
	Humanoid struct {
		HumanBones map[string]struct {
			Node int `json:"node"`
		} `json:"humanBones"`
	} `json:"humanoid"`
	Expressions struct {
		Preset map[string]json.RawMessage `json:"preset"`
	} `json:"expressions"`
}

// vrm1Thumb maps the VRM 1.0 thumb chain onto the canonical one, which names
// the metacarpal "proximal".
var vrm1Thumb = map[string]string{
	"leftthumbmetacarpal":  "leftThumbProximal",
	"leftthumbproximal":    "leftThumbIntermediate",
	"rightthumbmetacarpal": "rightThumbProximal",
	"rightthumbproximal":   "rightThumbIntermediate",
}

// BuildModel extracts the humanoid bone table and the blendshape presets of a
// decoded document. The VRM 1.0 extension is preferred over VRM 0.x; plain
// glTF files fall back to matching node names.
func BuildModel(doc *gltf.Document) (*avatar3d.Model, error) {
	if doc == nil {
		return nil, ErrNoHumanoid
	}

	model := &avatar3d.Model{}
	bones := map[avatar3d.Bone]int{}
	var presets []avatar3d.Preset

	var v1 vrm1Extension
	var v0 vrm0Extension
	switch {
	case decodeExtension(doc.Extensions, extVRM1, &v1) && len(v1.Humanoid.HumanBones) > 0:
		model.Name = v1.Meta.Name
		for name, hb := range v1.Humanoid.HumanBones {
			if mapped, ok := vrm1Thumb[strings.ToLower(name)]; ok {
				name = mapped
			}
			if b, ok := avatar3d.BoneFromName(name); ok {
				bones[b] = hb.Node
			}
		}
		for name := range v1.Expressions.Preset {
			if p, ok := avatar3d.PresetFromName(name); ok {
				presets = append(presets, p)
			}
		}

	case decodeExtension(doc.Extensions, extVRM0, &v0) && len(v0.Humanoid.HumanBones) > 0:
		model.Name = v0.Meta.Title
		for _, hb := range v0.Humanoid.HumanBones {
			if b, ok := avatar3d.BoneFromName(hb.Bone); ok {
				bones[b] = hb.Node
			}
		}
		for _, g := range v0.BlendShapeMaster.BlendShapeGroups {
			name := g.PresetName
			if name == "" || name == "unknown" {
				name = g.Name
			}
			if p, ok := avatar3d.PresetFromName(name); ok {
				presets = append(presets, p)
			}
		}

	default:
		for i, n := range doc.Nodes {
			if n == nil {
				continue
			}
			if b, ok := avatar3d.BoneFromName(n.Name); ok {
				if _, seen := bones[b]; !seen {
					bones[b] = i
				}
			}
		}
	}

	rest := make(map[avatar3d.Bone]avatar3d.Transform, len(bones))
	for b, idx := range bones {
		if idx < 0 || idx >= len(doc.Nodes) || doc.Nodes[idx] == nil {
			continue
		}
		rest[b] = nodeTransform(doc.Nodes[idx])
	}
	if len(rest) == 0 {
		return nil, ErrNoHumanoid
	}

	if len(presets) == 0 {
		presets = morphTargetPresets(doc)
	}

	model.Skeleton = avatar3d.NewSkeleton(rest)
	model.Blendshapes = avatar3d.NewBlendshapeProxy(presets)
	return model, nil
}

func nodeTransform(n *gltf.Node) avatar3d.Transform {
	r := n.Rotation
	t := n.Translation
	return avatar3d.Transform{
		Rotation: mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}},
		Position: mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
	}
}

// morphTargetPresets reads mesh extras "targetNames" and keeps the names
// that match a preset.
func morphTargetPresets(doc *gltf.Document) []avatar3d.Preset {
	seen := map[avatar3d.Preset]bool{}
	var out []avatar3d.Preset
	for _, m := range doc.Meshes {
		if m == nil {
			continue
		}
		extras, ok := m.Extras.(map[string]interface{})
		if !ok {
			continue
		}
		names, ok := extras["targetNames"].([]interface{})
		if !ok {
			continue
		}
		for _, name := range names {
			s, ok := name.(string)
			if !ok {
				continue
			}
			if p, ok := avatar3d.PresetFromName(s); ok && !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// decodeExtension decodes an extension whether the gltf decoder kept it as
// raw JSON or as a generic map.
func decodeExtension(exts gltf.Extensions, name string, v any) bool {
	raw, ok := exts[name]
	if !ok || raw == nil {
		return false
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
