package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/normanking/cortexpuppet/internal/avatar3d"
	"github.com/normanking/cortexpuppet/internal/loader"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// inspectReport is the capability table of one model.
type inspectReport struct {
	Name        string   `json:"name"`
	Bones       []string `json:"bones"`
	Missing     []string `json:"missing"`
	Blendshapes []string `json:"blendshapes"`
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [model]",
		Short: "Show which bones and blendshapes a model exposes",
		Long:  "Load a glTF, GLB or VRM model and list the canonical bones and blendshape presets it can be driven through.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			model, err := loader.NewGLTFLoader(".", zerolog.Nop()).Load(ctx, args[0])
			if err != nil {
				return err
			}
			report := buildReport(model)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	return cmd
}

func buildReport(m *avatar3d.Model) inspectReport {
	r := inspectReport{Name: m.Name}
	for b := avatar3d.Bone(0); b < avatar3d.BoneCount; b++ {
		if m.Skeleton.HasBone(b) {
			r.Bones = append(r.Bones, b.String())
		} else {
			r.Missing = append(r.Missing, b.String())
		}
	}
	for _, p := range m.Blendshapes.BoundPresets() {
		r.Blendshapes = append(r.Blendshapes, p.String())
	}
	return r
}

func printReport(r inspectReport) {
	fmt.Println(titleStyle.Render(r.Name))
	fmt.Println()
	fmt.Printf("  Bones:       %s\n", successStyle.Render(fmt.Sprintf("%d/%d", len(r.Bones), avatar3d.BoneCount)))
	if len(r.Missing) > 0 {
		fmt.Printf("  Missing:     %s\n", dimStyle.Render(strings.Join(r.Missing, ", ")))
	}
	if len(r.Blendshapes) == 0 {
		fmt.Printf("  Blendshapes: %s\n", dimStyle.Render("none"))
	} else {
		fmt.Printf("  Blendshapes: %s\n", strings.Join(r.Blendshapes, ", "))
	}
}
