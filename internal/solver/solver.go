// Package solver is the boundary to the external landmark solver. It turns a
// raw per-frame Estimate into a retarget.Frame, correcting the handedness of
// the mirrored camera feed, and supplies the blink stabilizer used by the
// face retargeter.
package solver

import (
	"errors"

	"github.com/normanking/cortexpuppet/internal/avatar3d"
	"github.com/normanking/cortexpuppet/internal/retarget"
)

// ErrInsufficientLandmarks is returned by solvers when a landmark set is too
// short to solve.
var ErrInsufficientLandmarks = errors.New("insufficient landmarks")

// Landmark is one normalized keypoint from the detector.
type Landmark struct {
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Z          float32 `json:"z"`
	Visibility float32 `json:"visibility,omitempty"`
}

// Estimate is the raw detector output of one processed camera frame. Hand
// sets are labelled as the camera saw them, which is mirrored relative to
// the tracked person.
type Estimate struct {
	FaceLandmarks      []Landmark `json:"faceLandmarks,omitempty"`
	Pose3D             []Landmark `json:"pose3D,omitempty"`
	Pose2D             []Landmark `json:"pose2D,omitempty"`
	LeftHandLandmarks  []Landmark `json:"leftHandLandmarks,omitempty"`
	RightHandLandmarks []Landmark `json:"rightHandLandmarks,omitempty"`
}

// Solver converts landmark sets to bone rotations. Implementations are pure
// functions of their input.
type Solver interface {
	SolveFace(landmarks []Landmark) (*retarget.FaceRig, error)
	SolvePose(pose3D, pose2D []Landmark) (*retarget.PoseRig, error)
	SolveHand(landmarks []Landmark, side avatar3d.Side) (*retarget.HandRig, error)
}
