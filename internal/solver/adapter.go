package solver

import (
	"github.com/normanking/cortexpuppet/internal/avatar3d"
	"github.com/normanking/cortexpuppet/internal/retarget"
	"github.com/rs/zerolog"
)

// Adapter runs a Solver over every modality present in an Estimate.
type Adapter struct {
	solver Solver
	logger zerolog.Logger
}

func NewAdapter(s Solver, logger zerolog.Logger) *Adapter {
	return &Adapter{
		solver: s,
		logger: logger.With().Str("component", "solver").Logger(),
	}
}

// Solve builds a frame from est. A modality that is absent or fails to solve
// is left nil, so it leaves avatars untouched.
func (a *Adapter) Solve(est *Estimate) *retarget.Frame {
	frame := &retarget.Frame{}
	if est == nil {
		return frame
	}

	if len(est.FaceLandmarks) > 0 {
		face, err := a.solver.SolveFace(est.FaceLandmarks)
		if err != nil {
			a.logger.Debug().Err(err).Msg("Face solve failed")
		} else {
			frame.Face = face
		}
	}

	if len(est.Pose3D) > 0 && len(est.Pose2D) > 0 {
		pose, err := a.solver.SolvePose(est.Pose3D, est.Pose2D)
		if err != nil {
			a.logger.Debug().Err(err).Msg("Pose solve failed")
		} else {
			frame.Pose = pose
		}
	}

	// The camera feed is mirrored: the person's left hand is the one the
	// detector labels right.
	frame.LeftHand = a.solveHand(est.RightHandLandmarks, avatar3d.SideLeft)
	frame.RightHand = a.solveHand(est.LeftHandLandmarks, avatar3d.SideRight)

	return frame
}

func (a *Adapter) solveHand(landmarks []Landmark, side avatar3d.Side) *retarget.HandRig {
	if len(landmarks) == 0 {
		return nil
	}
	hand, err := a.solver.SolveHand(landmarks, side)
	if err != nil {
		a.logger.Debug().Err(err).Str("side", side.String()).Msg("Hand solve failed")
		return nil
	}
	return hand
}
