package puppet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/normanking/cortexpuppet/internal/avatar3d"
	"github.com/normanking/cortexpuppet/internal/bus"
	"github.com/normanking/cortexpuppet/internal/metrics"
	"github.com/normanking/cortexpuppet/internal/retarget"
	"github.com/normanking/cortexpuppet/internal/solver"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

// fakeLoader serves full-skeleton models. URLs in fail error out; URLs in
// gates block until their channel is closed.
type fakeLoader struct {
	mu    sync.Mutex
	fail  map[string]bool
	gates map[string]chan struct{}
}

func (l *fakeLoader) Load(ctx context.Context, rawURL string) (*avatar3d.Model, error) {
	l.mu.Lock()
	gate := l.gates[rawURL]
	fail := l.fail[rawURL]
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errNotFound
	}
	return &avatar3d.Model{
		Name:        rawURL,
		Skeleton:    avatar3d.FullSkeleton(),
		Blendshapes: avatar3d.NewBlendshapeProxy(avatar3d.AllPresets()),
	}, nil
}

func newTestMux(t *testing.T, l *fakeLoader) (*Registry, *Multiplexer) {
	t.Helper()
	reg := NewRegistry(l, bus.NewEventBus(), zerolog.Nop())
	rt := retarget.New(retarget.DefaultTuning(), solver.BlinkStabilizer(solver.DefaultBlinkOptions()))
	return reg, NewMultiplexer(reg, rt, nil, zerolog.Nop())
}

func register(t *testing.T, reg *Registry, url string) *Handle {
	t.Helper()
	h := reg.Register(context.Background(), url)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
	require.Equal(t, avatar3d.StatusReady, h.Status())
	return h
}

func poseFrame(x float32) *retarget.Frame {
	return &retarget.Frame{Pose: &retarget.PoseRig{
		Hips:         retarget.HipsRig{Position: retarget.Position{X: x, Z: 0.2}},
		LeftUpperArm: avatar3d.Euler{Z: 1},
	}}
}

func TestRegisterLoadsAsynchronously(t *testing.T) {
	gate := make(chan struct{})
	l := &fakeLoader{gates: map[string]chan struct{}{"slow.vrm": gate}}
	reg, mux := newTestMux(t, l)

	h := reg.Register(context.Background(), "slow.vrm")
	assert.Equal(t, avatar3d.StatusLoading, h.Status())
	assert.NotEmpty(t, h.ID)

	res := mux.Process(poseFrame(0.1))
	assert.Equal(t, PassResult{}, res, "loading avatars are not in the pass")

	close(gate)
	require.NoError(t, h.Wait(context.Background()))
	assert.Equal(t, avatar3d.StatusReady, h.Status())
	assert.Equal(t, "slow.vrm", h.Name)

	res = mux.Process(poseFrame(0.1))
	assert.Equal(t, 1, res.Applied)
}

func TestRegisterFailureIsIsolated(t *testing.T) {
	l := &fakeLoader{fail: map[string]bool{"broken.vrm": true}}
	reg, mux := newTestMux(t, l)

	failed := make(chan bus.Event, 1)
	reg.Events().Subscribe(bus.EventTypeAvatarLoadFailed, func(e bus.Event) { failed <- e })

	good := register(t, reg, "good.vrm")
	bad := reg.Register(context.Background(), "broken.vrm")
	err := bad.Wait(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, errNotFound)
	assert.Equal(t, avatar3d.StatusFailed, bad.Status())

	select {
	case e := <-failed:
		assert.Equal(t, string(bad.ID), e.Data["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("no load_failed event")
	}

	res := mux.Process(poseFrame(0.1))
	assert.Equal(t, PassResult{Applied: 1}, res)
	assert.Equal(t, []*avatar3d.Avatar{good.Avatar}, reg.Ready())
	assert.Len(t, reg.List(), 2)
}

func TestMultiplexIndependence(t *testing.T) {
	reg, mux := newTestMux(t, &fakeLoader{})

	a := register(t, reg, "a.vrm")
	for i := 0; i < 10; i++ {
		mux.Process(poseFrame(0.1))
	}
	aBefore := a.Snapshot()

	b := register(t, reg, "b.vrm")
	assert.Equal(t, aBefore.Pose, a.Snapshot().Pose, "registering B leaves A untouched")

	res := mux.Process(poseFrame(0.1))
	assert.Equal(t, 2, res.Applied)

	// Each avatar stepped from its own prior state.
	aHips := a.Snapshot().Pose[avatar3d.BoneHips].Position
	bHips := b.Snapshot().Pose[avatar3d.BoneHips].Position
	target := retarget.HipsTarget(retarget.Position{X: 0.1, Z: 0.2}, 1)

	wantA := aBefore.Pose[avatar3d.BoneHips].Position
	wantA = wantA.Add(target.Sub(wantA).Mul(0.07))
	assert.True(t, aHips.ApproxEqualThreshold(wantA, 1e-6), "A: got %v want %v", aHips, wantA)
	assert.True(t, bHips.ApproxEqualThreshold(target.Mul(0.07), 1e-6), "B: got %v", bHips)
	assert.NotEqual(t, aHips, bHips)
}

func TestRegistrationOrder(t *testing.T) {
	reg, _ := newTestMux(t, &fakeLoader{})
	a := register(t, reg, "a.vrm")
	b := register(t, reg, "b.vrm")
	c := register(t, reg, "c.vrm")

	assert.Equal(t, []*avatar3d.Avatar{a.Avatar, b.Avatar, c.Avatar}, reg.Ready())

	require.NoError(t, reg.Unregister(b.ID))
	assert.Equal(t, []*avatar3d.Avatar{a.Avatar, c.Avatar}, reg.Ready())
	assert.Equal(t, avatar3d.StatusUnloaded, b.Status())
}

func TestUnregisterUnknown(t *testing.T) {
	reg, _ := newTestMux(t, &fakeLoader{})

	err := reg.Unregister("nope")
	assert.ErrorIs(t, err, ErrUnknownAvatar)

	err = reg.SetPlacement("nope", mgl32.Vec3{}, 0)
	assert.ErrorIs(t, err, ErrUnknownAvatar)
}

func TestUnregisterWhileLoading(t *testing.T) {
	gate := make(chan struct{})
	reg, _ := newTestMux(t, &fakeLoader{gates: map[string]chan struct{}{"slow.vrm": gate}})

	h := reg.Register(context.Background(), "slow.vrm")
	require.NoError(t, reg.Unregister(h.ID))
	close(gate)
	reg.WaitLoads()

	assert.Equal(t, avatar3d.StatusUnloaded, h.Status(), "a late model does not revive a removed avatar")
	assert.Empty(t, reg.Ready())
}

func TestRegisteredAvatarsGauge(t *testing.T) {
	reg, _ := newTestMux(t, &fakeLoader{fail: map[string]bool{"broken.vrm": true}})

	a := register(t, reg, "a.vrm")
	broken := reg.Register(context.Background(), "broken.vrm")
	reg.WaitLoads()
	require.Equal(t, avatar3d.StatusFailed, broken.Status())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.RegisteredAvatars), "failed handles stay registered")

	require.NoError(t, reg.Unregister(a.ID))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RegisteredAvatars))
}

func TestSetPlacement(t *testing.T) {
	reg, _ := newTestMux(t, &fakeLoader{})
	h := register(t, reg, "a.vrm")

	require.NoError(t, reg.SetPlacement(h.ID, mgl32.Vec3{-1, 0, 0}, 3.14159))
	snap := h.Snapshot()
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, snap.Position)
	assert.Equal(t, float32(3.14159), snap.Rotation.Y())
}

func TestHandSideCorrectionThroughMultiplexer(t *testing.T) {
	reg := NewRegistry(&fakeLoader{}, nil, zerolog.Nop())
	adapter := solver.NewAdapter(handSolver{}, zerolog.Nop())
	mux := NewMultiplexer(reg, retarget.New(retarget.DefaultTuning(), nil), adapter, zerolog.Nop())
	h := register(t, reg, "a.vrm")
	before := h.Snapshot()

	_, err := mux.ProcessEstimate(&solver.Estimate{
		RightHandLandmarks: []solver.Landmark{{X: 0.5}},
	})
	require.NoError(t, err)
	after := h.Snapshot()

	assert.NotEqual(t, before.Pose[avatar3d.BoneLeftHand], after.Pose[avatar3d.BoneLeftHand])
	assert.NotEqual(t, before.Pose[avatar3d.BoneLeftIndexProximal], after.Pose[avatar3d.BoneLeftIndexProximal])
	assert.Equal(t, before.Pose[avatar3d.BoneRightHand], after.Pose[avatar3d.BoneRightHand])
	assert.Equal(t, before.Pose[avatar3d.BoneRightIndexProximal], after.Pose[avatar3d.BoneRightIndexProximal])
}

type handSolver struct{}

func (handSolver) SolveFace([]solver.Landmark) (*retarget.FaceRig, error) {
	return nil, solver.ErrInsufficientLandmarks
}

func (handSolver) SolvePose(_, _ []solver.Landmark) (*retarget.PoseRig, error) {
	return nil, solver.ErrInsufficientLandmarks
}

func (handSolver) SolveHand(landmarks []solver.Landmark, _ avatar3d.Side) (*retarget.HandRig, error) {
	return &retarget.HandRig{
		Wrist:   avatar3d.Euler{X: landmarks[0].X, Y: 0.2},
		Fingers: map[avatar3d.FingerJoint]avatar3d.Euler{avatar3d.IndexProximal: {Z: 0.6}},
	}, nil
}

func TestProcessEstimateWithoutSolver(t *testing.T) {
	_, mux := newTestMux(t, &fakeLoader{})
	_, err := mux.ProcessEstimate(&solver.Estimate{})
	assert.Error(t, err)
	assert.Error(t, mux.SubmitEstimate(&solver.Estimate{}))
}

func TestProcessRecoversPerAvatar(t *testing.T) {
	reg, mux := newTestMux(t, &fakeLoader{})
	first := register(t, reg, "a.vrm")
	second := register(t, reg, "b.vrm")

	var calls atomic.Int32
	mux.retargeter = retarget.New(retarget.DefaultTuning(), retarget.BlinkStabilizerFunc(
		func(eye retarget.EyePair, _ float32) retarget.EyePair {
			if calls.Add(1) == 1 {
				panic("stabilizer failure")
			}
			return eye
		}))

	res := mux.Process(&retarget.Frame{Face: &retarget.FaceRig{}})
	assert.Equal(t, PassResult{Applied: 1, Failed: 1}, res, "one failing avatar does not stop the pass")
	assert.Equal(t, avatar3d.StatusReady, first.Status())
	assert.Equal(t, avatar3d.StatusReady, second.Status(), "avatars stay usable after a failed pass")

	// The lock was released by the failing pass.
	res = mux.Process(poseFrame(0.1))
	assert.Equal(t, 2, res.Applied)
}

func TestMailboxDropsOld(t *testing.T) {
	m := NewMailbox()
	f1, f2, f3 := poseFrame(1), poseFrame(2), poseFrame(3)

	assert.False(t, m.Put(f1))
	assert.True(t, m.Put(f2))
	assert.True(t, m.Put(f3))
	assert.Equal(t, uint64(2), m.Dropped())

	got, ok := m.Take()
	require.True(t, ok)
	assert.Same(t, f3, got)

	_, ok = m.Take()
	assert.False(t, ok)
	assert.False(t, m.Put(f1), "an empty slot drops nothing")
}

func TestRunProcessesLatestFrame(t *testing.T) {
	reg, mux := newTestMux(t, &fakeLoader{})
	h := register(t, reg, "a.vrm")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Run(ctx) }()

	mux.Submit(poseFrame(0.1))
	require.Eventually(t, func() bool {
		return h.Snapshot().Pose[avatar3d.BoneHips].Position.X() != 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
