// Package puppet fans solved motion frames out to every loaded avatar. It
// owns the avatar registry, the latest-frame mailbox and the pass loop.
package puppet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/normanking/cortexpuppet/internal/avatar3d"
	"github.com/normanking/cortexpuppet/internal/bus"
	"github.com/normanking/cortexpuppet/internal/loader"
	"github.com/normanking/cortexpuppet/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrUnknownAvatar is returned for ids that are not registered.
var ErrUnknownAvatar = errors.New("unknown avatar")

// Handle is returned by Register while the model is still loading.
type Handle struct {
	*avatar3d.Avatar
	done chan struct{}
}

// Done is closed once the load has finished, successfully or not.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the load finishes and returns its error.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Registry keeps avatars in registration order and drives their loads.
type Registry struct {
	mu     sync.RWMutex
	order  []*Handle
	byID   map[avatar3d.AvatarID]*Handle
	loader loader.Loader
	events *bus.EventBus
	logger zerolog.Logger
	loads  sync.WaitGroup
}

func NewRegistry(l loader.Loader, events *bus.EventBus, logger zerolog.Logger) *Registry {
	if events == nil {
		events = bus.NewEventBus()
	}
	return &Registry{
		byID:   make(map[avatar3d.AvatarID]*Handle),
		loader: l,
		events: events,
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds an avatar and starts loading it in the background. The
// returned handle is in the loading state; the avatar joins the passes only
// after the load succeeds. Failed loads are not retried.
func (r *Registry) Register(ctx context.Context, rawURL string) *Handle {
	return r.RegisterNamed(ctx, "", rawURL)
}

// RegisterNamed is Register with a display name that overrides the model's.
func (r *Registry) RegisterNamed(ctx context.Context, name, rawURL string) *Handle {
	h := &Handle{
		Avatar: avatar3d.NewAvatar(avatar3d.AvatarID(uuid.NewString()), name, rawURL),
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.order = append(r.order, h)
	r.byID[h.ID] = h
	count := len(r.order)
	r.mu.Unlock()

	metrics.RegisteredAvatars.Set(float64(count))
	r.events.Publish(bus.Event{
		Type: bus.EventTypeAvatarLoading,
		Data: map[string]any{"id": string(h.ID), "url": rawURL},
	})

	r.loads.Add(1)
	go r.load(ctx, h)
	return h
}

func (r *Registry) load(ctx context.Context, h *Handle) {
	defer r.loads.Done()
	defer close(h.done)

	model, err := r.loader.Load(ctx, h.URL)
	if err != nil {
		err = fmt.Errorf("load avatar %s: %w", h.URL, err)
		h.MarkFailed(err)
		metrics.AvatarLoads.WithLabelValues("failed").Inc()
		r.logger.Error().
			Err(err).
			Str("avatar", string(h.ID)).
			Str("url", h.URL).
			Msg("Avatar load failed")
		r.events.Publish(bus.Event{
			Type: bus.EventTypeAvatarLoadFailed,
			Data: map[string]any{"id": string(h.ID), "url": h.URL, "error": err.Error()},
		})
		return
	}

	if !h.MarkReady(model) {
		// Unregistered while loading.
		r.logger.Debug().Str("avatar", string(h.ID)).Msg("Discarding model of removed avatar")
		return
	}

	metrics.AvatarLoads.WithLabelValues("ready").Inc()
	r.logger.Info().
		Str("avatar", string(h.ID)).
		Str("name", h.Name).
		Str("url", h.URL).
		Msg("Avatar ready")
	r.events.Publish(bus.Event{
		Type: bus.EventTypeAvatarReady,
		Data: map[string]any{"id": string(h.ID), "name": h.Name},
	})
}

// Unregister removes an avatar and discards its smoothing state.
func (r *Registry) Unregister(id avatar3d.AvatarID) error {
	r.mu.Lock()
	h, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownAvatar, id)
	}
	delete(r.byID, id)
	for i, o := range r.order {
		if o == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	count := len(r.order)
	r.mu.Unlock()

	h.Unload()
	metrics.RegisteredAvatars.Set(float64(count))
	r.logger.Info().Str("avatar", string(id)).Msg("Avatar unregistered")
	r.events.Publish(bus.Event{
		Type: bus.EventTypeAvatarUnloaded,
		Data: map[string]any{"id": string(id)},
	})
	return nil
}

// SetPlacement positions an avatar in the scene. A yaw of pi turns a model
// authored facing +Z toward the camera.
func (r *Registry) SetPlacement(id avatar3d.AvatarID, offset mgl32.Vec3, yaw float32) error {
	h, err := r.Get(id)
	if err != nil {
		return err
	}
	h.SetPosition(offset)
	h.SetRotation(mgl32.Vec3{0, yaw, 0})
	r.events.Publish(bus.Event{
		Type: bus.EventTypeAvatarPlaced,
		Data: map[string]any{"id": string(id), "offset": offset, "yaw": yaw},
	})
	return nil
}

func (r *Registry) Get(id avatar3d.AvatarID) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAvatar, id)
	}
	return h, nil
}

// List returns every registered avatar in registration order.
func (r *Registry) List() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handle, len(r.order))
	copy(out, r.order)
	return out
}

// Ready returns the avatars that are ready right now, in registration order.
func (r *Registry) Ready() []*avatar3d.Avatar {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*avatar3d.Avatar, 0, len(r.order))
	for _, h := range r.order {
		if h.Status() == avatar3d.StatusReady {
			out = append(out, h.Avatar)
		}
	}
	return out
}

// Events exposes the lifecycle bus.
func (r *Registry) Events() *bus.EventBus {
	return r.events
}

// WaitLoads blocks until every load started so far has finished.
func (r *Registry) WaitLoads() {
	r.loads.Wait()
}
