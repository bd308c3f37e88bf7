package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cortexpuppet_frames_submitted_total",
			Help: "Total number of frames handed to the multiplexer",
		},
	)

	FramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cortexpuppet_frames_dropped_total",
			Help: "Frames replaced in the mailbox before a pass picked them up",
		},
	)

	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cortexpuppet_pass_duration_seconds",
			Help:    "Duration of one retarget pass over all ready avatars",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		},
	)

	AvatarsRetargeted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortexpuppet_avatar_updates_total",
			Help: "Retarget applications per avatar and outcome",
		},
		[]string{"outcome"},
	)

	AvatarLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortexpuppet_avatar_loads_total",
			Help: "Avatar load attempts by result",
		},
		[]string{"result"},
	)

	RegisteredAvatars = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cortexpuppet_registered_avatars",
			Help: "Number of registered avatars in any status",
		},
	)

	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cortexpuppet_feed_connections",
			Help: "Open estimate feed websocket connections",
		},
	)

	FeedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortexpuppet_feed_messages_total",
			Help: "Estimate feed messages by type",
		},
		[]string{"type"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
