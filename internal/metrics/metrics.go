package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RoomsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minigame_rooms_created_total",
			Help: "Total rooms created, by game type",
		},
		[]string{"game"},
	)
	RoomsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minigame_rooms_ended_total",
			Help: "Total rooms ended, by game type and reason",
		},
		[]string{"game", "reason"},
	)
	ActiveRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "minigame_active_rooms",
			Help: "Rooms currently registered",
		},
	)
	Moves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minigame_moves_total",
			Help: "Room messages handled by game validators, by verdict",
		},
		[]string{"game", "verdict"},
	)
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minigame_rate_limited_total",
			Help: "Inbound messages dropped by the per-user limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(RoomsCreated)
	prometheus.MustRegister(RoomsEnded)
	prometheus.MustRegister(ActiveRooms)
	prometheus.MustRegister(Moves)
	prometheus.MustRegister(RateLimited)
}
