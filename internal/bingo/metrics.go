package bingo

import "github.com/prometheus/client_golang/prometheus"

var (
	ActiveMatches = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bingo_active_matches",
		Help: "Number of matches currently registered",
	})

	ConnectedPlayers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bingo_connected_players",
		Help: "Number of players currently attached to a match",
	})

	DrawsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bingo_draws_total",
		Help: "Total numbers drawn across all matches",
	})

	MatchOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bingo_match_outcomes_total",
		Help: "Finished matches by outcome",
	}, []string{"outcome"})

	JoinRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bingo_join_rejections_total",
		Help: "Rejected join attempts by reason",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(ActiveMatches)
	prometheus.MustRegister(ConnectedPlayers)
	prometheus.MustRegister(DrawsTotal)
	prometheus.MustRegister(MatchOutcomes)
	prometheus.MustRegister(JoinRejections)
}
