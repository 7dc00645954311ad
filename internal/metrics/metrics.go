package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	FollowToggles *prometheus.CounterVec
	LikeToggles   *prometheus.CounterVec
	PostsCreated  *prometheus.CounterVec
	Comments      prometheus.Counter
	MealsLogged   *prometheus.CounterVec
	Analyses      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FollowToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eatflex_follow_toggles_total",
				Help: "Follow toggles by resulting action",
			},
			[]string{"action"},
		),
		LikeToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eatflex_like_toggles_total",
				Help: "Like toggles by resulting action",
			},
			[]string{"action"},
		),
		PostsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eatflex_posts_created_total",
				Help: "Posts created by origin",
			},
			[]string{"origin"},
		),
		Comments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "eatflex_comments_total",
				Help: "Comments appended to posts",
			},
		),
		MealsLogged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eatflex_meals_logged_total",
				Help: "Meals logged by source",
			},
			[]string{"source"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eatflex_meal_analyses_total",
				Help: "AI meal analyses by outcome",
			},
			[]string{"status", "reason"},
		),
	}

	reg.MustRegister(
		m.FollowToggles,
		m.LikeToggles,
		m.PostsCreated,
		m.Comments,
		m.MealsLogged,
		m.Analyses,
	)

	return m
}

// The recorders below tolerate a nil receiver so services can run without metrics in tests.

func (m *Metrics) FollowToggled(following bool) {
	if m == nil {
		return
	}
	m.FollowToggles.WithLabelValues(toggleAction(following, "follow", "unfollow")).Inc()
}

func (m *Metrics) LikeToggled(liked bool) {
	if m == nil {
		return
	}
	m.LikeToggles.WithLabelValues(toggleAction(liked, "like", "unlike")).Inc()
}

func (m *Metrics) PostCreated(origin string) {
	if m == nil {
		return
	}
	m.PostsCreated.WithLabelValues(origin).Inc()
}

func (m *Metrics) CommentAdded() {
	if m == nil {
		return
	}
	m.Comments.Inc()
}

func (m *Metrics) MealLogged(source string) {
	if m == nil {
		return
	}
	m.MealsLogged.WithLabelValues(source).Inc()
}

func (m *Metrics) AnalysisFinished(status string, reason string) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(status, reason).Inc()
}

func toggleAction(on bool, onLabel, offLabel string) string {
	if on {
		return onLabel
	}
	return offLabel
}
