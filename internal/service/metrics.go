package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minifeed_comments_created_total",
		Help: "Comments accepted by the store, idempotent replays included",
	})

	postsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minifeed_posts_created_total",
		Help: "Posts accepted by the store",
	})

	requestsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_requests_rejected_total",
		Help: "Requests rejected by validation, by operation",
	}, []string{"operation"})

	// treeCacheLookups counts comment tree cache lookups by result (hit, miss)
	treeCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_tree_cache_lookups_total",
		Help: "Comment tree cache lookups by result",
	}, []string{"result"})

	treeAnomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_tree_anomalies_total",
		Help: "Comments demoted or dropped while building trees, by kind",
	}, []string{"kind"})

	treeBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "minifeed_tree_build_duration_seconds",
		Help:    "Time spent building a comment forest",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)
