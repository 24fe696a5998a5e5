// Package metrics registers the Prometheus collectors for upload jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal counts finished jobs by status (success, failed, rejected).
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetransfer_jobs_total",
			Help: "Upload jobs by final status",
		},
		[]string{"status"},
	)

	PagesUploadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagetransfer_pages_uploaded_total",
			Help: "Pages whose payload and PDF were both uploaded",
		},
	)

	// StageFailuresTotal counts job aborts by error kind.
	StageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetransfer_stage_failures_total",
			Help: "Job failures by error kind",
		},
		[]string{"kind"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagetransfer_job_duration_seconds",
			Help:    "Wall time of upload jobs that reached the remote endpoint",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)
)
