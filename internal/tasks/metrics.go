package tasks

import "github.com/prometheus/client_golang/prometheus"

var tasksProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fleet_tasks_processed_total",
		Help: "Background tasks processed by the worker, by task name and result.",
	},
	[]string{"task", "result"},
)

func init() {
	prometheus.MustRegister(tasksProcessedTotal)
}
