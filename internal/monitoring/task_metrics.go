package monitoring

import (
	"sync/atomic"
	"time"
)

// Task operations tracked by RecordTaskOperation.
const (
	OpCreate = "create"
	OpList   = "list"
	OpGet    = "get"
	OpUpdate = "update"
	OpDelete = "delete"
)

type taskOpCounters struct {
	total          atomic.Uint64
	failed         atomic.Uint64
	durationMicros atomic.Uint64
}

var taskOps = map[string]*taskOpCounters{
	OpCreate: {},
	OpList:   {},
	OpGet:    {},
	OpUpdate: {},
	OpDelete: {},
}

type TaskOpStats struct {
	RequestsTotal uint64  `json:"requests_total"`
	FailedTotal   uint64  `json:"failed_total"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
}

// RecordTaskOperation counts one engine call. Unknown operations are ignored.
func RecordTaskOperation(op string, duration time.Duration, success bool) {
	counters, ok := taskOps[op]
	if !ok {
		return
	}
	counters.total.Add(1)
	if !success {
		counters.failed.Add(1)
	}
	if duration > 0 {
		counters.durationMicros.Add(uint64(duration / time.Microsecond))
	}
}

func getTaskOpStats() map[string]TaskOpStats {
	stats := make(map[string]TaskOpStats, len(taskOps))
	for op, counters := range taskOps {
		total := counters.total.Load()
		avgDurationMS := 0.0
		if total > 0 {
			avgDurationMS = float64(counters.durationMicros.Load()) / float64(total) / 1000.0
		}
		stats[op] = TaskOpStats{
			RequestsTotal: total,
			FailedTotal:   counters.failed.Load(),
			AvgDurationMS: avgDurationMS,
		}
	}
	return stats
}
