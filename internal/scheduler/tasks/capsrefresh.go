// Package tasks wires application services into the scheduler.
package tasks

import (
	"github.com/driftarr/driftarr/internal/indexer"
	"github.com/driftarr/driftarr/internal/scheduler"
)

const CapsRefreshTaskID = "caps-refresh"

// RegisterCapsRefreshTask schedules the capability cache warmer for
// enabled indexers. It also runs once at startup so a restarted
// instance has snapshots before the first search.
func RegisterCapsRefreshTask(sched *scheduler.Scheduler, service *indexer.Service, cron string) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:         CapsRefreshTaskID,
		Name:       "Indexer Capability Refresh",
		Cron:       cron,
		RunOnStart: true,
		Func:       service.RefreshCapabilities,
	})
}
