package scheduler

import (
	"time"

	"zerofarm/internal/config"
	"zerofarm/internal/types"
)

// Definition describes one recurring task kind. Definitions are global, but
// the scheduler applies them per wallet: every wallet gets its own
// independently jittered fire time.
type Definition struct {
	Kind          types.TaskKind
	Enabled       bool
	IntervalHours float64
	TxPerWallet   int
	Randomize     bool
	WindowStart   int // hour of day, 0-23
	WindowEnd     int // hour of day, 1-24; 24 = midnight-exclusive
	Params        map[string]interface{}
}

// Interval returns the configured base interval as a duration.
func (d Definition) Interval() time.Duration {
	return time.Duration(d.IntervalHours * float64(time.Hour))
}

// AlwaysOpen reports whether the time window never constrains firing.
func (d Definition) AlwaysOpen() bool {
	return d.WindowStart == 0 && d.WindowEnd == 24
}

// DefinitionsFromConfig converts the config task table into definitions,
// in the stable task-kind order.
func DefinitionsFromConfig(tasks map[types.TaskKind]config.TaskConfig) []Definition {
	var defs []Definition
	for _, kind := range types.AllTaskKinds() {
		task, ok := tasks[kind]
		if !ok {
			continue
		}
		defs = append(defs, Definition{
			Kind:          kind,
			Enabled:       task.Enabled,
			IntervalHours: task.IntervalHours,
			TxPerWallet:   task.TxPerWallet,
			Randomize:     task.Randomize,
			WindowStart:   task.Window.Start,
			WindowEnd:     task.Window.End,
			Params:        task.Params,
		})
	}
	return defs
}
