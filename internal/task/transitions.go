package task

import "github.com/jamesaphoenix/tx/internal/types"

// allowedTransitions is the status graph update() enforces; forceStatus
// bypasses it entirely (spec §4.1).
var allowedTransitions = map[types.TaskStatus][]types.TaskStatus{
	types.StatusBacklog:  {types.StatusReady, types.StatusPlanning, types.StatusActive, types.StatusBlocked},
	types.StatusReady:    {types.StatusPlanning, types.StatusActive, types.StatusBlocked, types.StatusBacklog},
	types.StatusPlanning: {types.StatusActive, types.StatusReady, types.StatusBlocked, types.StatusBacklog},
	types.StatusActive:   {types.StatusReview, types.StatusDone, types.StatusBlocked, types.StatusBacklog},
	types.StatusBlocked:  {types.StatusReady, types.StatusBacklog, types.StatusPlanning},
	types.StatusReview:   {types.StatusDone, types.StatusActive, types.StatusBacklog},
	types.StatusDone:     {types.StatusBacklog},
}

func transitionAllowed(from, to types.TaskStatus) bool {
	if from == to {
		return true
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
