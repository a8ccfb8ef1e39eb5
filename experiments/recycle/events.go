package recycle

import (
	"github.com/zeu5/tabular-dp/analysis"
	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/envs/recycle"
)

// Rescued is an episode in which the robot ran its battery flat while
// searching and had to be carried back.
var Rescued = analysis.EventSpec{
	Name:  "rescued",
	Check: rescued(),
}

// Recharged is an episode in which the robot recharged at least once.
var Recharged = analysis.EventSpec{
	Name:  "recharged",
	Check: tookAction(recycle.Recharge),
}

func rescued() func(*core.Trace) bool {
	return func(trace *core.Trace) bool {
		for i := 0; i < trace.Len(); i++ {
			s := trace.Step(i)
			if s.State.Hash() == recycle.Low && s.Action.Hash() == recycle.Search && s.NextState.Hash() == recycle.High {
				return true
			}
		}
		return false
	}
}

func tookAction(action string) func(*core.Trace) bool {
	return func(trace *core.Trace) bool {
		for i := 0; i < trace.Len(); i++ {
			if trace.Step(i).Action.Hash() == action {
				return true
			}
		}
		return false
	}
}
