package sales

import (
	"github.com/zeu5/tabular-dp/analysis"
	"github.com/zeu5/tabular-dp/core"
)

// SoldOut is an episode in which the whole stock sold before the season
// ended.
var SoldOut = analysis.EventSpec{
	Name: "sold_out",
	Check: func(trace *core.Trace) bool {
		last := trace.Last()
		if last == nil {
			return false
		}
		_, sold := last.Misc["sold"]
		return sold && len(last.NextState.Actions()) == 0
	},
}

// Scrapped is an episode that ended with stock left over.
var Scrapped = analysis.EventSpec{
	Name: "scrapped",
	Check: func(trace *core.Trace) bool {
		last := trace.Last()
		if last == nil {
			return false
		}
		n, ok := last.Misc["scrapped"].(int)
		return ok && n > 0
	},
}
