package analysis

import "github.com/zeu5/tabular-dp/core"

// NoOpComparator pairs with analyzers that only write files. It is its own
// constructor.
type NoOpComparator struct{}

var (
	_ core.Comparator            = NoOpComparator{}
	_ core.ComparatorConstructor = NoOpComparator{}
)

func NewNoOpComparator() NoOpComparator {
	return NoOpComparator{}
}

func NewNoOpComparatorConstructor() NoOpComparator {
	return NoOpComparator{}
}

func (NoOpComparator) Compare(_ []string, _ []core.DataSet) {}

func (n NoOpComparator) NewComparator(_ int) core.Comparator {
	return n
}
