package grid

// KeyCount is the number of partition locks guarding a grid.
type KeyCount int

const (
	// Keys1 uses one global lock for every row.
	Keys1 KeyCount = 1
	// Keys2 separates even and odd channel instances.
	Keys2 KeyCount = 2
	// Keys3 adds a third lock for expansion channels.
	Keys3 KeyCount = 3
)

// Valid reports whether k is one of the supported key counts.
func (k KeyCount) Valid() bool {
	return k >= Keys1 && k <= Keys3
}

// DefaultChannelInstances is the number of interleaved channel instances on
// the base board.
const DefaultChannelInstances = 2

// Partitioning describes how rows group into channel classes.
type Partitioning struct {
	// ChannelInstances is the number of interleaved channel instances.
	// Rows whose index is a multiple of it form the even class.
	ChannelInstances int

	// ExpansionThreshold is the first expansion row (slot count times
	// channels per slot). Only used with Keys3.
	ExpansionThreshold int
}

// PartitionKey maps a row to the partition key guarding it:
//
//	keys   row < threshold      row >= threshold
//	1      0                    0
//	2      0 even / 1 odd       0 even / 1 odd
//	3      0 even / 1 odd       2
//
// An out-of-range row maps to 0. That is a safe default, not a validity
// signal: callers must check bounds on their own.
func PartitionKey(row, rows int, keys KeyCount, p Partitioning) int {
	if row < 0 || row >= rows {
		return 0
	}

	switch {
	case keys == Keys1:
		return 0
	case keys == Keys3 && row >= p.ExpansionThreshold:
		return 2
	}

	instances := p.ChannelInstances
	if instances <= 0 {
		instances = DefaultChannelInstances
	}
	if row%instances == 0 {
		return 0
	}
	return 1
}

// Key returns the partition key for row using the grid's partitioning.
// A nil grid returns 0.
func (g *Grid) Key(row int) int {
	if g == nil {
		return 0
	}
	return PartitionKey(row, g.rows, g.keys, g.opts.partitioning)
}
