package channel

import (
	"errors"
	"fmt"

	"github.com/yndnr/chgrid-go/pkg/grid"
)

// Class is the channel class a row belongs to.
type Class string

const (
	ClassAll       Class = "all"
	ClassEven      Class = "even"
	ClassOdd       Class = "odd"
	ClassExpansion Class = "expansion"
)

// Layout describes the physical channel arrangement: base-board slots with a
// fixed number of channels each, optional expansion channels after them, and
// the devices addressable on every channel.
type Layout struct {
	SlotCount         int `koanf:"slot_count"`
	SlotChannels      int `koanf:"slot_channels"`
	ExpansionChannels int `koanf:"expansion_channels"`
	ChannelInstances  int `koanf:"channel_instances"`
	Devices           int `koanf:"devices"`
}

// DefaultLayout is a four-slot board with two channels per slot, four
// expansion channels and four devices per channel.
func DefaultLayout() Layout {
	return Layout{
		SlotCount:         4,
		SlotChannels:      2,
		ExpansionChannels: 4,
		ChannelInstances:  grid.DefaultChannelInstances,
		Devices:           4,
	}
}

// Validate checks the layout.
func (l Layout) Validate() error {
	if l.SlotCount < 1 {
		return errors.New("layout.slot_count must be at least 1")
	}
	if l.SlotChannels < 1 {
		return errors.New("layout.slot_channels must be at least 1")
	}
	if l.ExpansionChannels < 0 {
		return errors.New("layout.expansion_channels must not be negative")
	}
	if l.ChannelInstances < 1 {
		return errors.New("layout.channel_instances must be at least 1")
	}
	if l.Devices < 1 {
		return errors.New("layout.devices must be at least 1")
	}
	return nil
}

// BaseChannels is the number of channels on the base board.
func (l Layout) BaseChannels() int {
	return l.SlotCount * l.SlotChannels
}

// Rows is the number of grid rows, one per channel.
func (l Layout) Rows() int {
	return l.BaseChannels() + l.ExpansionChannels
}

// Partitioning returns the grid partitioning for this layout.
func (l Layout) Partitioning() grid.Partitioning {
	return grid.Partitioning{
		ChannelInstances:   l.ChannelInstances,
		ExpansionThreshold: l.BaseChannels(),
	}
}

// ClassOf returns the class of row under the given key count.
func (l Layout) ClassOf(row int, keys grid.KeyCount) Class {
	switch grid.PartitionKey(row, l.Rows(), keys, l.Partitioning()) {
	case 2:
		return ClassExpansion
	case 1:
		return ClassOdd
	default:
		if keys == grid.Keys1 {
			return ClassAll
		}
		return ClassEven
	}
}

// KeyClass names the class guarded by key.
func KeyClass(key int, keys grid.KeyCount) Class {
	switch {
	case keys == grid.Keys1:
		return ClassAll
	case key == 0:
		return ClassEven
	case key == 1:
		return ClassOdd
	default:
		return ClassExpansion
	}
}

// RowsForKey lists the rows guarded by key.
func (l Layout) RowsForKey(key int, keys grid.KeyCount) []int {
	var rows []int
	for row := 0; row < l.Rows(); row++ {
		if grid.PartitionKey(row, l.Rows(), keys, l.Partitioning()) == key {
			rows = append(rows, row)
		}
	}
	return rows
}

// NewGrid allocates and initializes a grid of channel states for the layout.
// seed, if set, runs inside Init and may seed records without locking.
func NewGrid(l Layout, keys grid.KeyCount, seed func(g *grid.Grid) error, opts ...grid.Option) (*grid.Grid, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	opts = append([]grid.Option{grid.WithPartitioning(l.Partitioning())}, opts...)
	g, err := grid.New(l.Rows(), l.Devices, StateSize, keys, opts...)
	if err != nil {
		return nil, fmt.Errorf("new grid: %w", err)
	}
	if seed == nil {
		seed = func(*grid.Grid) error { return nil }
	}
	if err := g.Init(seed); err != nil {
		return nil, fmt.Errorf("init grid: %w", err)
	}
	return g, nil
}
