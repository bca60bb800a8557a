package grid

import (
	"fmt"
	"testing"
)

func TestPartitionKey(t *testing.T) {
	p := Partitioning{ChannelInstances: 2, ExpansionThreshold: 8}

	tests := []struct {
		row  int
		keys KeyCount
		want int
	}{
		// Single global lock
		{0, Keys1, 0},
		{1, Keys1, 0},
		{9, Keys1, 0},

		// Even / odd
		{0, Keys2, 0},
		{1, Keys2, 1},
		{2, Keys2, 0},
		{7, Keys2, 1},
		{8, Keys2, 0}, // no expansion class with two keys
		{9, Keys2, 1},

		// Even / odd / expansion
		{0, Keys3, 0},
		{3, Keys3, 1},
		{6, Keys3, 0},
		{7, Keys3, 1},
		{8, Keys3, 2},
		{9, Keys3, 2},

		// Out of range
		{-1, Keys2, 0},
		{10, Keys3, 0},
		{100, Keys2, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("row=%d/keys=%d", tt.row, tt.keys), func(t *testing.T) {
			if got := PartitionKey(tt.row, 10, tt.keys, p); got != tt.want {
				t.Errorf("PartitionKey(%d, 10, %d) = %d, want %d", tt.row, tt.keys, got, tt.want)
			}
		})
	}
}

func TestPartitionKey_Range(t *testing.T) {
	const rows = 64
	for _, keys := range []KeyCount{Keys1, Keys2, Keys3} {
		for _, instances := range []int{1, 2, 3, 4} {
			p := Partitioning{ChannelInstances: instances, ExpansionThreshold: 48}
			for row := 0; row < rows; row++ {
				got := PartitionKey(row, rows, keys, p)
				if got < 0 || got >= int(keys) {
					t.Fatalf("PartitionKey(%d, keys=%d, instances=%d) = %d, outside [0, %d)",
						row, keys, instances, got, keys)
				}
				// Pure: same input, same answer.
				if again := PartitionKey(row, rows, keys, p); again != got {
					t.Fatalf("PartitionKey not stable for row %d: %d then %d", row, got, again)
				}
			}
		}
	}
}

func TestPartitionKey_DefaultInstances(t *testing.T) {
	// Zero instances falls back to the even/odd split.
	p := Partitioning{}
	if got := PartitionKey(3, 10, Keys2, p); got != 1 {
		t.Errorf("PartitionKey(3) = %d, want 1", got)
	}
	if got := PartitionKey(4, 10, Keys2, p); got != 0 {
		t.Errorf("PartitionKey(4) = %d, want 0", got)
	}
}

func TestGrid_Key(t *testing.T) {
	g, err := New(10, 2, 4, Keys3, WithPartitioning(Partitioning{ChannelInstances: 2, ExpansionThreshold: 8}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []int{0, 1, 0, 1, 0, 1, 0, 1, 2, 2}
	for row, w := range want {
		if got := g.Key(row); got != w {
			t.Errorf("Key(%d) = %d, want %d", row, got, w)
		}
	}

	var nilGrid *Grid
	if got := nilGrid.Key(3); got != 0 {
		t.Errorf("nil grid Key(3) = %d, want 0", got)
	}
}
