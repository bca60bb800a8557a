// Package channel models per-UART channel state stored in a partitioned grid.
//
// Rows are channels and columns are the devices on each channel. Base-board
// channels alternate between the even and odd partition keys according to
// their controller instance; expansion channels share a third key when the
// grid is built with three keys.
//
//   - layout.go: Layout and its mapping onto grid geometry and partitioning
//   - state.go: the fixed-size State record and its codec
//   - poller.go: one polling task per partition key
//   - summary.go: read-only aggregation per channel class
package channel
