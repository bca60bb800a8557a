package channel

import (
	"encoding/binary"
)

// StateSize is the encoded size of a State record.
const StateSize = 32

// Channel status flags.
const (
	FlagOpen uint16 = 1 << iota
	FlagRxActive
	FlagTxActive
	FlagFault
)

// State is the per-channel, per-device record.
//
// Encoding (little endian):
//
//	0   uint32 baud
//	4   uint64 rx bytes
//	12  uint64 tx bytes
//	20  uint32 error count
//	24  uint16 flags
//	26  uint16 sequence
//	28  uint32 polls
type State struct {
	Baud    uint32 `json:"baud"`
	RxBytes uint64 `json:"rx_bytes"`
	TxBytes uint64 `json:"tx_bytes"`
	Errors  uint32 `json:"errors"`
	Flags   uint16 `json:"flags"`
	Seq     uint16 `json:"seq"`
	Polls   uint32 `json:"polls"`
}

// Open reports whether the channel is open.
func (s State) Open() bool {
	return s.Flags&FlagOpen != 0
}

// Faulted reports whether the channel has a latched fault.
func (s State) Faulted() bool {
	return s.Flags&FlagFault != 0
}

// StateCodec encodes State records for grid.Table.
type StateCodec struct{}

// Size implements grid.Codec.
func (StateCodec) Size() int { return StateSize }

// Encode implements grid.Codec.
func (StateCodec) Encode(dst []byte, s State) {
	_ = dst[StateSize-1]
	binary.LittleEndian.PutUint32(dst[0:], s.Baud)
	binary.LittleEndian.PutUint64(dst[4:], s.RxBytes)
	binary.LittleEndian.PutUint64(dst[12:], s.TxBytes)
	binary.LittleEndian.PutUint32(dst[20:], s.Errors)
	binary.LittleEndian.PutUint16(dst[24:], s.Flags)
	binary.LittleEndian.PutUint16(dst[26:], s.Seq)
	binary.LittleEndian.PutUint32(dst[28:], s.Polls)
}

// Decode implements grid.Codec.
func (StateCodec) Decode(src []byte) State {
	_ = src[StateSize-1]
	return State{
		Baud:    binary.LittleEndian.Uint32(src[0:]),
		RxBytes: binary.LittleEndian.Uint64(src[4:]),
		TxBytes: binary.LittleEndian.Uint64(src[12:]),
		Errors:  binary.LittleEndian.Uint32(src[20:]),
		Flags:   binary.LittleEndian.Uint16(src[24:]),
		Seq:     binary.LittleEndian.Uint16(src[26:]),
		Polls:   binary.LittleEndian.Uint32(src[28:]),
	}
}
