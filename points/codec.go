// Package points holds decoded per-node point data and the fixed binary
// record codec that produces it.
package points

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/cmarschner/octoview/octree"
)

// RecordSize is the wire size of one point record: three little-endian
// int32 quantized local coordinates followed by four uint8 color bytes
// (R, G, B and an alpha byte that is decoded but not retained).
const RecordSize = 16

// ErrTruncatedRecord indicates a node blob whose length is not a whole
// number of records.
type ErrTruncatedRecord struct {
	Length int
}

func (e *ErrTruncatedRecord) Error() string {
	return fmt.Sprintf("truncated point record: %d bytes is not a multiple of %d", e.Length, RecordSize)
}

// Decode decodes a node blob into a Buffer. Quantized coordinates are
// local to the node's own box, so the world position of each point is
// q*scale + nodeBox.Min + worldOffset per axis. Color channels are
// normalized to [0,1]. An empty blob decodes to an empty, valid buffer.
func Decode(buf []byte, nodeBox octree.Box, scale float64, worldOffset r3.Vector) (*Buffer, error) {
	if len(buf)%RecordSize != 0 {
		return nil, &ErrTruncatedRecord{Length: len(buf)}
	}
	n := len(buf) / RecordSize
	b := NewBuffer(n)

	origin := nodeBox.Min.Add(worldOffset)
	for i := 0; i < n; i++ {
		rec := buf[i*RecordSize:]
		qx := int32(binary.LittleEndian.Uint32(rec[0:4]))
		qy := int32(binary.LittleEndian.Uint32(rec[4:8]))
		qz := int32(binary.LittleEndian.Uint32(rec[8:12]))

		b.Positions[i] = r3.Vector{
			X: float64(qx)*scale + origin.X,
			Y: float64(qy)*scale + origin.Y,
			Z: float64(qz)*scale + origin.Z,
		}
		b.Colors[i*3+0] = float32(rec[12]) / 255
		b.Colors[i*3+1] = float32(rec[13]) / 255
		b.Colors[i*3+2] = float32(rec[14]) / 255
		// rec[15] is the alpha byte, dropped.
	}
	return b, nil
}

// Encode is the inverse of Decode, quantizing world positions back into
// the node-local integer frame. It exists for fixtures and for tooling
// that writes node blobs; lossy for positions that are not on the
// quantization grid.
func Encode(b *Buffer, nodeBox octree.Box, scale float64, worldOffset r3.Vector) []byte {
	origin := nodeBox.Min.Add(worldOffset)
	out := make([]byte, b.Len()*RecordSize)
	for i := 0; i < b.Len(); i++ {
		rec := out[i*RecordSize:]
		p := b.Positions[i]
		binary.LittleEndian.PutUint32(rec[0:4], uint32(int32((p.X-origin.X)/scale)))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(int32((p.Y-origin.Y)/scale)))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(int32((p.Z-origin.Z)/scale)))
		rec[12] = uint8(b.Colors[i*3+0]*255 + 0.5)
		rec[13] = uint8(b.Colors[i*3+1]*255 + 0.5)
		rec[14] = uint8(b.Colors[i*3+2]*255 + 0.5)
		rec[15] = 0xff
	}
	return out
}
