package points

import (
	"encoding/binary"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"

	"github.com/cmarschner/octoview/octree"
)

func record(x, y, z int32, r, g, b, a uint8) []byte {
	rec := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(rec[0:4], uint32(x))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(y))
	binary.LittleEndian.PutUint32(rec[8:12], uint32(z))
	rec[12], rec[13], rec[14], rec[15] = r, g, b, a
	return rec
}

func TestDecodeSingleRecord(t *testing.T) {
	box := octree.NewBox(r3.Vector{}, r3.Vector{X: 8, Y: 8, Z: 8})

	buf, err := Decode(record(100, 0, 0, 255, 0, 0, 0), box, 0.01, r3.Vector{})
	require.NoError(t, err)
	require.Equal(t, 1, buf.Len())
	require.Equal(t, r3.Vector{X: 1.0, Y: 0, Z: 0}, buf.Positions[0])
	require.Equal(t, [3]float32{1, 0, 0}, buf.Color(0))
}

func TestDecodeUsesNodeBoxMinAndOffset(t *testing.T) {
	// Quantization is local to the node's own box, not the root box.
	nodeBox := octree.NewBox(r3.Vector{X: 4, Y: 2, Z: 0}, r3.Vector{X: 6, Y: 4, Z: 2})
	offset := r3.Vector{X: 10, Y: -5, Z: 0.5}

	buf, err := Decode(record(50, 200, 100, 0, 128, 255, 7), nodeBox, 0.01, offset)
	require.NoError(t, err)
	require.Equal(t, 1, buf.Len())
	p := buf.Positions[0]
	require.InDelta(t, 50*0.01+4+10, p.X, 1e-12)
	require.InDelta(t, 200*0.01+2-5, p.Y, 1e-12)
	require.InDelta(t, 100*0.01+0+0.5, p.Z, 1e-12)
	c := buf.Color(0)
	require.InDelta(t, 0.0, float64(c[0]), 1e-6)
	require.InDelta(t, 128.0/255, float64(c[1]), 1e-6)
	require.InDelta(t, 1.0, float64(c[2]), 1e-6)
}

func TestDecodeNegativeQuantized(t *testing.T) {
	box := octree.NewBox(r3.Vector{X: -1, Y: -1, Z: -1}, r3.Vector{X: 1, Y: 1, Z: 1})
	buf, err := Decode(record(-100, -1, 0, 1, 2, 3, 4), box, 0.5, r3.Vector{})
	require.NoError(t, err)
	require.InDelta(t, -100*0.5-1, buf.Positions[0].X, 1e-12)
	require.InDelta(t, -1*0.5-1, buf.Positions[0].Y, 1e-12)
}

func TestDecodeEmpty(t *testing.T) {
	box := octree.NewBox(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})
	buf, err := Decode(nil, box, 0.01, r3.Vector{})
	require.NoError(t, err)
	require.Equal(t, 0, buf.Len())
}

func TestDecodeTruncated(t *testing.T) {
	box := octree.NewBox(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})
	for _, n := range []int{1, 15, 17, 31} {
		_, err := Decode(make([]byte, n), box, 0.01, r3.Vector{})
		var tr *ErrTruncatedRecord
		require.ErrorAs(t, err, &tr, "length %d", n)
		require.Equal(t, n, tr.Length)
	}
}

func TestDecodeCountMatchesLength(t *testing.T) {
	box := octree.NewBox(r3.Vector{}, r3.Vector{X: 100, Y: 100, Z: 100})
	raw := make([]byte, 0, 5*RecordSize)
	for i := int32(0); i < 5; i++ {
		raw = append(raw, record(i*10, i*20, i*30, uint8(i), uint8(i*2), uint8(i*3), 0)...)
	}
	buf, err := Decode(raw, box, 0.1, r3.Vector{})
	require.NoError(t, err)
	require.Equal(t, 5, buf.Len())
	require.Len(t, buf.Colors, 15)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	box := octree.NewBox(r3.Vector{X: 2, Y: 2, Z: 2}, r3.Vector{X: 4, Y: 4, Z: 4})
	offset := r3.Vector{X: 1, Y: 1, Z: 1}

	src := NewBuffer(3)
	src.SetPoint(0, r3.Vector{X: 3.25, Y: 3.5, Z: 3}, 1, 0.5, 0)
	src.SetPoint(1, r3.Vector{X: 3.01, Y: 3.99, Z: 3.42}, 0, 0, 1)
	src.SetPoint(2, r3.Vector{X: 3, Y: 3, Z: 3}, 0.25, 0.25, 0.25)

	raw := Encode(src, box, 0.01, offset)
	require.Len(t, raw, 3*RecordSize)

	got, err := Decode(raw, box, 0.01, offset)
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	for i := 0; i < 3; i++ {
		require.InDelta(t, src.Positions[i].X, got.Positions[i].X, 0.01)
		require.InDelta(t, src.Positions[i].Y, got.Positions[i].Y, 0.01)
		require.InDelta(t, src.Positions[i].Z, got.Positions[i].Z, 0.01)
	}
}
