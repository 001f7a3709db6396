package ply

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const asciiPLY = `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
end_header
0 0 0 255 0 0
10 0 0 0 255 0
0 10 0 0 0 255
nan 0 0 1 2 3
`

func TestParseASCII(t *testing.T) {
	c, err := Parse([]byte(asciiPLY))
	require.NoError(t, err)
	require.True(t, c.HasColors)
	// The NaN vertex is dropped.
	require.Equal(t, 3, c.Buffer.Len())
	// 0-255 colors are normalized.
	require.Equal(t, [3]float32{1, 0, 0}, c.Buffer.Color(0))
	require.Equal(t, [3]float32{0, 1, 0}, c.Buffer.Color(1))
}

func TestParseASCIINormalization(t *testing.T) {
	c, err := Parse([]byte(asciiPLY))
	require.NoError(t, err)

	// Largest extent (10) is scaled to the working span and recentered.
	size := c.Box.Size()
	biggest := math.Max(size.X, math.Max(size.Y, size.Z))
	require.InDelta(t, targetExtent, biggest, 1e-9)
	center := c.Box.Center()
	require.InDelta(t, 0, center.X, 1e-9)
	require.InDelta(t, 0, center.Y, 1e-9)
}

func TestParseNoColorsGetsDefault(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 2
property float x
property float y
property float z
end_header
0 0 0
1 1 1
`
	c, err := Parse([]byte(src))
	require.NoError(t, err)
	require.False(t, c.HasColors)
	require.Equal(t, defaultColor, c.Buffer.Color(0))
}

func TestParseFiltersExtremeCoordinates(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
end_header
0 0 0
1 1 1
9999 0 0
`
	c, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Equal(t, 2, c.Buffer.Len())
}

func binaryPLY(t *testing.T, order binary.ByteOrder, formatName string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("ply\nformat " + formatName + " 1.0\n")
	buf.WriteString("element vertex 2\n")
	for _, p := range []string{"x", "y", "z"} {
		buf.WriteString("property float " + p + "\n")
	}
	for _, p := range []string{"red", "green", "blue"} {
		buf.WriteString("property uchar " + p + "\n")
	}
	buf.WriteString("end_header\n")

	write := func(x, y, z float32, r, g, b uint8) {
		for _, f := range []float32{x, y, z} {
			var raw [4]byte
			order.PutUint32(raw[:], math.Float32bits(f))
			buf.Write(raw[:])
		}
		buf.Write([]byte{r, g, b})
	}
	write(0, 0, 0, 255, 0, 0)
	write(4, 2, 1, 0, 0, 255)
	return buf.Bytes()
}

func TestParseBinaryLittleEndian(t *testing.T) {
	c, err := Parse(binaryPLY(t, binary.LittleEndian, "binary_little_endian"))
	require.NoError(t, err)
	require.Equal(t, 2, c.Buffer.Len())
	require.Equal(t, [3]float32{1, 0, 0}, c.Buffer.Color(0))
	require.Equal(t, [3]float32{0, 0, 1}, c.Buffer.Color(1))
}

func TestParseBinaryBigEndian(t *testing.T) {
	c, err := Parse(binaryPLY(t, binary.BigEndian, "binary_big_endian"))
	require.NoError(t, err)
	require.Equal(t, 2, c.Buffer.Len())
}

func TestParseNotPLY(t *testing.T) {
	_, err := Parse([]byte("definitely not a ply file"))
	require.ErrorIs(t, err, ErrNotPLY)
}

func TestParseMissingCoordinates(t *testing.T) {
	src := `ply
format ascii 1.0
element vertex 1
property float x
property float y
end_header
0 0
`
	_, err := Parse([]byte(src))
	require.Error(t, err)
}
