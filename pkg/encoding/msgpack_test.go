package encoding

import (
	"bytes"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSortsKeysAndSkipsZeros(t *testing.T) {
	m := Map{
		{Key: "z", Value: Uint(0)},
		{Key: "b", Value: Bin{0x01, 0x02}},
		{Key: "a", Value: Uint(1)},
		{Key: "s", Value: String("")},
		{Key: "f", Value: Bool(false)},
		{Key: "e", Value: Array{}},
	}
	b, err := Encode(m)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x82, 0xa1, 'a', 0x01, 0xa1, 'b', 0xc4, 0x02, 0x01, 0x02}, b)
}

func TestEncodeKeepsEmptyNestedMap(t *testing.T) {
	b, err := Encode(Map{{Key: "m", Value: Map{}}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x81, 0xa1, 'm', 0x80}, b)
}

func TestEncodeMinimalIntWidths(t *testing.T) {
	for _, tc := range []struct {
		u   uint64
		exp []byte
	}{
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0xcc, 0x80}},
		{0xff, []byte{0xcc, 0xff}},
		{0x100, []byte{0xcd, 0x01, 0x00}},
		{0xffff, []byte{0xcd, 0xff, 0xff}},
		{0x10000, []byte{0xce, 0x00, 0x01, 0x00, 0x00}},
		{0x100000000, []byte{0xcf, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
	} {
		b, err := Encode(Uint(tc.u))
		require.NoError(t, err)
		assert.Equal(t, tc.exp, b)
	}
}

func TestEncodeBinFamily(t *testing.T) {
	b, err := Encode(Bin(make([]byte, 300)))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xc5, 0x01, 0x2c}, b[:3])
	assert.Len(t, b, 303)
}

func TestEncodeDuplicateKey(t *testing.T) {
	_, err := Encode(Map{{Key: "a", Value: Uint(1)}, {Key: "a", Value: Uint(2)}})
	assert.Error(t, err)
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestDecodeRejectsUnsupportedType(t *testing.T) {
	_, err := Decode([]byte{0xca, 0x00, 0x00, 0x00, 0x00}) // float32
	assert.Error(t, err)
	_, err = Decode([]byte{0xff}) // negative fixint
	assert.Error(t, err)
}

func TestGoldenPaymentRoundTrip(t *testing.T) {
	golden, err := base64.StdEncoding.DecodeString(
		"iKNhbXTNA+ijZmVlzQPoomZ2AaJnaMQgJgsgCaCTqIaLeVhyL6XlRu3n7Rfk2FxMeK+wRSaQ7dKibHZkpG5vdGXEAwEgyKNzbmTEIP5oQQPnKvM7kbGuuSOunAVfSbJzHQtAtCP3Bf2XdDxmpHR5cGWjcGF5")
	require.NoError(t, err)

	v, err := Decode(golden)
	require.NoError(t, err)
	m, ok := v.(Map)
	require.True(t, ok)
	require.Len(t, m, 8)

	amt, err := m.Uint("amt")
	require.NoError(t, err)
	assert.EqualValues(t, 1000, amt)
	fee, err := m.Uint("fee")
	require.NoError(t, err)
	assert.EqualValues(t, 1000, fee)
	typ, err := m.String("type")
	require.NoError(t, err)
	assert.Equal(t, "pay", typ)
	gh, err := m.Bin("gh")
	require.NoError(t, err)
	assert.Len(t, gh, 32)

	out, err := Encode(m)
	require.NoError(t, err)
	assert.Equal(t, golden, out)
}

func TestMapAccessors(t *testing.T) {
	m := Map{
		{Key: "n", Value: Uint(7)},
		{Key: "s", Value: String("hi")},
		{Key: "b", Value: Bin{1}},
		{Key: "a", Value: Array{Uint(1)}},
		{Key: "m", Value: Map{{Key: "x", Value: Bool(true)}}},
	}
	n, err := m.Uint("n")
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	n, err = m.Uint("missing")
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = m.Uint("s")
	assert.Error(t, err)

	inner, err := m.Map("m")
	require.NoError(t, err)
	x, err := inner.Bool("x")
	require.NoError(t, err)
	assert.True(t, x)

	assert.True(t, m.Has("n"))
	assert.False(t, m.Has("gone"))
	assert.False(t, m.Without("n").Has("n"))
	assert.Len(t, m.Without("n"), 4)
}

func TestDecoderStream(t *testing.T) {
	first, err := Encode(Map{{Key: "a", Value: Uint(1)}})
	require.NoError(t, err)
	second, err := Encode(Map{{Key: "b", Value: String("x")}})
	require.NoError(t, err)

	d := NewDecoder(bytes.NewReader(append(append([]byte{}, first...), second...)))
	v1, err := d.Decode()
	require.NoError(t, err)
	a, err := v1.(Map).Uint("a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, a)

	v2, err := d.Decode()
	require.NoError(t, err)
	s, err := v2.(Map).String("b")
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	_, err = d.Decode()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeTruncated(t *testing.T) {
	full, err := Encode(Map{{Key: "a", Value: Bin(make([]byte, 40))}})
	require.NoError(t, err)
	_, err = Decode(full[:len(full)-1])
	assert.Error(t, err)
}
