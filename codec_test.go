package redlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodecRoundTrip(t *testing.T) {
	raw, err := JSON.Encode("hello")
	require.NoError(t, err)

	v, err := JSON.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestJSONCodecDecodeInvalid(t *testing.T) {
	_, err := JSON.Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestZstdCodecPassthrough(t *testing.T) {
	c, err := NewZstdCodec(JSON, 2)
	require.NoError(t, err)

	// Small values are stored uncompressed, as plain JSON.
	raw, err := c.Encode("tiny")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"tiny"`), raw)

	v, err := c.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "tiny", v)
}

func TestZstdCodecCompressesLargeValues(t *testing.T) {
	c, err := NewZstdCodec(JSON, 2)
	require.NoError(t, err)

	big := strings.Repeat("redundant ", 200)
	raw, err := c.Encode(big)
	require.NoError(t, err)
	assert.Less(t, len(raw), len(big))

	v, err := c.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, big, v)
}

func TestZstdCodecDecodesUncompressed(t *testing.T) {
	c, err := NewZstdCodec(JSON, 1)
	require.NoError(t, err)

	// Values written by a plain JSON codec must still decode.
	raw, err := JSON.Encode("written without compression")
	require.NoError(t, err)

	v, err := c.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "written without compression", v)
}
