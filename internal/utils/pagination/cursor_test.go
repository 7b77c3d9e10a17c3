package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_EmptyIsFirstPage(t *testing.T) {
	c, err := Decode("")
	require.NoError(t, err)
	assert.True(t, c.IsZero())
}

func TestEncodeDecode(t *testing.T) {
	token, err := Encode(Cursor{ID: "t-42", CreatedUnix: 1700000000123})
	require.NoError(t, err)

	c, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "t-42", c.ID)
	assert.Equal(t, int64(1700000000123), c.CreatedUnix)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode("%%%not-base64")
	assert.EqualError(t, err, "invalid pagination token")

	_, err = Decode("bm90LWpzb24=") // "not-json"
	assert.EqualError(t, err, "invalid pagination token")
}
