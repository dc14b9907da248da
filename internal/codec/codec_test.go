package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Title     string  `json:"title"`
	Timestamp float64 `json:"timestamp"`
}

func TestEncodeNilIsEmptyArray(t *testing.T) {
	b, err := EncodeList[item](nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	out, err := DecodeList[item](b)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestDecodeFieldTags(t *testing.T) {
	out, err := DecodeList[item]([]byte(`[{"title":"a","timestamp":1.5},{"title":"b","timestamp":2}]`))
	require.NoError(t, err)
	assert.Equal(t, []item{{"a", 1.5}, {"b", 2}}, out)
}

func TestDecodeRejectsNonArrays(t *testing.T) {
	for _, raw := range []string{``, `{}`, `null`, `"x"`, `[{"title":1}]`, `[`} {
		_, err := DecodeList[item]([]byte(raw))
		assert.Error(t, err, raw)
	}
}
