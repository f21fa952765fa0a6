package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	// sha256("")
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sum(nil))
	assert.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestMatches(t *testing.T) {
	data := []byte("note")
	assert.True(t, Matches(data, Sum(data)))
	assert.True(t, Matches(data, ""))
	assert.False(t, Matches(data, Sum([]byte("other"))))
}

func TestETagRoundTrip(t *testing.T) {
	sum := Sum([]byte("x"))
	assert.Equal(t, `"`+sum+`"`, ETag(sum))

	for _, header := range []string{ETag(sum), sum, `W/"` + sum + `"`, "  " + ETag(sum) + " "} {
		assert.Equal(t, sum, FromETag(header), header)
	}
	assert.Empty(t, FromETag("*"))
	assert.Empty(t, FromETag(""))
}
