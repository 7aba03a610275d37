package ocr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageCache_PutGet(t *testing.T) {
	c := newImageCache(4)

	c.put("a", []byte("one"))
	got, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), got)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestImageCache_EvictsOldestAtCapacity(t *testing.T) {
	c := newImageCache(3)

	for i := 0; i < 5; i++ {
		c.put(fmt.Sprintf("k%d", i), []byte{byte(i)})
	}

	assert.Equal(t, 3, c.size())
	_, ok := c.get("k0")
	assert.False(t, ok)
	_, ok = c.get("k1")
	assert.False(t, ok)
	_, ok = c.get("k4")
	assert.True(t, ok)
}

func TestImageCache_UpdateDoesNotGrow(t *testing.T) {
	c := newImageCache(2)

	c.put("a", []byte("one"))
	c.put("a", []byte("two"))
	assert.Equal(t, 1, c.size())

	got, _ := c.get("a")
	assert.Equal(t, []byte("two"), got)
}

func TestContentHash_Deterministic(t *testing.T) {
	a := contentHash([]byte("image bytes"))
	b := contentHash([]byte("image bytes"))
	other := contentHash([]byte("different"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Len(t, a, 64)
}
