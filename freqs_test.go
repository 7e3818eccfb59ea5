package gramdict

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyTableIncrement(t *testing.T) {
	ft := NewFrequencyTable(3)
	assert.NoError(t, ft.Increment(0))
	assert.NoError(t, ft.Increment(2))
	assert.NoError(t, ft.Increment(2))
	c, err := ft.Get(2)
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), c)
	assert.Equal(t, uint64(3), ft.Total())
	assert.Equal(t, 3, ft.Len())
}

func TestFrequencyTableOutOfRange(t *testing.T) {
	ft := NewFrequencyTable(2)
	assert.True(t, errors.Is(ft.Increment(2), ErrOutOfRange))
	assert.True(t, errors.Is(ft.Increment(-1), ErrOutOfRange))
	_, err := ft.Get(5)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	assert.Equal(t, uint64(0), ft.Total())
}

func TestFrequencyTableFrom(t *testing.T) {
	src := []uint64{4, 0, 6}
	ft := FrequencyTableFrom(src)
	src[0] = 100
	assert.Equal(t, uint64(10), ft.Total())
	counts := ft.Counts()
	counts[1] = 7
	c, _ := ft.Get(1)
	assert.Equal(t, uint64(0), c)
}
