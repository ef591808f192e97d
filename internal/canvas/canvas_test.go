package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankushKun/magicplace-go/internal/canvas"
)

func TestShardForPixel(t *testing.T) {
	// Origin pixel lives in shard (0,0).
	c, err := canvas.ShardForPixel(0, 0)
	require.NoError(t, err)
	assert.Equal(t, canvas.ShardCoord{X: 0, Y: 0}, c)

	// Last pixel of the first shard row/column.
	c, err = canvas.ShardForPixel(89, 89)
	require.NoError(t, err)
	assert.Equal(t, canvas.ShardCoord{X: 0, Y: 0}, c)

	// First pixel of the next shard.
	c, err = canvas.ShardForPixel(90, 90)
	require.NoError(t, err)
	assert.Equal(t, canvas.ShardCoord{X: 1, Y: 1}, c)

	// Last valid pixel maps to the last shard.
	c, err = canvas.ShardForPixel(canvas.CanvasRes-1, canvas.CanvasRes-1)
	require.NoError(t, err)
	assert.Equal(t, uint32(c.X), canvas.ShardsPerDim-1)
	assert.Equal(t, uint32(c.Y), canvas.ShardsPerDim-1)
}

func TestShardForPixelOutOfRange(t *testing.T) {
	_, err := canvas.ShardForPixel(canvas.CanvasRes, 0)
	assert.Error(t, err)
	_, err = canvas.ShardForPixel(0, canvas.CanvasRes)
	assert.Error(t, err)
}

func TestLocalIndex(t *testing.T) {
	assert.Equal(t, 0, canvas.LocalIndex(0, 0))
	assert.Equal(t, 89, canvas.LocalIndex(89, 0))
	assert.Equal(t, 90, canvas.LocalIndex(0, 1))
	// Same local index regardless of which shard the pixel is in.
	assert.Equal(t, canvas.LocalIndex(5, 7), canvas.LocalIndex(90+5, 90+7))
	assert.Equal(t, canvas.PixelsPerShard-1, canvas.LocalIndex(89, 89))
}

func TestNewShardCoord(t *testing.T) {
	_, err := canvas.NewShardCoord(0, 0)
	assert.NoError(t, err)
	_, err = canvas.NewShardCoord(uint16(canvas.ShardsPerDim-1), 0)
	assert.NoError(t, err)
	_, err = canvas.NewShardCoord(uint16(canvas.ShardsPerDim), 0)
	assert.Error(t, err)
}

func TestValidColor(t *testing.T) {
	assert.False(t, canvas.ValidColor(0), "0 is transparent, not paintable")
	assert.True(t, canvas.ValidColor(1))
	assert.True(t, canvas.ValidColor(255))
}
