// Package canvas holds the fixed geometry of the magicplace pixel canvas
// and the mapping from global pixel coordinates to shards.
package canvas

import "fmt"

const (
	// CanvasRes is the canvas resolution per dimension (2^19 = 524,288 pixels).
	CanvasRes uint32 = 524288

	// ShardDim is the width and height of one shard in pixels.
	ShardDim uint32 = 90

	// ShardsPerDim is the number of shards per dimension (ceiling division).
	ShardsPerDim uint32 = (CanvasRes + ShardDim - 1) / ShardDim

	// PixelsPerShard is the number of pixels stored in one shard account.
	PixelsPerShard = int(ShardDim * ShardDim)

	// MaxColor is the highest palette index. 0 is unset/transparent.
	MaxColor uint8 = 255
)

// ShardCoord identifies one shard on the canvas grid.
type ShardCoord struct {
	X uint16
	Y uint16
}

// NewShardCoord validates the coordinates against the grid bounds.
func NewShardCoord(x, y uint16) (ShardCoord, error) {
	if uint32(x) >= ShardsPerDim || uint32(y) >= ShardsPerDim {
		return ShardCoord{}, fmt.Errorf("shard coordinates out of range: (%d, %d), max %d", x, y, ShardsPerDim-1)
	}
	return ShardCoord{X: x, Y: y}, nil
}

func (c ShardCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// ShardForPixel returns the shard containing the global pixel (px, py).
func ShardForPixel(px, py uint32) (ShardCoord, error) {
	if px >= CanvasRes || py >= CanvasRes {
		return ShardCoord{}, fmt.Errorf("pixel coordinates out of range: (%d, %d), max %d", px, py, CanvasRes-1)
	}
	return ShardCoord{
		X: uint16(px / ShardDim),
		Y: uint16(py / ShardDim),
	}, nil
}

// LocalIndex returns the index of the global pixel (px, py) inside its
// shard's pixel buffer: localY*ShardDim + localX.
func LocalIndex(px, py uint32) int {
	localX := px % ShardDim
	localY := py % ShardDim
	return int(localY*ShardDim + localX)
}

// ValidColor reports whether c is a paintable palette color (1-255).
func ValidColor(c uint8) bool {
	return c > 0 && c <= MaxColor
}
