package artifact

import (
	"bytes"
	"errors"
	"testing"

	"github.com/poiesic/modelship/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

func TestNewChunker_InvalidChunkSize(t *testing.T) {
	for _, size := range []int{0, -1, -4096} {
		_, err := NewChunker(makeData(100), size)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrConfiguration))
	}
}

func TestChunker_Count(t *testing.T) {
	tests := []struct {
		name      string
		dataLen   int
		chunkSize int
		wantCount int
	}{
		{name: "exact multiple", dataLen: 8192, chunkSize: 4096, wantCount: 2},
		{name: "remainder", dataLen: 10000, chunkSize: 4096, wantCount: 3},
		{name: "single chunk", dataLen: 10, chunkSize: 4096, wantCount: 1},
		{name: "empty artifact", dataLen: 0, chunkSize: 4096, wantCount: 0},
		{name: "chunk size one", dataLen: 5, chunkSize: 1, wantCount: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChunker(makeData(tt.dataLen), tt.chunkSize)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, c.Count())
		})
	}
}

func TestChunker_Scenario10000Bytes(t *testing.T) {
	// 10,000 bytes at chunk size 4,096 -> 4096, 4096, 1808.
	c, err := NewChunker(makeData(10000), 4096)
	require.NoError(t, err)

	require.Equal(t, 3, c.Count())

	wantSizes := []int{4096, 4096, 1808}
	for i, want := range wantSizes {
		chunk, err := c.ChunkAt(i)
		require.NoError(t, err)
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, 3, chunk.TotalCount)
		assert.Len(t, chunk.Payload, want)
	}
}

func TestChunker_ConcatenationReproducesArtifact(t *testing.T) {
	for _, tt := range []struct {
		dataLen   int
		chunkSize int
	}{
		{0, 1},
		{1, 1},
		{100, 7},
		{4096, 4096},
		{10000, 4096},
		{65537, 1024},
	} {
		data := makeData(tt.dataLen)
		c, err := NewChunker(data, tt.chunkSize)
		require.NoError(t, err)

		var rebuilt bytes.Buffer
		for chunk, ok := c.Next(); ok; chunk, ok = c.Next() {
			rebuilt.Write(chunk.Payload)
		}

		assert.True(t, bytes.Equal(data, rebuilt.Bytes()),
			"concat of chunks(%d bytes, size %d) must reproduce the artifact", tt.dataLen, tt.chunkSize)
	}
}

func TestChunker_ChunkAt_Restartable(t *testing.T) {
	data := makeData(10000)
	c, err := NewChunker(data, 4096)
	require.NoError(t, err)

	// Arbitrary-index access must not depend on iteration order.
	last, err := c.ChunkAt(2)
	require.NoError(t, err)
	first, err := c.ChunkAt(0)
	require.NoError(t, err)
	again, err := c.ChunkAt(2)
	require.NoError(t, err)

	assert.Equal(t, data[:4096], first.Payload)
	assert.Equal(t, last.Payload, again.Payload)
	assert.Equal(t, data[8192:], last.Payload)
}

func TestChunker_ChunkAt_OutOfRange(t *testing.T) {
	c, err := NewChunker(makeData(100), 50)
	require.NoError(t, err)

	for _, index := range []int{-1, 2, 100} {
		_, err := c.ChunkAt(index)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrConfiguration))
	}
}

func TestChunker_Reset(t *testing.T) {
	c, err := NewChunker(makeData(100), 40)
	require.NoError(t, err)

	for _, ok := c.Next(); ok; _, ok = c.Next() {
	}
	_, ok := c.Next()
	assert.False(t, ok, "exhausted chunker should keep returning false")

	c.Reset()
	chunk, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, 0, chunk.Index)
}
