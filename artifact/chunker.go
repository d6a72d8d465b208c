// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package artifact

import (
	"fmt"

	"github.com/poiesic/modelship/core"
)

const (
	// DefaultChunkSize is the default maximum chunk payload size in
	// bytes. It matches the 10 MB chunk size commonly accepted by
	// cluster model registries and is constant for a given session.
	DefaultChunkSize = 10_000_000
)

// Chunker splits artifact bytes into an ordered sequence of
// bounded-size chunks. Every chunk payload is exactly chunkSize bytes
// except possibly the final one. The chunker is restartable: ChunkAt
// serves any index without recomputing earlier chunks, so a resumed
// upload can continue from where it stopped.
type Chunker struct {
	data      []byte
	chunkSize int
	count     int
	next      int
}

// NewChunker creates a chunker over data with the given chunk size.
// chunkSize must be positive; it must not change for the lifetime of
// an upload session.
func NewChunker(data []byte, chunkSize int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrConfiguration, chunkSize)
	}

	count := (len(data) + chunkSize - 1) / chunkSize

	return &Chunker{
		data:      data,
		chunkSize: chunkSize,
		count:     count,
	}, nil
}

// Count returns the total number of chunks: ceil(len(data)/chunkSize).
// This count is communicated to the registry at registration time and
// must not change afterward.
func (c *Chunker) Count() int {
	return c.count
}

// ChunkSize returns the configured maximum chunk payload size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// ChunkAt returns the chunk at the given index. The payload is a
// subslice of the underlying data, not a copy.
func (c *Chunker) ChunkAt(index int) (core.Chunk, error) {
	if index < 0 || index >= c.count {
		return core.Chunk{}, fmt.Errorf("%w: chunk index %d out of range [0, %d)", core.ErrConfiguration, index, c.count)
	}

	start := index * c.chunkSize
	end := start + c.chunkSize
	if end > len(c.data) {
		end = len(c.data)
	}

	return core.Chunk{
		Index:      index,
		TotalCount: c.count,
		Payload:    c.data[start:end],
	}, nil
}

// Next returns the next chunk in sequence and true, or a zero chunk
// and false when the sequence is exhausted.
func (c *Chunker) Next() (core.Chunk, bool) {
	if c.next >= c.count {
		return core.Chunk{}, false
	}
	chunk, _ := c.ChunkAt(c.next)
	c.next++
	return chunk, true
}

// Reset rewinds sequential iteration to index 0. ChunkAt is unaffected.
func (c *Chunker) Reset() {
	c.next = 0
}
