// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package ring implements the lock-free single-producer/single-consumer
// bounded ring buffer that carries audio chunks from the realtime capture
// callback to the rest of the pipeline without allocating or blocking.
package ring

import (
	"math"
	"sync/atomic"
	"time"
)

// Chunk is one fixed-duration slice of mono float32 samples at a constant
// sample rate, plus the monotonic wall-clock time it was captured.
type Chunk struct {
	Samples    []float32
	SampleRate int
	Captured   time.Time
	SeqNum     uint64
}

// slot owns its sample backing array so TryPush never allocates; the ring
// is sized once at construction and reused for the life of the session.
type slot struct {
	chunk Chunk
}

// Ring is a fixed-capacity SPSC ring buffer of audio chunks. Exactly one
// goroutine (the capture callback or its drain loop) may call TryPush;
// exactly one other goroutine may call TryPopInto/Recv.
type Ring struct {
	slots []slot
	mask  uint64
	head  uint64 // next write index, producer-owned
	tail  uint64 // next read index, consumer-owned

	dropped uint64
	closed  uint32
}

// Capacity computes the number of chunk slots per the formula
// max(10, ceil(sampleRate * bufferSeconds / chunkSamples)), rounded up to
// the next power of two so index wrapping is a mask instead of a modulo.
func Capacity(sampleRate int, bufferSeconds float64, chunkSamples int) int {
	if chunkSamples <= 0 {
		chunkSamples = 1
	}
	raw := int(math.Ceil(float64(sampleRate) * bufferSeconds / float64(chunkSamples)))
	if raw < 10 {
		raw = 10
	}
	return nextPowerOfTwo(raw)
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// New allocates a ring with the given slot capacity (rounded up to a power
// of two) and the given chunk sample length pre-reserved in every slot, so
// the capture callback never allocates after this call returns.
func New(capacity int, chunkSamples int) *Ring {
	capacity = nextPowerOfTwo(capacity)
	r := &Ring{
		slots: make([]slot, capacity),
		mask:  uint64(capacity - 1),
	}
	for i := range r.slots {
		r.slots[i].chunk.Samples = make([]float32, chunkSamples)
	}
	return r
}

// TryPush copies chunk.Samples into the next free slot and publishes it.
// It never allocates, blocks, or locks. Returns false if the ring is full
// or closed, in which case the caller (the realtime callback) must drop
// the chunk and count it.
func (r *Ring) TryPush(chunk Chunk) bool {
	if atomic.LoadUint32(&r.closed) != 0 {
		return false
	}

	head := r.head
	tail := atomic.LoadUint64(&r.tail)
	if head-tail >= uint64(len(r.slots)) {
		atomic.AddUint64(&r.dropped, 1)
		return false
	}

	idx := head & r.mask
	s := &r.slots[idx]
	n := copy(s.chunk.Samples, chunk.Samples)
	if n < len(s.chunk.Samples) {
		// zero the tail so a short final chunk doesn't leak stale samples
		for i := n; i < len(s.chunk.Samples); i++ {
			s.chunk.Samples[i] = 0
		}
	}
	s.chunk.SampleRate = chunk.SampleRate
	s.chunk.SeqNum = chunk.SeqNum
	s.chunk.Captured = chunk.Captured

	atomic.StoreUint64(&r.head, head+1)
	return true
}

// TryPopInto copies the oldest published chunk's samples into dst.Samples
// (which must already have the ring's chunk length) and fills in the rest
// of dst's fields. Returns false if the ring is empty.
func (r *Ring) TryPopInto(dst *Chunk) bool {
	tail := r.tail
	head := atomic.LoadUint64(&r.head)
	if tail == head {
		return false
	}

	idx := tail & r.mask
	s := &r.slots[idx]
	copy(dst.Samples, s.chunk.Samples)
	dst.SampleRate = s.chunk.SampleRate
	dst.SeqNum = s.chunk.SeqNum
	dst.Captured = s.chunk.Captured

	atomic.StoreUint64(&r.tail, tail+1)
	return true
}

// Recv pops the oldest chunk, allocating a fresh copy. Only the consumer
// side calls this; allocation here is acceptable since the consumer is not
// the realtime thread. Returns ok=false once the ring is empty and closed.
func (r *Ring) Recv() (Chunk, bool) {
	dst := Chunk{Samples: make([]float32, r.ChunkSamples())}
	if r.TryPopInto(&dst) {
		return dst, true
	}
	return Chunk{}, atomic.LoadUint32(&r.closed) == 0
}

// Close marks the producer half as gone. After Close, TryPush always fails
// and TryPopInto/Recv drain any remaining queued chunks before reporting
// empty, matching "recv returns None only after the producer half is
// dropped, and only once queued data is exhausted".
func (r *Ring) Close() {
	atomic.StoreUint32(&r.closed, 1)
}

// Closed reports whether Close has been called.
func (r *Ring) Closed() bool {
	return atomic.LoadUint32(&r.closed) != 0
}

// Dropped returns the count of chunks dropped due to overflow since
// construction.
func (r *Ring) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

// Len reports the number of chunks currently queued. Safe to call from
// either side; the result may be stale by the time it's read.
func (r *Ring) Len() int {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	return int(head - tail)
}

// ChunkSamples returns the sample length of each slot.
func (r *Ring) ChunkSamples() int {
	if len(r.slots) == 0 {
		return 0
	}
	return len(r.slots[0].chunk.Samples)
}
