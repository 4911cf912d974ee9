// Object pools for reducing GC pressure in the tokenizer/emitter hot path
//
// Provides reusable object pools for the types churned once per G-code line:
// - Parameter maps (letter -> value)
// - Byte buffers (for line emission)
//
// Usage:
//
//	params := pool.GetParamsMap()
//	defer pool.PutParamsMap(params)
//	// use params...
//
// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"sync"
)

// ParamsMap pool - for G-code parameter maps
var paramsMapPool = sync.Pool{
	New: func() any {
		return make(map[string]float64, 8) // Pre-allocate common size
	},
}

// GetParamsMap gets a parameter map from the pool
func GetParamsMap() map[string]float64 {
	return paramsMapPool.Get().(map[string]float64)
}

// PutParamsMap returns a parameter map to the pool after clearing it
func PutParamsMap(m map[string]float64) {
	if m == nil {
		return
	}
	clear(m)
	paramsMapPool.Put(m)
}

// ByteBuffer - for line emission buffers
type ByteBuffer struct {
	buf []byte
}

var lineBufferPool = sync.Pool{
	New: func() any {
		return &ByteBuffer{
			buf: make([]byte, 0, 96), // Common emitted line size
		}
	},
}

// GetLineBuffer gets a byte buffer from the pool
func GetLineBuffer() *ByteBuffer {
	b := lineBufferPool.Get().(*ByteBuffer)
	b.buf = b.buf[:0] // Reset length but keep capacity
	return b
}

// PutLineBuffer returns a byte buffer to the pool
func PutLineBuffer(b *ByteBuffer) {
	if b == nil {
		return
	}
	// Don't pool oversized buffers (> 4KB)
	if cap(b.buf) > 4096 {
		return
	}
	lineBufferPool.Put(b)
}

// Bytes returns the buffer's byte slice
func (b *ByteBuffer) Bytes() []byte {
	return b.buf
}

// Write appends bytes to the buffer
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte
func (b *ByteBuffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends a string
func (b *ByteBuffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// Len returns the buffer length
func (b *ByteBuffer) Len() int {
	return len(b.buf)
}

// Reset clears the buffer
func (b *ByteBuffer) Reset() {
	b.buf = b.buf[:0]
}

// String returns the buffer contents as a string
func (b *ByteBuffer) String() string {
	return string(b.buf)
}
