// Package secret keeps wallet secrets encrypted at rest with age and
// holds decrypted material in locked, wipeable memory.
package secret

import (
	"runtime"
	"sync"
)

// Buffer holds sensitive bytes. The backing memory is mlocked when the
// platform allows and is zeroed by Wipe or, failing that, by the finalizer.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// NewBuffer copies src into locked memory and zeroes src.
func NewBuffer(src []byte) *Buffer {
	b := &Buffer{data: make([]byte, len(src))}
	copy(b.data, src)
	Zero(src)

	b.locked = mlock(b.data)
	runtime.SetFinalizer(b, (*Buffer).Wipe)
	return b
}

// Bytes returns the protected bytes, or nil after Wipe.
// Callers must not retain the slice past Wipe.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// String returns a copy of the contents as a string.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

// Len returns the number of protected bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Locked reports whether the memory is mlocked.
func (b *Buffer) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Wipe zeroes and releases the memory. Safe to call repeatedly.
func (b *Buffer) Wipe() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return
	}
	Zero(b.data)
	if b.locked {
		munlock(b.data)
		b.locked = false
	}
	b.data = nil
	runtime.SetFinalizer(b, nil)
}

// Zero overwrites p with zeros.
func Zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
