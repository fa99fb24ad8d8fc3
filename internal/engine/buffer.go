package engine

import (
	"bytes"
	"errors"
)

var errBufferOverflow = errors.New("engine: capture buffer overflow")

// boundedBuffer captures process output up to limit bytes. The write that
// would cross the limit fails, marks the buffer as overflowed and fires
// onOverflow once. Nothing past the limit is kept.
type boundedBuffer struct {
	buf        bytes.Buffer
	limit      int
	overflowed bool
	onOverflow func()
}

func newBoundedBuffer(limit int, onOverflow func()) *boundedBuffer {
	return &boundedBuffer{limit: limit, onOverflow: onOverflow}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if b.overflowed {
		return 0, errBufferOverflow
	}
	if b.buf.Len()+len(p) > b.limit {
		b.overflowed = true
		if b.onOverflow != nil {
			b.onOverflow()
		}
		return 0, errBufferOverflow
	}
	return b.buf.Write(p)
}

func (b *boundedBuffer) Overflowed() bool {
	return b.overflowed
}

func (b *boundedBuffer) String() string {
	return b.buf.String()
}
