package frame

import "fmt"

// compactMin is the smallest dead prefix worth reclaiming.
const compactMin = 4096

// Accumulator is the rolling byte buffer for one stream. Bytes enter at the
// tail through Append and leave from the head through Consume; nothing else
// reorders or drops them.
//
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	buf  []byte
	head int
	// gen changes whenever bytes leave the buffer.
	gen uint64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds p to the tail. The accumulator keeps its own copy.
func (a *Accumulator) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	a.compact(len(p))
	a.buf = append(a.buf, p...)
}

// Consume removes the first n buffered bytes.
func (a *Accumulator) Consume(n int) error {
	if n < 0 || n > a.Len() {
		return fmt.Errorf("%w: consume %d of %d buffered bytes", ErrInvalidArgument, n, a.Len())
	}
	if n == 0 {
		return nil
	}
	a.head += n
	a.gen++
	if a.head == len(a.buf) {
		a.buf = a.buf[:0]
		a.head = 0
	}
	return nil
}

// Peek returns the unconsumed bytes. The slice aliases internal storage and
// is only valid until the next Append, Consume or Reset.
func (a *Accumulator) Peek() []byte {
	return a.buf[a.head:]
}

func (a *Accumulator) Len() int {
	return len(a.buf) - a.head
}

// Reset drops every buffered byte and releases the backing array.
func (a *Accumulator) Reset() {
	a.buf = nil
	a.head = 0
	a.gen++
}

// compact slides the live tail to the front when the consumed prefix is
// large and the incoming write would otherwise grow the backing array.
func (a *Accumulator) compact(incoming int) {
	if a.head == 0 {
		return
	}
	if len(a.buf)+incoming <= cap(a.buf) && a.head < compactMin {
		return
	}
	if a.head < a.Len() && a.head < compactMin {
		return
	}
	n := copy(a.buf, a.buf[a.head:])
	a.buf = a.buf[:n]
	a.head = 0
}
