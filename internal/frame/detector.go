package frame

import (
	"bytes"
	"iter"
)

// Detector cuts complete frames out of an Accumulator. It only reads the
// accumulator and consumes what it emits; the caller owns appends.
//
// The detector remembers how much of the buffer it already searched without
// a match, so repeated calls over a growing undelimited buffer do not rescan
// it from the start. Frames produced are identical to a full rescan.
type Detector struct {
	mode   Mode
	delims Delimiters
	acc    *Accumulator

	// startAt is the offset of a matched start delimiter still waiting for
	// its end delimiter, or -1.
	startAt int
	// scanned is the buffer prefix already searched for the current target.
	scanned int
	// gen is the accumulator generation startAt and scanned refer to.
	gen uint64
}

// NewDetector validates the mode and delimiters before any data is seen.
func NewDetector(mode Mode, delims Delimiters, acc *Accumulator) (*Detector, error) {
	if err := delims.Validate(mode); err != nil {
		return nil, err
	}
	if acc == nil {
		acc = NewAccumulator()
	}
	return &Detector{
		mode:    mode,
		delims:  delims.clone(),
		acc:     acc,
		startAt: -1,
		gen:     acc.gen,
	}, nil
}

func (d *Detector) Mode() Mode {
	return d.mode
}

func (d *Detector) Delimiters() Delimiters {
	return d.delims.clone()
}

// Accumulator returns the buffer the detector drains. Consuming or
// resetting it directly discards any partial match; the next search starts
// over from the head.
func (d *Detector) Accumulator() *Accumulator {
	return d.acc
}

// Frames yields every frame currently complete in the buffer. Each frame is
// consumed from the buffer before it is yielded; stopping early leaves the
// rest for the next call. Frames never alias the buffer.
func (d *Detector) Frames() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for {
			f, ok := d.next()
			if !ok {
				return
			}
			if !yield(f) {
				return
			}
		}
	}
}

// Extract drains all complete frames into a slice.
func (d *Detector) Extract() [][]byte {
	var out [][]byte
	for f := range d.Frames() {
		out = append(out, f)
	}
	return out
}

// Reset discards buffered bytes along with any partial frame.
func (d *Detector) Reset() {
	d.acc.Reset()
	d.startAt = -1
	d.scanned = 0
	d.gen = d.acc.gen
}

func (d *Detector) next() ([]byte, bool) {
	// The accumulator was reset or consumed behind our back.
	if d.gen != d.acc.gen {
		d.startAt = -1
		d.scanned = 0
		d.gen = d.acc.gen
	}
	switch d.mode {
	case EndDelimiterOnly:
		return d.nextEnd()
	case StartAndEndDelimiter:
		return d.nextStartEnd()
	case NoDelimiters:
		return d.nextPassthrough()
	default:
		return nil, false
	}
}

func (d *Detector) nextEnd() ([]byte, bool) {
	buf := d.acc.Peek()
	end := d.delims.End
	from := resumeAt(d.scanned, len(end))
	i := bytes.Index(buf[from:], end)
	if i < 0 {
		d.scanned = len(buf)
		return nil, false
	}
	i += from
	f := copyFrame(buf[:i])
	d.consume(i + len(end))
	return f, true
}

func (d *Detector) nextStartEnd() ([]byte, bool) {
	buf := d.acc.Peek()
	start, end := d.delims.Start, d.delims.End
	if d.startAt < 0 {
		from := resumeAt(d.scanned, len(start))
		s := bytes.Index(buf[from:], start)
		if s < 0 {
			d.scanned = len(buf)
			return nil, false
		}
		d.startAt = from + s
		d.scanned = d.startAt + len(start)
	}

	body := d.startAt + len(start)
	from := max(body, resumeAt(d.scanned, len(end)))
	e := bytes.Index(buf[from:], end)
	if e < 0 {
		d.scanned = len(buf)
		return nil, false
	}
	e += from
	f := copyFrame(buf[body:e])
	// Bytes ahead of the start delimiter go with the frame.
	d.consume(e + len(end))
	return f, true
}

func (d *Detector) nextPassthrough() ([]byte, bool) {
	buf := d.acc.Peek()
	if len(buf) == 0 {
		return nil, false
	}
	f := copyFrame(buf)
	d.consume(len(buf))
	return f, true
}

func (d *Detector) consume(n int) {
	if err := d.acc.Consume(n); err != nil {
		panic(err)
	}
	d.startAt = -1
	d.scanned = 0
	d.gen = d.acc.gen
}

// resumeAt backs up far enough to catch a delimiter that straddles the end
// of the previously searched region.
func resumeAt(scanned, delimLen int) int {
	return max(0, scanned-delimLen+1)
}

func copyFrame(p []byte) []byte {
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
