package sim

// fifo is a fixed-capacity ring in the style of machine.RingBuffer: head and
// tail are free-running counters and the slot index is taken modulo the
// capacity.
type fifo[T any] struct {
	buf        []T
	head, tail uint
}

func newFIFO[T any](size int) fifo[T] {
	return fifo[T]{buf: make([]T, size)}
}

// Used returns how many entries are queued.
func (f *fifo[T]) Used() int { return int(f.head - f.tail) }

// Full reports whether Put would fail.
func (f *fifo[T]) Full() bool { return f.Used() == len(f.buf) }

// Put appends v. If the FIFO is already full, it returns false.
func (f *fifo[T]) Put(v T) bool {
	if f.Full() {
		return false
	}
	f.buf[f.head%uint(len(f.buf))] = v
	f.head++
	return true
}

// Get removes the oldest entry. If the FIFO is empty, it returns false.
func (f *fifo[T]) Get() (T, bool) {
	var zero T
	if f.Used() == 0 {
		return zero, false
	}
	v := f.buf[f.tail%uint(len(f.buf))]
	f.tail++
	return v, true
}

// Clear discards every entry by resetting the head and tail counters.
func (f *fifo[T]) Clear() {
	f.head, f.tail = 0, 0
}
