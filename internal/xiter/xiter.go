package xiter

import "iter"

// Slice exposes a slice as an iterator sequence.
func Slice[T any](items []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}

// Chunks splits data into consecutive views of at most size bytes.
// A size below one yields the whole slice at once. Empty data yields nothing.
func Chunks(data []byte, size int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		step := size
		if step < 1 {
			step = max(len(data), 1)
		}
		for start := 0; start < len(data); start += step {
			end := min(start+step, len(data))
			if !yield(data[start:end:end]) {
				return
			}
		}
	}
}
