// Package arena provides a chunked bump allocator for per-agent runtime
// state. Buffers are allocated once per generation and never freed
// individually; FreeAll releases everything in one step. A rotating pair of
// arenas plus MoveInto gives a cheap generational bulk free: migrate the
// surviving buffers into the standby arena, then bulk-free the vacated one.
//
// Chunks never move once allocated, so outstanding buffers stay valid
// across later allocations. Element types must not contain pointers: chunk
// backing is byte memory the garbage collector does not scan.
package arena

import (
	"iter"
	"unsafe"
)

const minChunkSize = 1 << 12

// Arena is a growable bump allocator over fixed byte chunks.
// It is not safe for concurrent use; allocate in a single-threaded setup
// phase before parallel stepping.
type Arena struct {
	chunks [][]byte
	cur    int // chunk currently bumped into
	off    int // used bytes of the current chunk
}

// New returns an empty arena.
func New() *Arena {
	return &Arena{}
}

// Buffer is an arena-owned, fixed-length contiguous sequence of T.
// The zero value is an empty buffer.
type Buffer[T any] struct {
	data []T
}

// Len returns the number of elements.
func (b Buffer[T]) Len() int { return len(b.data) }

// At returns a pointer to element i.
func (b Buffer[T]) At(i int) *T { return &b.data[i] }

// Slice exposes the underlying storage. The slice aliases arena memory and
// must not be retained past FreeAll or migration of the buffer.
func (b Buffer[T]) Slice() []T { return b.data }

// alloc reserves size bytes aligned to align and returns the base pointer.
func (a *Arena) alloc(size, align int) unsafe.Pointer {
	for {
		if a.cur < len(a.chunks) {
			chunk := a.chunks[a.cur]
			base := uintptr(unsafe.Pointer(unsafe.SliceData(chunk)))
			pad := int(-(base + uintptr(a.off)) & uintptr(align-1))
			if a.off+pad+size <= len(chunk) {
				p := unsafe.Pointer(&chunk[a.off+pad])
				a.off += pad + size
				return p
			}
			a.cur++
			a.off = 0
			continue
		}
		n := minChunkSize
		for n < size+align {
			n *= 2
		}
		a.chunks = append(a.chunks, make([]byte, n))
		a.cur = len(a.chunks) - 1
		a.off = 0
	}
}

// FreeAll releases every buffer at once by resetting the bump cursor.
// Chunks are retained for reuse. The caller guarantees that no outstanding
// buffer is referenced afterwards.
func (a *Arena) FreeAll() {
	a.cur = 0
	a.off = 0
}

// AllocSlice appends n aligned slots to the arena and constructs each with
// factory.
func AllocSlice[T any](a *Arena, n int, factory func() T) Buffer[T] {
	buf := allocRaw[T](a, n)
	for i := range buf.data {
		buf.data[i] = factory()
	}
	return buf
}

// AllocSliceFrom materializes seq into an arena buffer. The sequence length
// is not known up front, so elements are gathered through a scratch slice
// before the single arena copy; a bump allocator cannot grow an allocation
// across a chunk boundary.
func AllocSliceFrom[T any](a *Arena, seq iter.Seq[T]) Buffer[T] {
	var tmp []T
	for v := range seq {
		tmp = append(tmp, v)
	}
	buf := allocRaw[T](a, len(tmp))
	copy(buf.data, tmp)
	return buf
}

// MoveInto copies buf into dst and returns the new buffer. Contents and
// length are preserved exactly. The caller guarantees the source buffer is
// never used again: this is an ownership transfer, not aliasing.
func MoveInto[T any](dst *Arena, buf Buffer[T]) Buffer[T] {
	out := allocRaw[T](dst, buf.Len())
	copy(out.data, buf.data)
	return out
}

func allocRaw[T any](a *Arena, n int) Buffer[T] {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if n == 0 || size == 0 {
		return Buffer[T]{data: make([]T, n)}
	}
	p := a.alloc(n*size, int(unsafe.Alignof(zero)))
	return Buffer[T]{data: unsafe.Slice((*T)(p), n)}
}
