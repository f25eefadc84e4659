package ecs

// Column is a single growable storage array: one (component, field) slot
// per row, or a tick array. Capacity always tracks row capacity, never row
// count directly — Resize is the only thing that changes it.
type Column interface {
	// Len reports the current capacity (slot count), not how many are "live" —
	// liveness is tracked by the owning archetype's row count.
	Len() int
	// Resize grows or shrinks the column to n slots, preserving the first
	// min(n, Len()) values. New slots are zero-valued.
	Resize(n int)
	// ClearSlot writes the sentinel empty/zero value at i.
	ClearSlot(i int)
	// Get reads the value at slot i, boxed.
	Get(i int) any
	// Set writes a boxed value at slot i.
	Set(i int, v any)
	// CopySlot copies src[srcIdx] into this column at dstIdx. src must be
	// the same concrete column kind.
	CopySlot(dstIdx int, src Column, srcIdx int)
	Kind() ColumnKind
}

// NewColumn allocates a zero-capacity column of the given kind.
func NewColumn(kind ColumnKind) Column {
	switch kind {
	case KindI8:
		return &numericColumn[int8]{kind: kind}
	case KindI16:
		return &numericColumn[int16]{kind: kind}
	case KindI32:
		return &numericColumn[int32]{kind: kind}
	case KindU32:
		return &numericColumn[uint32]{kind: kind}
	case KindF32:
		return &numericColumn[float32]{kind: kind}
	case KindF64:
		return &numericColumn[float64]{kind: kind}
	default:
		return &boxedColumn{kind: kind}
	}
}

// newTickColumn allocates the u32 column backing an added/changed tick array.
func newTickColumn() Column { return NewColumn(KindU32) }

type numeric interface {
	~int8 | ~int16 | ~int32 | ~uint32 | ~float32 | ~float64
}

type numericColumn[T numeric] struct {
	data []T
	kind ColumnKind
}

func (c *numericColumn[T]) Len() int { return len(c.data) }

func (c *numericColumn[T]) Resize(n int) {
	if n <= len(c.data) {
		c.data = c.data[:n]
		return
	}
	grown := make([]T, n)
	copy(grown, c.data)
	c.data = grown
}

func (c *numericColumn[T]) ClearSlot(i int) {
	var zero T
	c.data[i] = zero
}

func (c *numericColumn[T]) Get(i int) any { return c.data[i] }

func (c *numericColumn[T]) Set(i int, v any) {
	switch val := v.(type) {
	case T:
		c.data[i] = val
	case nil:
		c.ClearSlot(i)
	default:
		panic("ecs: numeric column type mismatch")
	}
}

func (c *numericColumn[T]) CopySlot(dstIdx int, src Column, srcIdx int) {
	s, ok := src.(*numericColumn[T])
	if !ok {
		panic("ecs: CopySlot column kind mismatch")
	}
	c.data[dstIdx] = s.data[srcIdx]
}

func (c *numericColumn[T]) Kind() ColumnKind { return c.kind }

// boxedColumn backs primitive(bool | string) and generic<T> fields, plus
// whole-component payload storage for components with an opaque Go value
// per row (the common case for user-facing component types).
type boxedColumn struct {
	data []any
	kind ColumnKind
}

func (c *boxedColumn) Len() int { return len(c.data) }

func (c *boxedColumn) Resize(n int) {
	if n <= len(c.data) {
		c.data = c.data[:n]
		return
	}
	grown := make([]any, n)
	copy(grown, c.data)
	c.data = grown
}

// ClearSlot writes the sentinel "empty" value. Per spec §9, the trailing
// slot's prior value is not otherwise zeroed out on swap-remove beyond
// this write: callers holding external references to a previously stored
// object should not rely on prompt release.
func (c *boxedColumn) ClearSlot(i int) { c.data[i] = nil }

func (c *boxedColumn) Get(i int) any { return c.data[i] }

func (c *boxedColumn) Set(i int, v any) { c.data[i] = v }

func (c *boxedColumn) CopySlot(dstIdx int, src Column, srcIdx int) {
	s, ok := src.(*boxedColumn)
	if !ok {
		panic("ecs: CopySlot column kind mismatch")
	}
	c.data[dstIdx] = s.data[srcIdx]
}

func (c *boxedColumn) Kind() ColumnKind { return c.kind }
