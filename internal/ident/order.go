package ident

import "iter"

// Order is a sparse table mapping raw ID values to optional dense slots.
// It separates stable identity from storage position: evolutionary edits
// add and remove IDs cheaply while dense slots stay compacted.
//
// The zero value is an empty, ready-to-use Order.
type Order struct {
	// index is indexed by raw ID value; entries hold the dense slot or None.
	index []ID
	count int
	// largest is the largest used ID when known, None when knowledge was
	// lost by removing the largest entry. Truncate restores it.
	largest ID
}

// NewOrder returns an empty Order.
func NewOrder() *Order {
	return &Order{largest: None}
}

func (o *Order) lazyInit() {
	// The zero value has largest == 0, which must read as unknown.
	if o.count == 0 && len(o.index) == 0 {
		o.largest = None
	}
}

// Count returns the number of IDs currently in the order.
func (o *Order) Count() int { return o.count }

// LargestUsed returns the largest ID in the order if known. Knowledge is
// lost when the largest entry is cleared and restored by Truncate.
func (o *Order) LargestUsed() (ID, bool) {
	if o.count == 0 || o.largest == None {
		return None, false
	}
	return o.largest, true
}

// IsPacked reports whether the used IDs occupy the contiguous range 0..n-1.
func (o *Order) IsPacked() bool {
	return o.count == 0 || (o.largest != None && int(o.largest)+1 == o.count)
}

// Index returns the dense slot assigned to id.
func (o *Order) Index(id ID) (int, bool) {
	if int(id) >= len(o.index) || o.index[int(id)] == None {
		return 0, false
	}
	return int(o.index[int(id)]), true
}

// Compare orders a and b by their dense slots. It reports -1, 0 or +1 and
// false when either ID is not in the order.
func (o *Order) Compare(a, b ID) (int, bool) {
	sa, oka := o.Index(a)
	sb, okb := o.Index(b)
	if !oka || !okb {
		return 0, false
	}
	switch {
	case sa < sb:
		return -1, true
	case sa > sb:
		return 1, true
	}
	return 0, true
}

// Set assigns a dense slot to id, growing the table as needed.
//
// The caller guarantees that slot is unique among used entries and does not
// exceed MaxID. This is a precondition, not runtime-checked.
func (o *Order) Set(id ID, slot int) {
	o.lazyInit()
	i := int(id)
	if i >= len(o.index) {
		grown := make([]ID, i+1)
		copy(grown, o.index)
		for j := len(o.index); j <= i; j++ {
			grown[j] = None
		}
		o.index = grown
	}
	if o.index[i] == None {
		o.count++
	}
	o.index[i] = ID(slot)
	if o.largest != None && id > o.largest {
		o.largest = id
	} else if o.count == 1 {
		o.largest = id
	}
}

// Clear removes id from the order. Clearing an absent ID is a no-op.
func (o *Order) Clear(id ID) {
	o.lazyInit()
	i := int(id)
	if i >= len(o.index) || o.index[i] == None {
		return
	}
	o.index[i] = None
	o.count--
	if o.largest == id {
		o.largest = None
	}
}

// Swap exchanges the dense slots of a and b in O(1).
// Both IDs must be within the table bounds.
func (o *Order) Swap(a, b ID) {
	o.index[int(a)], o.index[int(b)] = o.index[int(b)], o.index[int(a)]
}

// Truncate drops trailing unused entries and restores knowledge of the
// largest used ID. It returns that ID, or false when the order is empty.
func (o *Order) Truncate() (ID, bool) {
	o.lazyInit()
	if o.largest != None {
		o.index = o.index[:int(o.largest)+1]
		return o.largest, true
	}
	if o.count == 0 {
		o.index = o.index[:0]
		return None, false
	}
	n := len(o.index)
	for n > 0 && o.index[n-1] == None {
		n--
	}
	o.index = o.index[:n]
	o.largest = ID(n - 1)
	return o.largest, true
}

// NextFree returns the smallest unused ID greater than after, or the overall
// smallest when after is None. Gaps in the table are preferred; otherwise a
// brand-new ID at the table length is issued. It fails only when the ID
// space is exhausted.
func (o *Order) NextFree(after ID) (ID, bool) {
	start := 0
	if after != None {
		start = int(after) + 1
	}
	for i := start; i < len(o.index); i++ {
		if o.index[i] == None {
			return ID(i), true
		}
	}
	next := len(o.index)
	if next < start {
		next = start
	}
	if ID(next) > MaxID {
		return None, false
	}
	return ID(next), true
}

// IterUsed yields the used IDs in ascending order.
func (o *Order) IterUsed() iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for i, slot := range o.index {
			if slot != None && !yield(ID(i)) {
				return
			}
		}
	}
}

// IterFree yields the unused IDs within the table bounds in ascending order.
func (o *Order) IterFree() iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for i, slot := range o.index {
			if slot == None && !yield(ID(i)) {
				return
			}
		}
	}
}

// Rebuild repacks the table so the given sequence occupies dense slots
// 0..n-1 in order. IDs are reassigned to minimize storage; the returned
// old-to-new map is used by callers to update all external references.
func (o *Order) Rebuild(order []ID) map[ID]ID {
	remap := make(map[ID]ID, len(order))
	for i, id := range order {
		remap[id] = ID(i)
	}
	o.index = o.index[:0]
	for i := range order {
		o.index = append(o.index, ID(i))
	}
	o.count = len(order)
	if o.count == 0 {
		o.largest = None
	} else {
		o.largest = ID(o.count - 1)
	}
	return remap
}

// BuildMapping assigns packed IDs 0..n-1 to the elements of seq in
// iteration order. Duplicate keys keep the last assignment.
func BuildMapping[K comparable](seq []K) map[K]ID {
	m := make(map[K]ID, len(seq))
	for i, k := range seq {
		m[k] = ID(i)
	}
	return m
}
