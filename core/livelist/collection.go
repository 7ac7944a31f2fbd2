// Package livelist keeps an ordered, id-unique collection of records in sync
// with a server-push stream: one seed event with the full collection, then
// single-record upserts.
package livelist

// Record is anything with a stable, immutable id.
type Record interface {
	RecordID() string
}

// Event is one of Seed, Upsert or Failure.
type Event[R Record] interface {
	isEvent()
}

type (
	// Seed replaces the whole collection, in server order.
	Seed[R Record] struct {
		Records []R
		// Dropped counts records the decoder discarded for lacking an id.
		Dropped int
	}

	// Upsert replaces the record with the same id in place, or appends it.
	Upsert[R Record] struct {
		Record R
	}

	// Failure reports a transport failure. It ends the subscription.
	Failure struct {
		Err error
	}
)

func (Seed[R]) isEvent()   {}
func (Upsert[R]) isEvent() {}
func (Failure) isEvent()   {}

// Disqualified says what happens to a known record whose update no longer passes the filter.
type Disqualified int

const (
	// Evict removes the record.
	Evict Disqualified = iota
	// Retain replaces it in place anyway.
	Retain
)

// Filter is the client-side inclusion predicate of a screen.
type Filter[R Record] struct {
	Include      func(R) bool
	Disqualified Disqualified
}

func (f Filter[R]) admits(r R) bool {
	return f.Include == nil || f.Include(r)
}

// Collection is an immutable ordered set of records keyed by id.
// The zero value is an empty collection.
type Collection[R Record] struct {
	items []R
	index map[string]int
}

// NewCollection builds a collection from records; a repeated id replaces the earlier one in place.
func NewCollection[R Record](records ...R) Collection[R] {
	c := Collection[R]{
		items: make([]R, 0, len(records)),
		index: make(map[string]int, len(records)),
	}
	for _, r := range records {
		if i, ok := c.index[r.RecordID()]; ok {
			c.items[i] = r
			continue
		}
		c.index[r.RecordID()] = len(c.items)
		c.items = append(c.items, r)
	}
	return c
}

func (c Collection[R]) Len() int { return len(c.items) }

// Items returns the records in display order. The slice is a copy.
func (c Collection[R]) Items() []R {
	out := make([]R, len(c.items))
	copy(out, c.items)
	return out
}

func (c Collection[R]) Get(id string) (R, bool) {
	if i, ok := c.index[id]; ok {
		return c.items[i], true
	}
	var zero R
	return zero, false
}

// Apply reconciles one event into c and returns the resulting collection. c is left untouched.
func Apply[R Record](c Collection[R], f Filter[R], ev Event[R]) Collection[R] {
	switch e := ev.(type) {
	case Seed[R]:
		admitted := make([]R, 0, len(e.Records))
		for _, r := range e.Records {
			if f.admits(r) {
				admitted = append(admitted, r)
			}
		}
		return NewCollection(admitted...)
	case Upsert[R]:
		return c.upsert(f, e.Record)
	default:
		return c
	}
}

func (c Collection[R]) upsert(f Filter[R], r R) Collection[R] {
	admitted := f.admits(r)
	i, known := c.index[r.RecordID()]

	switch {
	case known && !admitted && f.Disqualified == Evict:
		return c.without(i)
	case known:
		items := c.Items()
		items[i] = r
		return Collection[R]{items: items, index: c.index} // ids unchanged: index is shared
	case !admitted:
		return c
	}

	items := make([]R, len(c.items), len(c.items)+1)
	copy(items, c.items)
	index := make(map[string]int, len(c.index)+1)
	for id, pos := range c.index {
		index[id] = pos
	}
	index[r.RecordID()] = len(items)
	return Collection[R]{items: append(items, r), index: index}
}

func (c Collection[R]) without(i int) Collection[R] {
	items := make([]R, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	return NewCollection(items...)
}
