package bridgeruntime

// Key is an array key: either an integer or a string. The zero value is the
// string key "".
type Key struct {
	Str   string
	Int   int64
	IsInt bool
}

// IntKey returns an integer key.
func IntKey(i int64) Key {
	return Key{Int: i, IsInt: true}
}

// StringKey returns a string key.
func StringKey(s string) Key {
	return Key{Str: s}
}

// Native returns the key as an int64 or a string.
func (k Key) Native() any {
	if k.IsInt {
		return k.Int
	}
	return k.Str
}

// Pair is one key/value entry of an Array.
type Pair struct {
	Key   Key
	Value any
}

// Array is an ordered collection keyed by integers and strings. It is the
// native form of the wire's "array" tag: insertion order is preserved and
// keys need not be contiguous.
//
// Array is not safe for concurrent use; the bridge protocol never mutates
// one from more than one goroutine.
type Array struct {
	pairs []Pair
	index map[Key]int
}

// NewArray returns an empty Array.
func NewArray() *Array {
	return &Array{index: make(map[Key]int)}
}

// ListArray returns an Array with the given values under keys 0..n-1.
func ListArray(values ...any) *Array {
	a := NewArray()
	for _, v := range values {
		a.Append(v)
	}
	return a
}

// Len returns the number of entries.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.pairs)
}

// Pairs returns the entries in order. The slice is shared; callers must not
// modify it.
func (a *Array) Pairs() []Pair {
	if a == nil {
		return nil
	}
	return a.pairs
}

// Set stores value under key, replacing an existing entry in place or
// appending a new one.
func (a *Array) Set(key Key, value any) {
	if i, ok := a.index[key]; ok {
		a.pairs[i].Value = value
		return
	}
	a.index[key] = len(a.pairs)
	a.pairs = append(a.pairs, Pair{Key: key, Value: value})
}

// Append stores value under the next free integer key, one past the largest
// integer key used so far.
func (a *Array) Append(value any) {
	next := int64(0)
	for _, p := range a.pairs {
		if p.Key.IsInt && p.Key.Int >= next {
			next = p.Key.Int + 1
		}
	}
	a.Set(IntKey(next), value)
}

// Get returns the value stored under key.
func (a *Array) Get(key Key) (any, bool) {
	if a == nil {
		return nil, false
	}
	i, ok := a.index[key]
	if !ok {
		return nil, false
	}
	return a.pairs[i].Value, true
}

// Has reports whether key is present.
func (a *Array) Has(key Key) bool {
	if a == nil {
		return false
	}
	_, ok := a.index[key]
	return ok
}

// Delete removes the entry under key, preserving the order of the rest.
func (a *Array) Delete(key Key) bool {
	i, ok := a.index[key]
	if !ok {
		return false
	}
	a.pairs = append(a.pairs[:i], a.pairs[i+1:]...)
	delete(a.index, key)
	for j := i; j < len(a.pairs); j++ {
		a.index[a.pairs[j].Key] = j
	}
	return true
}

// Keys returns the keys in order as int64 and string values.
func (a *Array) Keys() []any {
	keys := make([]any, 0, a.Len())
	for _, p := range a.Pairs() {
		keys = append(keys, p.Key.Native())
	}
	return keys
}

// Values returns the values in order.
func (a *Array) Values() []any {
	values := make([]any, 0, a.Len())
	for _, p := range a.Pairs() {
		values = append(values, p.Value)
	}
	return values
}

// Sequential reports whether the keys are exactly the integers 0..n-1 in
// order, i.e. whether the array could have been built from a list.
func (a *Array) Sequential() bool {
	for i, p := range a.Pairs() {
		if !p.Key.IsInt || p.Key.Int != int64(i) {
			return false
		}
	}
	return true
}
