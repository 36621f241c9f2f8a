package value

// Mapping is a string-keyed map that remembers insertion order. Keys
// are unique; setting an existing key updates the value in place
// without moving it. Merges preserve order so multi-source documents
// stay reproducible.
type Mapping struct {
	keys []string
	vals map[string]Value
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: map[string]Value{}}
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Null(), false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key, appending the key when it is new. Returns
// the Mapping for chaining.
func (m *Mapping) Set(key string, v Value) *Mapping {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
	return m
}

// Delete removes key, preserving the order of the remaining keys.
func (m *Mapping) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns
// false.
func (m *Mapping) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (m *Mapping) Clone() *Mapping {
	out := NewMapping()
	m.Range(func(key string, v Value) bool {
		out.Set(key, v.Clone())
		return true
	})
	return out
}

// Raw converts the Mapping into a plain nested map[string]any for
// interop with koanf and mapstructure. Insertion order is lost.
func (m *Mapping) Raw() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(key string, v Value) bool {
		out[key] = v.Interface()
		return true
	})
	return out
}
