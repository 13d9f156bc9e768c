package control

func newDocument() *Document {
	return &Document{
		values: map[string]string{},
	}
}

func (d *Document) set(key, value string) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value of a field, or an empty string
// if the field is not present.
func (d *Document) Get(key string) string {
	return d.values[key]
}

// Lookup returns the value of a field and whether
// it was present at all.
func (d *Document) Lookup(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the field names in the order that they
// were first seen.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *Document) Len() int {
	return len(d.keys)
}

// Package returns the value of the "Package" field so that
// callers can check it against the package they expected.
func (d *Document) Package() string {
	return d.Get(FieldPackage)
}
