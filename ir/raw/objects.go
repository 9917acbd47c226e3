package raw

// Concrete implementations for raw objects (the subset the writer emits).

// Name object
type NameObj struct{ Val string }

func (n NameObj) Type() string  { return "name" }
func (n NameObj) Value() string { return n.Val }

// Number object
type NumberObj struct {
	I     int64
	F     float64
	IsInt bool
}

func (n NumberObj) Type() string { return "number" }
func (n NumberObj) Int() int64 {
	if n.IsInt {
		return n.I
	}
	return int64(n.F)
}
func (n NumberObj) Float() float64 {
	if n.IsInt {
		return float64(n.I)
	}
	return n.F
}
func (n NumberObj) IsInteger() bool { return n.IsInt }

// Boolean object
type BoolObj struct{ V bool }

func (b BoolObj) Type() string { return "boolean" }
func (b BoolObj) Value() bool  { return b.V }

// Null object
type NullObj struct{}

func (n NullObj) Type() string { return "null" }

// String object (literal only)
type StringObj struct{ Bytes []byte }

func (s StringObj) Type() string  { return "string" }
func (s StringObj) Value() []byte { return s.Bytes }

// Array object
type ArrayObj struct{ Items []Object }

func (a *ArrayObj) Type() string { return "array" }
func (a *ArrayObj) Get(i int) (Object, bool) {
	if i < 0 || i >= len(a.Items) {
		return nil, false
	}
	return a.Items[i], true
}
func (a *ArrayObj) Len() int        { return len(a.Items) }
func (a *ArrayObj) Append(o Object) { a.Items = append(a.Items, o) }

// DictObj keeps keys in insertion order so serialized bodies are stable and
// read the way they were built.
type DictObj struct {
	KV   map[string]Object
	keys []string
}

func (d *DictObj) Type() string { return "dict" }
func (d *DictObj) Get(key string) (Object, bool) {
	o, ok := d.KV[key]
	return o, ok
}
func (d *DictObj) Set(key string, value Object) {
	if d.KV == nil {
		d.KV = make(map[string]Object)
	}
	if _, ok := d.KV[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.KV[key] = value
}
func (d *DictObj) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}
func (d *DictObj) Len() int { return len(d.keys) }

// Stream object
type StreamObj struct {
	Dict *DictObj
	Data []byte
}

func (s *StreamObj) Type() string           { return "stream" }
func (s *StreamObj) Dictionary() Dictionary { return s.Dict }
func (s *StreamObj) RawData() []byte        { return s.Data }
func (s *StreamObj) Length() int64          { return int64(len(s.Data)) }

// Reference object
type RefObj struct{ R ObjectRef }

func (r RefObj) Type() string   { return "ref" }
func (r RefObj) Ref() ObjectRef { return r.R }

// Helpers
func NameLiteral(v string) NameObj    { return NameObj{Val: v} }
func NumberInt(i int64) NumberObj     { return NumberObj{I: i, IsInt: true} }
func NumberFloat(f float64) NumberObj { return NumberObj{F: f, IsInt: false} }
func Bool(v bool) BoolObj             { return BoolObj{V: v} }
func Str(s string) StringObj          { return StringObj{Bytes: []byte(s)} }
func NewArray(items ...Object) *ArrayObj {
	return &ArrayObj{Items: items}
}
func Dict() *DictObj { return &DictObj{KV: make(map[string]Object)} }
func Ref(num, gen int) RefObj {
	return RefObj{R: ObjectRef{Num: num, Gen: gen}}
}

// Number returns an integer number when v has no fractional part.
func Number(v float64) NumberObj {
	if v == float64(int64(v)) {
		return NumberInt(int64(v))
	}
	return NumberFloat(v)
}

// NewStream builds a stream whose dictionary carries the data length.
func NewStream(data []byte) *StreamObj {
	d := Dict()
	d.Set("Length", NumberInt(int64(len(data))))
	return &StreamObj{Dict: d, Data: data}
}

// Rect builds the four-number array used by /Rect entries.
func Rect(x1, y1, x2, y2 float64) *ArrayObj {
	return NewArray(NumberFloat(x1), NumberFloat(y1), NumberFloat(x2), NumberFloat(y2))
}
