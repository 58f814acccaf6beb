// Package row translates normalized market events into strongly typed
// rows for the QuestDB sink. Translation is pure: it reads the event or
// book passed in and returns detached row values, so it is safe to call
// concurrently from any number of feed goroutines.
package row

// ValueKind is the exact wire type of a field value. The sink wire format
// is type sensitive, so every field carries its kind instead of a generic
// number.
type ValueKind uint8

const (
	KindFloat64 ValueKind = iota
	KindInt64
	KindString
	// KindNanos is an integer column holding a nanosecond epoch value.
	KindNanos
	// KindMicros is a timestamp column at microsecond resolution.
	KindMicros
)

// Value is one typed field value.
type Value struct {
	Kind ValueKind
	F    float64
	I    int64
	S    string
}

// Float wraps a float64 column value.
func Float(v float64) Value { return Value{Kind: KindFloat64, F: v} }

// Int wraps an int64 column value.
func Int(v int64) Value { return Value{Kind: KindInt64, I: v} }

// Str wraps a string column value.
func Str(v string) Value { return Value{Kind: KindString, S: v} }

// Nanos wraps a nanosecond epoch integer column value.
func Nanos(v int64) Value { return Value{Kind: KindNanos, I: v} }

// Micros wraps a microsecond resolution timestamp column value.
func Micros(v int64) Value { return Value{Kind: KindMicros, I: v} }

// Tag is one low cardinality identity column of a row.
type Tag struct {
	Key   string
	Value string
}

// Field is one measurement column of a row.
type Field struct {
	Key   string
	Value Value
}

// Row is one record destined for the sink. At is the designated storage
// timestamp in epoch nanoseconds and is always the receipt time of the
// originating event, never the venue time. Tags and Fields keep their
// build order, which is the order they reach the wire in.
type Row struct {
	Table  string
	Tags   []Tag
	Fields []Field
	At     int64
}

// Field returns the value of the named field and whether it is present.
func (r *Row) Field(key string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Tag returns the value of the named tag and whether it is present.
func (r *Row) Tag(key string) (string, bool) {
	for _, t := range r.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}
