package row

// Timestamp conversions from the float seconds-since-epoch values carried
// by events to the integer units the sink requires. Conversion truncates
// toward zero, matching the sink's own non-rounding ingestion semantics.

// UnixNanos converts float seconds since epoch to integer nanoseconds.
func UnixNanos(sec float64) int64 {
	return int64(sec * 1e9)
}

// UnixMicros converts float seconds since epoch to integer microseconds.
func UnixMicros(sec float64) int64 {
	return int64(sec * 1e6)
}

// UnixNanosOpt converts an optional timestamp. A nil input is a valid
// absent timestamp, not an error, and propagates as ok == false.
func UnixNanosOpt(sec *float64) (int64, bool) {
	if sec == nil {
		return 0, false
	}
	return UnixNanos(*sec), true
}

// UnixMicrosOpt is UnixNanosOpt at microsecond resolution.
func UnixMicrosOpt(sec *float64) (int64, bool) {
	if sec == nil {
		return 0, false
	}
	return UnixMicros(*sec), true
}
