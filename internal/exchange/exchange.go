// Package exchange hosts the example upstream feeds that decode raw
// exchange payloads into normalized events and hand them to the backend.
// The feeds are collaborators of the pipeline, not part of it: a feed may
// die and be retried without the writer task noticing.
package exchange

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// logErrStack logs error with stack trace.
func logErrStack(err error) {
	log.Error().Stack().Err(errors.WithStack(err)).Msg("")
}

// nowUnix is the local observation time as float seconds since epoch,
// the receipt timestamp unit events carry.
func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// msToUnix converts an exchange millisecond epoch value to optional float
// seconds. Zero means the venue sent no timestamp.
func msToUnix(ms int64) *float64 {
	if ms == 0 {
		return nil
	}
	sec := float64(ms) / 1e3
	return &sec
}
