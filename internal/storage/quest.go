package storage

import (
	"context"
	"fmt"
	"time"

	qdb "github.com/questdb/go-questdb-client/v3"

	"github.com/darknebula/questfeed/internal/config"
	"github.com/darknebula/questfeed/internal/row"
)

// Quest is for connecting and inserting row data to QuestDB over ILP.
type Quest struct {
	Cfg *config.Quest
}

var quest Quest

// InitQuest initializes the QuestDB sink with configured values.
func InitQuest(cfg *config.Quest) *Quest {
	if quest.Cfg == nil {
		quest = Quest{Cfg: cfg}
	}
	return &quest
}

// GetQuest returns already prepared QuestDB sink instance.
func GetQuest() *Quest {
	return &quest
}

// ConfString is the ILP sender configuration. Ingestion always goes to the
// HTTP endpoint on port 9001 of the configured host; the configured port
// belongs to the control channel (see ControlAddr), not to ingestion.
func (q *Quest) ConfString() string {
	return fmt.Sprintf("http::addr=%s:9001;", q.Cfg.Host)
}

// ControlAddr is the control channel address built from the configured
// host and port.
func (q *Quest) ControlAddr() string {
	return fmt.Sprintf("http://%s:%v", q.Cfg.Host, q.Cfg.Port)
}

// CommitRows batch inserts input row data to QuestDB. A sender is opened
// per batch and released on every exit path, so the batch is flushed to
// the wire exactly once per call.
func (q *Quest) CommitRows(appCtx context.Context, data []row.Row) (err error) {
	var ctx context.Context
	if q.Cfg.ReqTimeoutSec > 0 {
		timeoutCtx, cancel := context.WithTimeout(appCtx, time.Duration(q.Cfg.ReqTimeoutSec)*time.Second)
		ctx = timeoutCtx
		defer cancel()
	} else {
		ctx = appCtx
	}

	sender, err := qdb.LineSenderFromConf(ctx, q.ConfString())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sender.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for i := range data {
		if err = appendRow(ctx, sender, &data[i]); err != nil {
			return err
		}
	}
	return sender.Flush(ctx)
}

// appendRow serializes one row through the sender primitives. The
// designated time goes out at nanosecond resolution; microsecond valued
// fields use the sender's timestamp column type, nanosecond valued fields
// an integer column, since ILP timestamp columns are microseconds.
func appendRow(ctx context.Context, sender qdb.LineSender, r *row.Row) error {
	s := sender.Table(r.Table)
	for _, t := range r.Tags {
		s = s.Symbol(t.Key, t.Value)
	}
	for _, f := range r.Fields {
		switch f.Value.Kind {
		case row.KindFloat64:
			s = s.Float64Column(f.Key, f.Value.F)
		case row.KindInt64, row.KindNanos:
			s = s.Int64Column(f.Key, f.Value.I)
		case row.KindString:
			s = s.StringColumn(f.Key, f.Value.S)
		case row.KindMicros:
			s = s.TimestampColumn(f.Key, time.UnixMicro(f.Value.I).UTC())
		}
	}
	return s.At(ctx, time.Unix(0, r.At).UTC())
}
