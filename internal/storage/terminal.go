package storage

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/darknebula/questfeed/internal/row"
)

// Terminal is for displaying row data on terminal.
type Terminal struct {
	out io.Writer
}

var terminal Terminal

// TerminalTimestamp is used as a format to display only the time.
const TerminalTimestamp = "15:04:05.999"

// InitTerminal initializes terminal display.
// Output writer is always os.Stdout except in case of testing where file
// will be set as output terminal.
func InitTerminal(out io.Writer) *Terminal {
	if terminal.out == nil {
		terminal = Terminal{
			out: out,
		}
	}
	return &terminal
}

// GetTerminal returns already prepared terminal instance.
func GetTerminal() *Terminal {
	return &terminal
}

// CommitRows batch outputs input row data to terminal.
func (t *Terminal) CommitRows(_ context.Context, data []row.Row) error {
	for i := range data {
		r := &data[i]
		at := time.Unix(0, r.At).Local().Format(TerminalTimestamp)
		fmt.Fprintf(t.out, "%-15s%-25s%-25s%20s\n\n", r.Table, renderTags(r.Tags), renderFields(r.Fields), at)
	}
	return nil
}

func renderTags(tags []row.Tag) string {
	var sb strings.Builder
	for i, tag := range tags {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(tag.Key)
		sb.WriteByte('=')
		sb.WriteString(tag.Value)
	}
	return sb.String()
}

func renderFields(fields []row.Field) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Key)
		sb.WriteByte('=')
		switch f.Value.Kind {
		case row.KindFloat64:
			sb.WriteString(strconv.FormatFloat(f.Value.F, 'f', -1, 64))
		case row.KindInt64, row.KindNanos:
			sb.WriteString(strconv.FormatInt(f.Value.I, 10))
		case row.KindString:
			sb.WriteString(strconv.Quote(f.Value.S))
		case row.KindMicros:
			sb.WriteString(strconv.FormatInt(f.Value.I, 10))
			sb.WriteByte('t')
		}
	}
	return sb.String()
}
