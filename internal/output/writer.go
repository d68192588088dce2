// Package output renders decoded MT-RX messages as CSV lines.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go406/internal/mtrx"
)

// Verification is the outcome of a caller-side checksum comparison
type Verification int

const (
	NotVerified Verification = iota // disabled or not possible
	ChecksumOK
	ChecksumMismatch
)

func (v Verification) field() string {
	switch v {
	case ChecksumOK:
		return "1"
	case ChecksumMismatch:
		return "0"
	default:
		return ""
	}
}

// Writer writes one CSV line per decoded message
type Writer struct {
	out    io.Writer
	echo   io.Writer
	logger *logrus.Logger
	now    func() time.Time
}

// NewWriter creates a writer appending to out
func NewWriter(out io.Writer, logger *logrus.Logger) *Writer {
	return &Writer{
		out:    out,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetEcho copies every written line to echo as well (e.g. stdout)
func (w *Writer) SetEcho(echo io.Writer) {
	w.echo = echo
}

// WriteMessage renders msg and appends it. Unrecognized messages are skipped.
func (w *Writer) WriteMessage(msg mtrx.Message, verified Verification) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}

	line := Format(msg, w.now(), verified)
	if line == "" {
		return nil
	}
	line += "\n"

	if _, err := w.out.Write([]byte(line)); err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}

	if w.echo != nil {
		if _, err := io.WriteString(w.echo, line); err != nil {
			w.logger.WithError(err).Debug("Failed to echo decoded line")
		}
	}

	return nil
}

// Format renders msg as a CSV line without terminator:
//
//	RSS,<date>,<time>,<kind>,<level>
//	MT1,<date>,<time>,<unit>,<seq>,<type>,<flag>,<beacon>,<signal>,<lat>,<lon>,<checksum>,<verified>
//	MT6,<date>,<time>,<unit>,<seq>,<payload>,<checksum>,<verified>
//
// Fields holding a comma or a quote are quoted. It returns "" for
// unrecognized messages.
func Format(msg mtrx.Message, at time.Time, verified Verification) string {
	dateStr := at.Format("2006/01/02")
	timeStr := at.Format("15:04:05.000")

	var fields []string
	switch m := msg.(type) {
	case mtrx.RSS:
		fields = []string{
			"RSS", dateStr, timeStr,
			m.Kind.String(),
			strconv.Itoa(int(m.Level)),
		}

	case mtrx.Structured:
		fields = []string{
			m.Header, dateStr, timeStr,
			m.UnitID,
			strconv.Itoa(int(m.Sequence)),
			m.Type.String(),
			string(m.FormatFlag),
			m.Beacon,
			m.SignalStrength,
			coordinate(m.Latitude),
			coordinate(m.Longitude),
			fmt.Sprintf("%04X", m.Checksum),
			verified.field(),
		}

	case mtrx.Raw:
		fields = []string{
			m.Header, dateStr, timeStr,
			m.UnitID,
			strconv.Itoa(int(m.Sequence)),
			string(m.Payload[:]),
			fmt.Sprintf("%04X", m.Checksum),
			verified.field(),
		}

	default:
		return ""
	}

	var b strings.Builder
	cw := csv.NewWriter(&b)
	if err := cw.Write(fields); err != nil {
		return ""
	}
	cw.Flush()

	return strings.TrimSuffix(b.String(), "\n")
}

func coordinate(c mtrx.Coordinate) string {
	value, ok := c.Decimal()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.6f", value)
}
