// Package datalog writes the per-interval CSV record consumed by the
// external data logger. Only the record schema is contractual; rotation
// and file-system mechanics belong to the collaborator.
package datalog

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"codeberg.org/mkern/printmond/internal/errors"
	"codeberg.org/mkern/printmond/internal/predict"
	"codeberg.org/mkern/printmond/internal/sensor"
)

// Header is the canonical column order.
var Header = []string{
	"timestamp",
	"hotend_temp",
	"bed_temp",
	"flow_rate",
	"layer",
	"quality_score",
	"failure_type",
}

// Writer appends one CSV line per logging interval.
type Writer struct {
	w      *csv.Writer
	closer io.Closer
}

// NewWriter wraps an io.Writer, emitting the header immediately.
func NewWriter(out io.Writer) (*Writer, error) {
	w := csv.NewWriter(out)
	if err := w.Write(Header); err != nil {
		return nil, errors.New().Wrap(errors.ErrOperationFailed, err)
	}
	w.Flush()

	lw := &Writer{w: w}
	if c, ok := out.(io.Closer); ok {
		lw.closer = c
	}
	return lw, nil
}

// OpenFile creates or appends to a CSV log file. The header is written
// only for a fresh file.
func OpenFile(path string) (*Writer, error) {
	errFactory := errors.New()

	info, statErr := os.Stat(path)
	fresh := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(Header); err != nil {
			f.Close()
			return nil, errFactory.Wrap(errors.ErrOperationFailed, err)
		}
		w.Flush()
	}

	return &Writer{w: w, closer: f}, nil
}

// Append writes one record line.
func (w *Writer) Append(frame sensor.Frame, pred predict.Prediction) error {
	rec := []string{
		strconv.FormatInt(frame.Timestamp, 10),
		strconv.FormatFloat(frame.HotendTemp, 'f', 1, 64),
		strconv.FormatFloat(frame.BedTemp, 'f', 1, 64),
		strconv.FormatFloat(frame.FlowRate, 'f', 2, 64),
		strconv.Itoa(frame.CurrentLayer),
		strconv.FormatFloat(pred.SuccessProbability, 'f', 3, 64),
		pred.FailureType.String(),
	}

	if err := w.w.Write(rec); err != nil {
		return errors.New().Wrap(errors.ErrOperationFailed, err)
	}
	w.w.Flush()

	return w.w.Error()
}

// Close flushes and closes the underlying file, if any.
func (w *Writer) Close() error {
	w.w.Flush()
	if w.closer != nil {
		return w.closer.Close()
	}
	return w.w.Error()
}
