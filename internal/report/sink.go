// Package report persists and presents the per-commit result stream.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pders01/git-closest/internal/models"
	log "github.com/sirupsen/logrus"
)

// Sink consumes result records in evaluation order
type Sink interface {
	Emit(rec models.CommitRecord) error
}

// JSONLWriter appends one JSON object per record to a file
type JSONLWriter struct {
	file *os.File
}

// OpenJSONL opens path for appending, creating it if needed
func OpenJSONL(path string) (*JSONLWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &JSONLWriter{file: file}, nil
}

// Emit writes rec as a single line
func (w *JSONLWriter) Emit(rec models.CommitRecord) error {
	line, err := encodeLine(rec)
	if err != nil {
		return err
	}
	if _, err := w.file.Write(line); err != nil {
		return fmt.Errorf("failed to write record %d: %w", rec.CommitNumber, err)
	}
	return nil
}

// Close closes the underlying file
func (w *JSONLWriter) Close() error {
	return w.file.Close()
}

// LogSink logs every record as its JSON line
type LogSink struct {
	Logger log.FieldLogger
}

// Emit logs rec at info level
func (s LogSink) Emit(rec models.CommitRecord) error {
	line, err := encodeLine(rec)
	if err != nil {
		return err
	}
	s.Logger.Info(string(line[:len(line)-1]))
	return nil
}

type multiSink []Sink

// Multi fans every record out to all sinks and joins their errors
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Emit(rec models.CommitRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func encodeLine(rec models.CommitRecord) ([]byte, error) {
	line, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record %d: %w", rec.CommitNumber, err)
	}
	return append(line, '\n'), nil
}
