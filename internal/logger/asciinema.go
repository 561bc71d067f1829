// Package logger records console output in Asciinema v2 format.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// CastHeader is the header line of an Asciinema v2 recording.
type CastHeader struct {
	Version   int   `json:"version"`
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// castEvent is a single output event, serialized as
// [time_offset, "o", data].
type castEvent struct {
	TimeOffset float64
	Data       string
}

func (e castEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.TimeOffset, "o", e.Data})
}

// CastRecorder writes console output as an Asciinema v2 recording, one
// JSON event per chunk. It implements io.WriteCloser so it can drain a
// hub subscription like any other sink.
type CastRecorder struct {
	writer    io.Writer
	file      *os.File // only set if we own the file
	startTime time.Time
	mu        sync.Mutex
}

// NewCastRecorder creates the recording file at path and writes the
// header with the given terminal dimensions.
func NewCastRecorder(path string, cols, rows int) (*CastRecorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	r := &CastRecorder{
		writer:    file,
		file:      file,
		startTime: time.Now(),
	}
	if err := r.writeHeader(cols, rows); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

// NewCastRecorderWithWriter creates a CastRecorder writing to w, without
// a header. This is useful for testing.
func NewCastRecorderWithWriter(w io.Writer) *CastRecorder {
	return &CastRecorder{
		writer:    w,
		startTime: time.Now(),
	}
}

func (r *CastRecorder) writeHeader(cols, rows int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	header := CastHeader{
		Version:   2,
		Width:     cols,
		Height:    rows,
		Timestamp: r.startTime.Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Write records p as one output event. It implements io.Writer.
func (r *CastRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event := castEvent{
		TimeOffset: time.Since(r.startTime).Seconds(),
		Data:       string(p),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return 0, fmt.Errorf("failed to write event: %w", err)
	}
	return len(p), nil
}

// Close closes the recording file.
func (r *CastRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// StartTime returns the start time of the recording.
func (r *CastRecorder) StartTime() time.Time {
	return r.startTime
}
