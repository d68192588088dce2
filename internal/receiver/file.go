package receiver

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// FileSource replays a capture file, or stdin when the path is "-"
type FileSource struct {
	path   string
	r      io.ReadCloser
	logger *logrus.Logger
}

// NewFileSource opens path for replay
func NewFileSource(path string, logger *logrus.Logger) (*FileSource, error) {
	if path == "-" {
		return &FileSource{path: path, r: io.NopCloser(os.Stdin), logger: logger}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	return &FileSource{path: path, r: f, logger: logger}, nil
}

// StartCapture sends every record of the file to lineChan and returns at EOF
func (s *FileSource) StartCapture(ctx context.Context, lineChan chan<- string) error {
	s.logger.WithField("input", s.path).Info("Replaying capture")

	if err := ReadLines(ctx, s.r, lineChan); err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	s.logger.WithField("input", s.path).Debug("Capture replay finished")
	return nil
}

// Close closes the underlying file
func (s *FileSource) Close() error {
	return s.r.Close()
}
