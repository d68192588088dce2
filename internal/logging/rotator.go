// Package logging holds the daily rotated decode log and the process logger.
package logging

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPrefix names decode log files as mtrx_YYYY-MM-DD.log
const DefaultPrefix = "mtrx"

const dateLayout = "2006-01-02"

// ErrClosed is returned when writing to a closed rotator
var ErrClosed = errors.New("logging: rotator closed")

// Rotator writes to one log file per day and gzips the previous day's file
// when the date changes.
type Rotator struct {
	dir         string
	prefix      string
	useUTC      bool
	logger      *logrus.Logger
	now         func() time.Time
	currentFile *os.File
	currentDate string
	mutex       sync.RWMutex
	compressing sync.WaitGroup
}

// NewRotator creates dir if needed and opens today's log file
func NewRotator(dir, prefix string, useUTC bool, logger *logrus.Logger) (*Rotator, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &Rotator{
		dir:    dir,
		prefix: prefix,
		useUTC: useUTC,
		logger: logger,
		now:    time.Now,
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.rotate(); err != nil {
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}

	return r, nil
}

// Start checks for a date change every minute until ctx is cancelled
func (r *Rotator) Start(ctx context.Context) {
	r.logger.Info("Starting log rotator")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Log rotator stopping")
			return
		case <-ticker.C:
			r.checkRotation()
		}
	}
}

func (r *Rotator) today() string {
	now := r.now()
	if r.useUTC {
		now = now.UTC()
	}
	return now.Format(dateLayout)
}

// checkRotation rotates when the date changed since the file was opened
func (r *Rotator) checkRotation() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentFile == nil {
		return
	}

	if date := r.today(); date != r.currentDate {
		r.logger.WithFields(logrus.Fields{
			"old_date": r.currentDate,
			"new_date": date,
		}).Info("Rotating log file")

		if err := r.rotate(); err != nil {
			r.logger.WithError(err).Error("Failed to rotate log file")
		}
	}
}

// rotate closes the current file, schedules its compression and opens
// today's file. The caller holds the write lock.
func (r *Rotator) rotate() error {
	date := r.today()

	if r.currentFile != nil {
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old log file")
		}
		r.currentFile = nil

		if r.currentDate != date {
			oldDate := r.currentDate
			r.compressing.Add(1)
			go func() {
				defer r.compressing.Done()
				r.compressLogFile(oldDate)
			}()
		}
	}

	path := r.pathFor(date)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", path, err)
	}

	r.currentFile = file
	r.currentDate = date

	r.logger.WithField("file", path).Info("Opened decode log file")
	return nil
}

func (r *Rotator) pathFor(date string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_%s.log", r.prefix, date))
}

// compressLogFile gzips the log file for date and removes the original
func (r *Rotator) compressLogFile(date string) {
	logFile := r.pathFor(date)
	gzipFile := logFile + ".gz"

	r.logger.WithFields(logrus.Fields{
		"source": logFile,
		"target": gzipFile,
	}).Info("Compressing log file")

	if err := gzipCopy(logFile, gzipFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.WithField("file", logFile).Debug("Log file doesn't exist, skipping compression")
			return
		}
		r.logger.WithError(err).WithField("file", logFile).Error("Failed to compress log file")
		return
	}

	if err := os.Remove(logFile); err != nil {
		r.logger.WithError(err).WithField("file", logFile).Error("Failed to remove original log file")
		return
	}

	r.logger.WithField("file", gzipFile).Info("Log file compressed successfully")
}

func gzipCopy(source, target string) error {
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	gz.Name = filepath.Base(source)
	gz.ModTime = time.Now()

	if _, err := io.Copy(gz, src); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return dst.Close()
}

// Write appends p to the current day's file
func (r *Rotator) Write(p []byte) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentFile == nil {
		return 0, ErrClosed
	}
	return r.currentFile.Write(p)
}

// CurrentFile returns the path of the file being written
func (r *Rotator) CurrentFile() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentDate == "" {
		return ""
	}
	return r.pathFor(r.currentDate)
}

// Files lists all decode log files, compressed ones included
func (r *Rotator) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.dir, r.prefix+"_*.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}
	return files, nil
}

// CleanupOldLogs removes log files last modified more than maxDays ago.
// The current file is never removed.
func (r *Rotator) CleanupOldLogs(maxDays int) error {
	if maxDays <= 0 {
		return fmt.Errorf("maxDays must be positive")
	}

	files, err := r.Files()
	if err != nil {
		return fmt.Errorf("failed to get log files: %w", err)
	}

	cutoff := r.now().AddDate(0, 0, -maxDays)
	current := r.CurrentFile()

	removed := 0
	for _, file := range files {
		if file == current {
			continue
		}

		info, err := os.Stat(file)
		if err != nil {
			r.logger.WithError(err).WithField("file", file).Warn("Failed to stat log file")
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				r.logger.WithError(err).WithField("file", file).Error("Failed to remove old log file")
			} else {
				r.logger.WithField("file", file).Info("Removed old log file")
				removed++
			}
		}
	}

	r.logger.WithField("count", removed).Info("Cleaned up old log files")
	return nil
}

// Close closes the current file and waits for pending compressions
func (r *Rotator) Close() error {
	r.logger.Info("Closing log rotator")

	r.mutex.Lock()
	var err error
	if r.currentFile != nil {
		if err = r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close current log file")
		}
		r.currentFile = nil
	}
	r.mutex.Unlock()

	r.compressing.Wait()
	return err
}
