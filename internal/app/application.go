package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"go406/internal/logging"
	"go406/internal/mtrx"
	"go406/internal/output"
	"go406/internal/receiver"
)

// Source delivers framed receiver records
type Source interface {
	StartCapture(ctx context.Context, lineChan chan<- string) error
	Close() error
}

// Stats counts processed records
type Stats struct {
	Lines            uint64
	RSS              uint64
	Structured       uint64
	Raw              uint64
	Unrecognized     uint64
	DecodeErrors     uint64
	Alerts           uint64
	ChecksumFailures uint64
}

// Application represents the main application
type Application struct {
	config     Config
	logger     *logrus.Logger
	source     Source
	writer     *output.Writer
	logRotator *logging.Rotator
	stdout     io.Writer
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	done       chan struct{}

	stats      Stats
	statsMutex sync.Mutex
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	return &Application{
		config: config,
		logger: logging.NewLogger(config.Verbose, os.Stderr),
		stdout: os.Stdout,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start runs until a shutdown signal arrives or the input is exhausted
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting MT-RX decoder")

	if err := app.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		app.closeComponents()
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	app.run()

	select {
	case <-sigChan:
		app.logger.Info("Received shutdown signal")
	case <-app.done:
		app.logger.Info("Input exhausted")
	}
	app.shutdown()

	return nil
}

// initializeComponents opens the source, the decode log and the writer
func (app *Application) initializeComponents() error {
	var err error

	if app.config.Input != "" {
		source, err := receiver.NewFileSource(app.config.Input, app.logger)
		if err != nil {
			return err
		}
		app.source = source
	} else {
		device, err := receiver.NewDevice(app.config.Port, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize serial device: %w", err)
		}
		if err := device.Configure(app.config.BaudRate, app.config.ReadTimeout); err != nil {
			return fmt.Errorf("failed to configure serial device: %w", err)
		}
		app.source = device
	}

	app.logRotator, err = logging.NewRotator(app.config.LogDir, logging.DefaultPrefix, app.config.LogRotateUTC, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log rotator: %w", err)
	}

	if app.config.RetainDays > 0 {
		if err := app.logRotator.CleanupOldLogs(app.config.RetainDays); err != nil {
			app.logger.WithError(err).Warn("Failed to clean up old decode logs")
		}
	}

	app.writer = output.NewWriter(app.logRotator, app.logger)
	app.writer.SetEcho(app.stdout)

	return nil
}

// run starts the capture, processing, rotation and statistics goroutines
func (app *Application) run() {
	app.logger.Info("Starting capture and decoding")

	lineChan := make(chan string, 100)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		defer close(lineChan)
		if err := app.source.StartCapture(app.ctx, lineChan); err != nil {
			app.logger.WithError(err).Error("Capture failed")
		}
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.logRotator.Start(app.ctx)
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		defer close(app.done)
		app.processLines(lineChan)
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics()
	}()

	app.logger.Info("All components started successfully")
}

// processLines decodes records until lineChan is closed
func (app *Application) processLines(lineChan <-chan string) {
	for line := range lineChan {
		app.processLine(line)
	}
	app.logger.Debug("Line processing stopped")
}

// processLine decodes, verifies, logs and writes a single record
func (app *Application) processLine(line string) {
	msg, verified, err := Decode(line, app.config.VerifyChecksums)

	app.statsMutex.Lock()
	app.stats.Lines++
	if err != nil {
		app.stats.DecodeErrors++
	} else {
		switch m := msg.(type) {
		case mtrx.RSS:
			app.stats.RSS++
		case mtrx.Structured:
			app.stats.Structured++
			if m.Type == mtrx.MessageAlert {
				app.stats.Alerts++
			}
		case mtrx.Raw:
			app.stats.Raw++
		case mtrx.Unrecognized:
			app.stats.Unrecognized++
		}
		if verified == output.ChecksumMismatch {
			app.stats.ChecksumFailures++
		}
	}
	app.statsMutex.Unlock()

	if err != nil {
		app.logger.WithError(err).WithField("line", line).Warn("Failed to decode line")
		return
	}

	switch m := msg.(type) {
	case mtrx.Unrecognized:
		app.logger.WithField("line", line).Debug("Unrecognized line")
		return
	case mtrx.Structured:
		if m.Type == mtrx.MessageAlert {
			app.logger.WithFields(logrus.Fields{
				"unit":     m.UnitID,
				"sequence": m.Sequence,
				"beacon":   m.Beacon,
				"location": m.Latitude.Present() && m.Longitude.Present(),
			}).Warn("406 MHz distress alert received")
		}
	}

	if verified == output.ChecksumMismatch {
		app.logger.WithFields(logrus.Fields{
			"family": mtrx.Family(msg),
			"line":   line,
		}).Warn("Checksum mismatch")
	}

	if err := app.writer.WriteMessage(msg, verified); err != nil {
		app.logger.WithError(err).Error("Failed to write decoded line")
	}
}

// Decode classifies line and, when verify is set, compares the transmitted
// checksum with the computed one. A structured checksum of 0 is not verified
// since the receiver sends no valid checksum when no location is available.
func Decode(line string, verify bool) (mtrx.Message, output.Verification, error) {
	msg, err := mtrx.Classify(line)
	if err != nil {
		return nil, output.NotVerified, err
	}
	if !verify {
		return msg, output.NotVerified, nil
	}

	switch m := msg.(type) {
	case mtrx.Raw:
		if m.ChecksumValid() {
			return msg, output.ChecksumOK, nil
		}
		return msg, output.ChecksumMismatch, nil

	case mtrx.Structured:
		if m.Checksum == 0 {
			return msg, output.NotVerified, nil
		}
		sum, err := mtrx.StructuredChecksum(line)
		if err != nil {
			return msg, output.NotVerified, nil
		}
		if sum == m.Checksum {
			return msg, output.ChecksumOK, nil
		}
		return msg, output.ChecksumMismatch, nil
	}

	return msg, output.NotVerified, nil
}

// Stats returns a snapshot of the processing counters
func (app *Application) Stats() Stats {
	app.statsMutex.Lock()
	defer app.statsMutex.Unlock()
	return app.stats
}

func (app *Application) logStatistics(message string) {
	stats := app.Stats()
	app.logger.WithFields(logrus.Fields{
		"lines":             stats.Lines,
		"rss":               stats.RSS,
		"structured":        stats.Structured,
		"raw":               stats.Raw,
		"unrecognized":      stats.Unrecognized,
		"decode_errors":     stats.DecodeErrors,
		"alerts":            stats.Alerts,
		"checksum_failures": stats.ChecksumFailures,
	}).Info(message)
}

// reportStatistics reports processing statistics periodically
func (app *Application) reportStatistics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.logStatistics("MT-RX decoding statistics")
		}
	}
}

// shutdown gracefully shuts down the application
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	app.cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Info("All goroutines finished")
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	app.closeComponents()
	app.logStatistics("Final decoding statistics")
	app.logger.Info("Shutdown completed")
}

func (app *Application) closeComponents() {
	if app.source != nil {
		if err := app.source.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close source")
		}
	}
	if app.logRotator != nil {
		if err := app.logRotator.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close log rotator")
		}
	}
}
