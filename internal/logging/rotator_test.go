package logging

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// TestNewRotator tests the creation of new rotators
func TestNewRotator(t *testing.T) {
	tests := []struct {
		name   string
		subdir string
		prefix string
		useUTC bool
		want   string
	}{
		{
			name:   "Valid directory creation",
			subdir: "logs",
			want:   "mtrx_",
		},
		{
			name:   "UTC timezone",
			subdir: "logs_utc",
			useUTC: true,
			want:   "mtrx_",
		},
		{
			name:   "Nested directory creation",
			subdir: "nested/test/logs",
			want:   "mtrx_",
		},
		{
			name:   "Custom prefix",
			subdir: "custom",
			prefix: "rx2",
			want:   "rx2_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), tt.subdir)

			rotator, err := NewRotator(dir, tt.prefix, tt.useUTC, newTestLogger())
			require.NoError(t, err)
			require.NotNil(t, rotator)
			defer rotator.Close()

			assert.DirExists(t, dir)

			current := rotator.CurrentFile()
			assert.FileExists(t, current)
			assert.True(t, strings.HasPrefix(filepath.Base(current), tt.want))
		})
	}
}

func TestNewRotator_BadDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	rotator, err := NewRotator(filepath.Join(file, "logs"), "", false, newTestLogger())
	assert.Error(t, err)
	assert.Nil(t, rotator)
}

// TestRotator_Write tests writing to the current file
func TestRotator_Write(t *testing.T) {
	rotator, err := NewRotator(t.TempDir(), "", false, newTestLogger())
	require.NoError(t, err)
	defer rotator.Close()

	line := "RSS,2024/01/01,12:00:00.000,ALERT,123\n"
	n, err := rotator.Write([]byte(line))
	assert.NoError(t, err)
	assert.Equal(t, len(line), n)

	content, err := os.ReadFile(rotator.CurrentFile())
	require.NoError(t, err)
	assert.Equal(t, line, string(content))
}

// TestRotator_Files tests listing of plain and compressed files
func TestRotator_Files(t *testing.T) {
	dir := t.TempDir()
	rotator, err := NewRotator(dir, "", false, newTestLogger())
	require.NoError(t, err)
	defer rotator.Close()

	testFiles := []string{
		"mtrx_2023-01-01.log",
		"mtrx_2023-01-02.log.gz",
		"mtrx_2023-01-03.log",
	}
	for _, name := range testFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("test content"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.log"), []byte("x"), 0644))

	files, err := rotator.Files()
	require.NoError(t, err)
	assert.Len(t, files, len(testFiles)+1)

	names := make(map[string]bool)
	for _, file := range files {
		names[filepath.Base(file)] = true
	}
	for _, name := range testFiles {
		assert.True(t, names[name], "expected file %s not found", name)
	}
	assert.False(t, names["other.log"])
}

// TestRotator_CleanupOldLogs tests removal of old files
func TestRotator_CleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	rotator, err := NewRotator(dir, "", false, newTestLogger())
	require.NoError(t, err)
	defer rotator.Close()

	oldFile := filepath.Join(dir, "mtrx_2023-01-01.log.gz")
	require.NoError(t, os.WriteFile(oldFile, []byte("old content"), 0644))
	oldTime := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	recentFile := filepath.Join(dir, "mtrx_2023-12-31.log")
	require.NoError(t, os.WriteFile(recentFile, []byte("recent content"), 0644))

	require.NoError(t, rotator.CleanupOldLogs(5))

	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, recentFile)
	assert.FileExists(t, rotator.CurrentFile())
}

func TestRotator_CleanupOldLogs_InvalidMaxDays(t *testing.T) {
	rotator, err := NewRotator(t.TempDir(), "", false, newTestLogger())
	require.NoError(t, err)
	defer rotator.Close()

	for _, days := range []int{0, -1} {
		err := rotator.CleanupOldLogs(days)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "maxDays must be positive")
	}
}

// TestRotator_Close tests writes fail after Close
func TestRotator_Close(t *testing.T) {
	rotator, err := NewRotator(t.TempDir(), "", false, newTestLogger())
	require.NoError(t, err)

	_, err = rotator.Write([]byte("test data"))
	require.NoError(t, err)

	assert.NoError(t, rotator.Close())

	_, err = rotator.Write([]byte("more"))
	assert.ErrorIs(t, err, ErrClosed)
}

// TestRotator_CompressLogFile tests compression of a finished day
func TestRotator_CompressLogFile(t *testing.T) {
	dir := t.TempDir()
	rotator, err := NewRotator(dir, "", false, newTestLogger())
	require.NoError(t, err)
	defer rotator.Close()

	testFile := filepath.Join(dir, "mtrx_2023-01-01.log")
	testContent := "MT6,2023/01/01,00:00:00.000,001,1,FFFE,F84B,1\nSS line 2\n"
	require.NoError(t, os.WriteFile(testFile, []byte(testContent), 0644))

	rotator.compressLogFile("2023-01-01")

	assert.NoFileExists(t, testFile)
	assert.Equal(t, testContent, readGzip(t, testFile+".gz"))

	// Missing files are skipped
	rotator.compressLogFile("1999-01-01")
	assert.NoFileExists(t, filepath.Join(dir, "mtrx_1999-01-01.log.gz"))
}

func readGzip(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	content, err := io.ReadAll(gz)
	require.NoError(t, err)
	return string(content)
}

// TestRotator_DateRotation simulates crossing midnight
func TestRotator_DateRotation(t *testing.T) {
	dir := t.TempDir()
	rotator, err := NewRotator(dir, "", true, newTestLogger())
	require.NoError(t, err)

	initialFile := rotator.CurrentFile()
	_, err = rotator.Write([]byte("day one\n"))
	require.NoError(t, err)

	// Same date: nothing happens
	rotator.checkRotation()
	assert.Equal(t, initialFile, rotator.CurrentFile())

	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	rotator.now = func() time.Time { return tomorrow }
	rotator.checkRotation()

	nextFile := rotator.CurrentFile()
	assert.NotEqual(t, initialFile, nextFile)
	assert.Contains(t, nextFile, tomorrow.Format("2006-01-02"))

	_, err = rotator.Write([]byte("day two\n"))
	require.NoError(t, err)

	require.NoError(t, rotator.Close())

	assert.NoFileExists(t, initialFile)
	assert.Equal(t, "day one\n", readGzip(t, initialFile+".gz"))

	content, err := os.ReadFile(nextFile)
	require.NoError(t, err)
	assert.Equal(t, "day two\n", string(content))
}

// TestRotator_ConcurrentAccess tests concurrent writers
func TestRotator_ConcurrentAccess(t *testing.T) {
	rotator, err := NewRotator(t.TempDir(), "", false, newTestLogger())
	require.NoError(t, err)
	defer rotator.Close()

	const numGoroutines = 10
	const numOps = 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				if _, err := rotator.Write([]byte(fmt.Sprintf("goroutine-%d-op-%d\n", id, j))); err != nil {
					t.Errorf("Write failed: %v", err)
					return
				}
				if rotator.CurrentFile() == "" {
					t.Error("CurrentFile returned empty string")
					return
				}
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(rotator.CurrentFile())
	require.NoError(t, err)
	assert.Equal(t, numGoroutines*numOps, strings.Count(string(content), "\n"))
	assert.Contains(t, string(content), "goroutine-0-op-0")
	assert.Contains(t, string(content), fmt.Sprintf("goroutine-%d-op-%d", numGoroutines-1, numOps-1))
}

func TestRotator_UTCTimezone(t *testing.T) {
	rotator, err := NewRotator(t.TempDir(), "", true, newTestLogger())
	require.NoError(t, err)
	defer rotator.Close()

	assert.Contains(t, rotator.CurrentFile(), time.Now().UTC().Format("2006-01-02"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(false, &buf)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger = NewLogger(true, &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.WithField("line", "SS,A,123").Debug("shown")
	assert.Contains(t, buf.String(), "line=")
}

func BenchmarkRotator_Write(b *testing.B) {
	rotator, err := NewRotator(b.TempDir(), "", false, newTestLogger())
	require.NoError(b, err)
	defer rotator.Close()

	data := []byte("RSS,2024/01/01,12:00:00.000,ALERT,123\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := rotator.Write(data); err != nil {
			b.Fatal(err)
		}
	}
}
