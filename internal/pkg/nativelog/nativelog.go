// Package nativelog builds the process logger: console output teed with
// a daily log file under the resolved log directory.
package nativelog

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// EnvLogDir overrides the log directory; the app layer sets it to the
	// resolved configured path before the logger is built.
	EnvLogDir = "NOTEBRIEF_LOG_DIR"
	// EnvLogRotateKeep caps how many daily files are kept.
	EnvLogRotateKeep = "NOTEBRIEF_LOG_ROTATE_KEEP"
	// EnvRuntimeEnv mirrors the configured env so the level can follow it.
	EnvRuntimeEnv = "NOTEBRIEF_ENV"

	dirPerm  = 0o755
	filePerm = 0o644
)

// ResolveDir picks the first writable log directory from the candidate
// chain: env override, ./logs next to the executable, ~/.notebrief/log,
// then the system temp dir.
func ResolveDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvLogDir)); dir != "" {
		return dir
	}

	candidates := []string{}
	if exe, err := os.Executable(); err == nil && strings.TrimSpace(exe) != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "logs"))
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		candidates = append(candidates, filepath.Join(home, ".notebrief", "log"))
	}

	for _, candidate := range candidates {
		if err := os.MkdirAll(candidate, dirPerm); err == nil {
			return candidate
		}
	}
	return filepath.Join(os.TempDir(), "notebrief-log")
}

// TodayFilename matches the daily naming scheme, e.g. stdout_1-2-06.log.
func TodayFilename(now time.Time) string {
	return "stdout_" + now.Format("1-2-06") + ".log"
}

func TodayFilePath(now time.Time) string {
	return filepath.Join(ResolveDir(), TodayFilename(now))
}

// Writer appends to the current day's file, reopening per write so the
// date rollover needs no timer.
type Writer struct {
	mu  sync.Mutex
	dir string
}

func NewWriter() (*Writer, error) {
	dir := ResolveDir()
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	_ = os.Setenv(EnvLogDir, dir)
	return &Writer{dir: dir}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(w.dir, TodayFilename(time.Now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return f.Write(p)
}

func (w *Writer) Sync() error {
	return nil
}

// PruneOldFiles removes the oldest daily files beyond keep. Best effort:
// removal failures are ignored.
func PruneOldFiles(dir string, keep int) {
	if keep < 1 {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type logFile struct {
		name    string
		modTime time.Time
	}
	files := make([]logFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "stdout_") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		files = append(files, logFile{name: name, modTime: info.ModTime()})
	}
	if len(files) <= keep {
		return
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})
	for _, stale := range files[keep:] {
		_ = os.Remove(filepath.Join(dir, stale.name))
	}
}

// NewZapLogger builds the process logger: a console core and a daily
// file core sharing one encoder, caller annotation, stack traces from
// Error up, and the standard library's log output redirected in.
func NewZapLogger() (*zap.Logger, error) {
	writer, err := NewWriter()
	if err != nil {
		return nil, err
	}

	if keepRaw := strings.TrimSpace(os.Getenv(EnvLogRotateKeep)); keepRaw != "" {
		if keep, parseErr := strconv.Atoi(keepRaw); parseErr == nil {
			PruneOldFiles(writer.dir, keep)
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	level := zapcore.InfoLevel
	if strings.EqualFold(strings.TrimSpace(os.Getenv(EnvRuntimeEnv)), "development") {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
		zapcore.NewCore(encoder, zapcore.AddSync(writer), level),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.RedirectStdLog(logger)
	return logger, nil
}
