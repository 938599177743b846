// Package logging builds the process logger: JSON lines to a rotated file and a
// console core on stderr for warnings.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "noteassist.log"

type Options struct {
	// Dir 日志目录，通常是 <base_dir>/logs
	Dir     string
	MaxMB   int
	Verbose bool
	Console io.Writer
}

// Path returns the log file location under dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// New 构建 file + console 双输出 logger；返回的 close 负责 Sync 与关闭轮转文件
// New returns the logger and a close func that syncs it and releases the rotator.
func New(opts Options) (*zap.Logger, func() error, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	maxMB := opts.MaxMB
	if maxMB <= 0 {
		maxMB = 20
	}
	rotator := &lumberjack.Logger{
		Filename:   Path(opts.Dir),
		MaxSize:    maxMB,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	fileLevel := zap.InfoLevel
	consoleLevel := zap.WarnLevel
	if opts.Verbose {
		fileLevel = zap.DebugLevel
		consoleLevel = zap.DebugLevel
	}
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), fileLevel)

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(console)),
		consoleLevel,
	)

	l := zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller())
	closeFn := func() error {
		_ = l.Sync()
		return rotator.Close()
	}
	return l, closeFn, nil
}
