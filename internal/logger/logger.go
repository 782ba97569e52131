package logger

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"cpolarstatus/internal/config"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 定义日志接口
type Logger interface {
	// Debug 记录调试信息
	Debug(msg string, fields ...any)

	// Info 记录一般信息
	Info(msg string, fields ...any)

	// Warn 记录警告信息
	Warn(msg string, fields ...any)

	// Error 记录错误信息
	Error(msg string, fields ...any)

	// Err 记录错误信息
	Err(err error, msg string, fields ...any)
}

// ZeroLogger 日志组件
type ZeroLogger struct {
	logger   zerolog.Logger
	logLevel zerolog.Level
}

// NewZeroLogger 创建日志组件
func NewZeroLogger(cfg *config.Config) *ZeroLogger {
	if cfg == nil {
		return Nop()
	}

	logLevel := zerolog.DebugLevel
	switch cfg.Log.Level {
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}

	writers := make([]io.Writer, 0)
	for _, writer := range cfg.Log.Writer {
		switch writer {
		case "console":
			// 标准输出留给表格和 JSON，日志走 stderr
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		case "json":
			writers = append(writers, os.Stderr)
		case "file":
			filename, err := getLogPath()
			if err != nil {
				continue
			}
			writers = append(writers, &lumberjack.Logger{
				Filename:   filename,
				MaxSize:    1,
				MaxAge:     30,
				MaxBackups: 3,
				LocalTime:  true,
				Compress:   false,
			})
		}
	}

	if len(writers) == 0 {
		return Nop()
	}

	return New(io.MultiWriter(writers...), logLevel)
}

// New 基于任意 writer 创建日志组件
func New(w io.Writer, level zerolog.Level) *ZeroLogger {
	zerolog.TimeFieldFormat = "2006-01-02 15:04:05"
	logger := zerolog.New(w).
		With().
		Caller().
		Timestamp().
		Logger().
		Level(level)

	return &ZeroLogger{logger: logger, logLevel: level}
}

// Nop 创建一个空的日志记录器
func Nop() *ZeroLogger { return &ZeroLogger{logger: zerolog.Nop(), logLevel: zerolog.Disabled} }

// Info 记录信息
func (z *ZeroLogger) Info(msg string, fields ...any) {
	z.logger.Info().CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// Error 记录错误
func (z *ZeroLogger) Error(msg string, fields ...any) {
	z.logger.Error().CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// Debug 记录调试信息
func (z *ZeroLogger) Debug(msg string, fields ...any) {
	z.logger.Debug().CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// Warn 记录警告
func (z *ZeroLogger) Warn(msg string, fields ...any) {
	z.logger.Warn().CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// Err 记录错误信息
func (z *ZeroLogger) Err(err error, msg string, fields ...any) {
	z.logger.Err(err).CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// getLogPath 获取日志文件路径
func getLogPath() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(home, "Library", "Application Support")
	default:
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(home, ".local", "share")
		}
	}

	return filepath.Join(baseDir, "cpolar-status", "logs", "app.log"), nil
}
