package shared

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ssherwood/historymap/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel reads LOG_LEVEL style values; unknown values mean INFO.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// InitializeLogging builds the console handler: text to stdout, teed into a
// rotating file when LOG_FILE is set. The returned closer releases the file.
func InitializeLogging() (slog.Handler, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)

	if config.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    config.LogMaxSizeMB,
			MaxBackups: config.LogMaxBackups,
			MaxAge:     config.LogMaxAgeDays,
			Compress:   config.LogFileCompress,
		}
		out = io.MultiWriter(os.Stdout, rotating)
		closer = rotating
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(config.LogLevel)})
	slog.SetDefault(slog.New(handler))
	return handler, closer
}
