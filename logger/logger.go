package logger

import (
	"io"
	"os"
	"path/filepath"

	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Dir   string
	Level string
	Debug bool
}

// Setup configures the standard logrus logger and returns the access log
// config for fiber, both writing to the same sink. The returned closer
// flushes the rotating file, if any.
func Setup(opts Options) (*fiberLogger.Config, io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
			return nil, nil, err
		}

		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, "app.log"),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, logFile)
		closer = logFile
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if opts.Debug {
		level = logrus.DebugLevel
	}

	logrus.SetOutput(out)
	logrus.SetLevel(level)
	if opts.Debug {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	access := &fiberLogger.Config{
		Output:     out,
		Format:     "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} | ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}

	return access, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
