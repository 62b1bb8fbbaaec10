/*
 * Copyright (c) 2017-2020 The qitmeer developers
 */

package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	l "github.com/ethereum/go-ethereum/log"
	"github.com/jrick/logrotate/rotator"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type (
	Logger = l.Logger
	Ctx    = l.Ctx
	Lvl    = l.Lvl
)

const (
	LvlCrit  = l.LvlCrit
	LvlError = l.LvlError
	LvlWarn  = l.LvlWarn
	LvlInfo  = l.LvlInfo
	LvlDebug = l.LvlDebug
	LvlTrace = l.LvlTrace
)

var (
	glogger *l.GlogHandler

	logWrite *logWriter
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct {
	// logRotator is one of the logging outputs.  It should be closed on
	// application shutdown.
	logRotator *rotator.Rotator

	// Use for color terminal
	colorableWrite io.Writer
}

func (lw *logWriter) Init() {
	// init a colorful logger if possible
	usecolor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"

	if usecolor {
		lw.colorableWrite = colorable.NewColorableStderr()
	}
}

func (lw *logWriter) Close() {
	if lw.logRotator != nil {
		lw.logRotator.Close()
	}
}

func (lw *logWriter) IsUseColor() bool {
	return lw.colorableWrite != nil
}

func (lw *logWriter) Write(p []byte) (n int, err error) {
	if lw.logRotator != nil {
		lw.logRotator.Write(p)
	}

	if lw.colorableWrite != nil {
		lw.colorableWrite.Write(p)
	} else {
		os.Stderr.Write(p)
	}
	return len(p), nil
}

func init() {
	// output set to Stderr
	// it's easier to handle when run as a daemon through systemd or supervisord,
	// and Go runtime exceptions are printed to stderr as well.
	logWrite = &logWriter{}
	logWrite.Init()
	glogger = l.NewGlogHandler(l.StreamHandler(io.Writer(logWrite), l.TerminalFormat(logWrite.IsUseColor())))

	l.Root().SetHandler(glogger)

	glogger.Verbosity(LvlInfo)
}

// New returns a logger carrying the given context, e.g. New(Ctx{"module": "certstore"}).
func New(ctx ...interface{}) Logger {
	return l.New(ctx...)
}

// Root returns the root logger.
func Root() Logger {
	return l.Root()
}

// SetLevel parses one of {trace, debug, info, warn, error, crit} and applies
// it to the root handler.
func SetLevel(level string) error {
	lvl, err := l.LvlFromString(level)
	if err != nil {
		return err
	}
	glogger.Verbosity(lvl)
	return nil
}

// InitLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory.  It must be called before the
// package-global log rotater variables are used.
func InitLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %v", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %v", err)
	}

	logWrite.logRotator = r
	return nil
}

// Close flushes and closes the log rotator, if any.
func Close() {
	logWrite.Close()
}

func Trace(msg string, ctx ...interface{}) { l.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { l.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{}) { l.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{}) { l.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { l.Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{}) { l.Root().Crit(msg, ctx...) }
