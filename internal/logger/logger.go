// Package logger prints timestamped, colored log lines for the server and CLI.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

var (
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	debugColor   = color.New(color.FgHiBlack)

	mu      sync.Mutex
	out     io.Writer = os.Stdout
	debugOn atomic.Bool
)

// SetOutput redirects all log lines. Tests use it to silence or capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetDebug toggles Debug lines
func SetDebug(enabled bool) {
	debugOn.Store(enabled)
}

func write(c *color.Color, prefix, message string, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05")
	mu.Lock()
	defer mu.Unlock()
	c.Fprintf(out, "[%s] %s%s\n", timestamp, prefix, fmt.Sprintf(message, args...))
}

// Info logs general information (blue)
func Info(message string, args ...interface{}) {
	write(infoColor, "", message, args...)
}

// Success logs a completed step (green)
func Success(message string, args ...interface{}) {
	write(successColor, "✓ ", message, args...)
}

// Warning logs a recoverable problem (yellow)
func Warning(message string, args ...interface{}) {
	write(warnColor, "⚠ ", message, args...)
}

// Error logs a failure (red)
func Error(message string, args ...interface{}) {
	write(errorColor, "✗ ", message, args...)
}

// Debug logs only when enabled with SetDebug
func Debug(message string, args ...interface{}) {
	if !debugOn.Load() {
		return
	}
	write(debugColor, "DEBUG: ", message, args...)
}
