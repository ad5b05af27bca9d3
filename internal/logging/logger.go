// Package logging provides the leveled console logger used by the render CLIs.
package logging

import (
	"fmt"
	"io"
	"log"

	"github.com/charmbracelet/lipgloss"
)

// Level palette
var (
	infoColor  = lipgloss.Color("#5FAFD7")
	warnColor  = lipgloss.Color("#D7AF00")
	errorColor = lipgloss.Color("#A40000")
)

var (
	InfoStyle  = lipgloss.NewStyle().Bold(true).Foreground(infoColor)
	WarnStyle  = lipgloss.NewStyle().Bold(true).Foreground(warnColor)
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	KeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	ValueStyle = lipgloss.NewStyle().Bold(true)
)

// Logger writes timestamped lines tagged with a styled level.
type Logger struct {
	out   *log.Logger
	quiet bool
}

// New returns a logger writing to w. A quiet logger drops Info lines.
func New(w io.Writer, quiet bool) *Logger {
	return &Logger{out: log.New(w, "", log.LstdFlags), quiet: quiet}
}

func (l *Logger) Infof(format string, args ...any) {
	if l.quiet {
		return
	}
	l.emit(InfoStyle.Render("INFO "), format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.emit(WarnStyle.Render("WARN "), format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.emit(ErrorStyle.Render("ERROR"), format, args...)
}

// KV formats a styled "key: value" pair for summaries.
func KV(key string, value any) string {
	return fmt.Sprintf("%s %s", KeyStyle.Render(key+":"), ValueStyle.Render(fmt.Sprint(value)))
}

func (l *Logger) emit(tag, format string, args ...any) {
	l.out.Printf("%s %s", tag, fmt.Sprintf(format, args...))
}
