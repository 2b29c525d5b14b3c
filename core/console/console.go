// Package console renders human-readable harness progress: step headers,
// success and failure lines, and the final verdict banner.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const rule = 60

// Console writes styled progress lines. A nil Console or one with a nil
// writer drops everything, which keeps package tests quiet.
type Console struct {
	out io.Writer
}

func New(out io.Writer) *Console {
	return &Console{out: out}
}

// Header prints a boxed step banner, e.g. "STEP 1: PRE-PATCH RUN".
func (c *Console) Header(message string) {
	if c == nil || c.out == nil {
		return
	}
	line := strings.Repeat("=", rule)
	fmt.Fprintln(c.out, headerStyle.Render(line))
	fmt.Fprintln(c.out, headerStyle.Render("=== "+message))
	fmt.Fprintln(c.out, headerStyle.Render(line))
}

func (c *Console) Successf(format string, args ...any) {
	c.line(successStyle, "[SUCCESS] ", format, args...)
}

func (c *Console) Failuref(format string, args ...any) {
	c.line(failureStyle, "[ERROR] ", format, args...)
}

func (c *Console) Warnf(format string, args ...any) {
	c.line(warnStyle, "[WARN] ", format, args...)
}

func (c *Console) Infof(format string, args ...any) {
	c.line(mutedStyle, "", format, args...)
}

// Verdict prints the closing banner for the job outcome.
func (c *Console) Verdict(resolved bool) {
	if c == nil || c.out == nil {
		return
	}
	if resolved {
		fmt.Fprintln(c.out, successStyle.Bold(true).Render("=== VERIFICATION SUCCESSFUL ==="))
		return
	}
	fmt.Fprintln(c.out, failureStyle.Render("=== VERIFICATION FAILED ==="))
}

func (c *Console) line(style lipgloss.Style, prefix, format string, args ...any) {
	if c == nil || c.out == nil {
		return
	}
	fmt.Fprintln(c.out, style.Render(prefix+fmt.Sprintf(format, args...)))
}
