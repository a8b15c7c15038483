package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/markdown"
	"github.com/markis/smart-summary/internal/controller"
)

// Options controls how the summary is printed.
type Options struct {
	PlainText bool
	Wrap      int
	Theme     string
}

// TerminalRenderer prints a summary as it streams in. In markdown mode it
// renders whole paragraphs once they are complete, in plain mode it prints
// each new piece of text right away. It implements controller.Listener.
type TerminalRenderer struct {
	out       io.Writer
	errOut    io.Writer
	markdown  *glamour.TermRenderer
	plainText bool
	errStyle  lipgloss.Style

	printed  int
	finished bool
	err      error
}

var _ controller.Listener = (*TerminalRenderer)(nil)

func NewTerminalRenderer(out, errOut io.Writer, opts Options) (*TerminalRenderer, error) {
	t := &TerminalRenderer{
		out:       out,
		errOut:    errOut,
		plainText: opts.PlainText,
		errStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
	if opts.PlainText {
		t.errStyle = lipgloss.NewStyle()
		return t, nil
	}

	wrap := opts.Wrap
	if wrap <= 0 {
		wrap = 120
	}
	rendererOpts := []glamour.TermRendererOption{markdown.WithWrap(wrap)}
	if opts.Theme != "" {
		rendererOpts = append(rendererOpts, markdown.WithTheme(opts.Theme))
	} else {
		rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
	}

	md, err := glamour.NewTermRenderer(rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	t.markdown = md
	return t, nil
}

// OnUpdate prints whatever part of text is ready and has not been printed.
func (t *TerminalRenderer) OnUpdate(text string) {
	if t.err != nil || t.printed > len(text) {
		return
	}
	pending := text[t.printed:]

	if t.plainText {
		t.write(pending)
		t.printed = len(text)
		return
	}

	if idx := findMarkdownBreakPoint(pending); idx > 0 {
		t.renderContent(pending[:idx])
		t.printed += idx
	}
}

// OnFinish flushes a completed summary or reports a failure.
func (t *TerminalRenderer) OnFinish(outcome controller.Outcome) {
	if t.finished {
		return
	}
	t.finished = true

	switch outcome.Status {
	case controller.StatusCompleted:
		if t.printed <= len(outcome.Text) {
			if remaining := outcome.Text[t.printed:]; remaining != "" {
				if t.plainText {
					t.write(remaining)
				} else {
					t.renderContent(remaining)
				}
				t.printed = len(outcome.Text)
			}
		}
		t.write("\n")
	case controller.StatusFailed:
		if t.printed > 0 {
			t.write("\n")
		}
		if _, err := fmt.Fprintln(t.errOut, t.errStyle.Render("Error: "+outcome.Message)); err != nil && t.err == nil {
			t.err = err
		}
	case controller.StatusCancelled:
		if t.printed > 0 {
			t.write("\n")
		}
	}
}

// Err returns the first error hit while writing output.
func (t *TerminalRenderer) Err() error {
	return t.err
}

func (t *TerminalRenderer) renderContent(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if strings.HasPrefix(content, "#") {
		t.write("\n")
	}

	md, err := t.markdown.Render(content)
	if err != nil {
		t.err = fmt.Errorf("failed to render markdown: %w", err)
		return
	}
	t.write(strings.TrimSpace(md) + "\n")
}

func (t *TerminalRenderer) write(s string) {
	if t.err != nil {
		return
	}
	if _, err := io.WriteString(t.out, s); err != nil {
		t.err = fmt.Errorf("failed to write output: %w", err)
	}
}

// findMarkdownBreakPoint returns the offset just past the last paragraph
// break in content, or -1 when there is none.
func findMarkdownBreakPoint(content string) int {
	const marker string = "\n\n"
	idx := strings.LastIndex(content, marker)
	if idx < 0 {
		return -1
	}
	return idx + len(marker)
}
