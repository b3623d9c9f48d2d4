package render

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

var (
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// TextNotifier prints notices to a terminal.
type TextNotifier struct {
	mu  sync.Mutex
	Out io.Writer
}

// Notify implements tech.Notifier.
func (n *TextNotifier) Notify(_ context.Context, notice tech.Notice) {
	style := errorStyle
	if notice.Level == tech.NoticeWarn {
		style = warnStyle
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.Out, style.Render(notice.Message))
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *log.Logger
}

// Notify implements tech.Notifier.
func (n LogNotifier) Notify(_ context.Context, notice tech.Notice) {
	if n.Logger == nil {
		return
	}
	n.Logger.Printf("notice %s %s: %s", notice.Level, notice.Code, notice.Message)
}

// Collector keeps notices in memory, e.g. to return them in a response.
type Collector struct {
	mu      sync.Mutex
	notices []tech.Notice
}

// Notify implements tech.Notifier.
func (c *Collector) Notify(_ context.Context, notice tech.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice)
}

// Notices returns a copy of the collected notices.
func (c *Collector) Notices() []tech.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tech.Notice(nil), c.notices...)
}

var (
	_ tech.Notifier = (*TextNotifier)(nil)
	_ tech.Notifier = LogNotifier{}
	_ tech.Notifier = (*Collector)(nil)
)
