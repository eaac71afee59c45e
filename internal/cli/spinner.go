package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/exorcism/pkg/esop"
)

// spinnerFrames is shared with the pass table of the TUI.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a status line on uiOut while a command works. Besides its
// fixed message it shows a detail that may change while it runs, such as the
// pass the minimizer is in.
type spinner struct {
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mu      sync.Mutex
	message string
	detail  string
	width   int // widest line drawn so far
}

// newSpinner creates a spinner that stops drawing when ctx is cancelled.
func newSpinner(ctx context.Context, message string) *spinner {
	if ctx == nil {
		ctx = context.Background()
	}
	inner, cancel := context.WithCancel(ctx)
	return &spinner{
		parent:  ctx,
		ctx:     inner,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		message: message,
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// line renders the status line for frame.
func (s *spinner) line(frame string) string {
	text := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	if s.detail != "" {
		text += StyleDim.Render(" · " + s.detail)
	}
	return text
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.line(frame)
	s.width = max(s.width, lipgloss.Width(text))
	fmt.Fprintf(uiOut, "\r%s", text)
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(uiOut, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// setDetail replaces the detail shown after the message.
func (s *spinner) setDetail(format string, args ...any) {
	s.mu.Lock()
	s.detail = fmt.Sprintf(format, args...)
	s.mu.Unlock()
}

// pass shows the progress of a minimization; it fits esop.Config.Progress.
func (s *spinner) pass(ps esop.PassStats) {
	s.setDetail("iteration %d · %s d%d · %d cubes", ps.Iteration, ps.Phase, ps.Dist, ps.Cubes)
}

// stop ends the animation and clears the line. It may be called more than
// once.
func (s *spinner) stop() {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
		<-s.stopped
		s.clear()
	})
}

func (s *spinner) succeed(message string) {
	s.stop()
	printSuccess("%s", message)
}

func (s *spinner) fail(message string) {
	s.stop()
	printError("%s", message)
}

// cancelled reports whether the command's context ended, as opposed to the
// spinner being stopped.
func (s *spinner) cancelled() bool {
	return s.parent.Err() != nil
}
