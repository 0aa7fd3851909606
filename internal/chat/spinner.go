package chat

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
)

// SpinnerMessage is shown while a brief is being analyzed.
const SpinnerMessage = "🎵 TF Agents analyzing your brief"

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner shows an animated spinner with message and dots until stopped.
type spinner struct {
	done chan struct{}
	wg   sync.WaitGroup
}

// startSpinner animates on out when it is a terminal, and is a no-op
// otherwise.
func startSpinner(out io.Writer, message string) *spinner {
	s := &spinner{done: make(chan struct{})}
	f, ok := out.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return s
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		frameIndex := 0
		dotCount := 0

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				fmt.Fprint(out, "\r"+ansi.EraseLineRight)
				return
			case <-ticker.C:
				fmt.Fprintf(out, "\r%s %s%s", spinnerFrames[frameIndex], message, strings.Repeat(".", dotCount))

				frameIndex = (frameIndex + 1) % len(spinnerFrames)
				if frameIndex == 0 {
					dotCount = (dotCount + 1) % 4 // 0, 1, 2, 3 dots
				}
			}
		}
	}()
	return s
}

// Stop ends the animation and clears the line.
func (s *spinner) Stop() {
	close(s.done)
	s.wg.Wait()
}
