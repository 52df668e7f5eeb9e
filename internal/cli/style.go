package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"sculpt/pkg/provider"
	"sculpt/pkg/version"
)

// styler renders the terminal theme shared by every compile action. Escape
// codes are only emitted when the writer is a real terminal, so piped and
// test output stays plain text.
type styler struct {
	out io.Writer
	tty bool
}

func newStyler(out io.Writer) *styler {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &styler{out: out, tty: tty}
}

func (s *styler) color24(text string, r, g, b int, bold bool) string {
	if !s.tty {
		return text
	}
	if bold {
		return fmt.Sprintf("\x1b[1;38;2;%d;%d;%dm%s\x1b[0m", r, g, b, text)
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", r, g, b, text)
}

// byte5 cyan
func (s *styler) title(text string) string { return s.color24(text, 0, 255, 255, true) }

// byte5 pink
func (s *styler) accent(text string) string { return s.color24(text, 234, 81, 114, true) }

func (s *styler) dim(text string) string { return s.color24(text, 150, 160, 170, false) }

func (s *styler) divider() string { return s.dim(strings.Repeat("─", 52)) }

// header prints the banner every action starts with. info is nil for
// actions that never touch a generation provider.
func (s *styler) header(action, target, input string, info *provider.Info) {
	fmt.Fprintln(s.out)
	fmt.Fprintf(s.out, "%s %s - %s\n",
		s.title("SCULPT"), s.title("Compiler "+version.Version), s.dim("(C) 2026 byte5 GmbH"))
	fmt.Fprintf(s.out, "%s %s\n", s.dim("Action:"), s.accent(action))
	fmt.Fprintf(s.out, "%s %s\n", s.dim("Target:"), s.dim(target))
	fmt.Fprintf(s.out, "%s %s\n", s.dim("Input: "), s.dim(input))
	if info != nil {
		fmt.Fprintf(s.out, "%s %s\n", s.dim("Provider:"), s.dim(info.Name))
		fmt.Fprintf(s.out, "%s %s\n", s.dim("Model:   "), s.dim(info.Model))
	}
	fmt.Fprintln(s.out, s.divider())
}

// footer lists the produced artifacts and the token spend. A nil usage
// renders as unavailable, which covers stub, replay and keyless providers.
func (s *styler) footer(artifacts []string, usage *provider.Usage) {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, s.accent("Artifacts"))
	for _, a := range artifacts {
		fmt.Fprintf(s.out, "  %s\n", s.dim(a))
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, s.accent("Tokens"))
	if usage != nil {
		fmt.Fprintf(s.out, "  %s\n", s.dim(fmt.Sprintf(
			"input=%d output=%d total=%d",
			usage.InputTokens, usage.OutputTokens, usage.TotalTokens)))
	} else {
		fmt.Fprintf(s.out, "  %s\n", s.dim("unavailable"))
	}
	fmt.Fprintln(s.out, s.divider())
}

func (s *styler) stepLine(idx, label, status string) string {
	return fmt.Sprintf("  %s %s %s", s.dim(idx+"."), label, s.accent(status))
}

func (s *styler) printStep(idx, label, status string) {
	fmt.Fprintln(s.out, s.stepLine(idx, label, status))
}

// replaceStep rewrites the previous step line in place. Off TTY it prints a
// fresh line so logs keep the full progression.
func (s *styler) replaceStep(idx, label, status string) {
	if s.tty {
		fmt.Fprintf(s.out, "\x1b[1A\r\x1b[2K%s\n", s.stepLine(idx, label, status))
		return
	}
	s.printStep(idx, label, status)
}

var spinnerFrames = []string{"|", "/", "-", "\\"}

// spinner animates a step while a slow stage runs. Off TTY it stays silent
// until the final status is known.
type spinner struct {
	style *styler
	idx   string
	label string
	stop  chan struct{}
	done  chan struct{}
}

func (s *styler) startSpinner(idx, label string) *spinner {
	sp := &spinner{style: s, idx: idx, label: label}
	if !s.tty {
		return sp
	}
	sp.stop = make(chan struct{})
	sp.done = make(chan struct{})
	s.printStep(idx, label, "running "+spinnerFrames[0])
	go func() {
		defer close(sp.done)
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for i := 1; ; i++ {
			select {
			case <-sp.stop:
				return
			case <-ticker.C:
				line := s.stepLine(idx, label, "running "+spinnerFrames[i%len(spinnerFrames)])
				fmt.Fprintf(s.out, "\x1b[1A\r\x1b[2K%s\x1b[1B", line)
			}
		}
	}()
	return sp
}

// finish settles the step on its final status and stops the animation.
func (sp *spinner) finish(status string) {
	if sp.stop != nil {
		close(sp.stop)
		<-sp.done
	}
	if sp.style.tty {
		sp.style.replaceStep(sp.idx, sp.label, status)
		return
	}
	sp.style.printStep(sp.idx, sp.label, status)
}
