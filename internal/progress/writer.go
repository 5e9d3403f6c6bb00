package progress

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	// Match lines like:
	// Receiving objects:  67% (35484/52960), 236.76 MiB | 78.92 MiB/s
	// Resolving deltas: 100% (1200/1200), done.
	phaseRegex = regexp.MustCompile(`^(Counting objects|Compressing objects|Receiving objects|Resolving deltas|Updating files):\s*(\d+)%\s*\((\d+)/(\d+)\)`)
)

// GitOutputWriter consumes the progress stream of `git clone --progress` (or
// go-git's sideband output) and turns it into Tracker calls. Each phase is
// tracked as its own operation. Lines that are not progress updates are
// handed to the optional Passthrough callback.
type GitOutputWriter struct {
	tracker     Tracker
	Passthrough func(line string)

	mu      sync.Mutex
	pending []byte
	phase   string
}

// NewGitOutputWriter creates a writer reporting to tracker
func NewGitOutputWriter(tracker Tracker) *GitOutputWriter {
	return &GitOutputWriter{tracker: tracker}
}

// Write implements io.Writer. git separates in-place progress updates with
// carriage returns, so both \r and \n terminate a line. A trailing partial
// line is kept until the next Write or Close.
func (w *GitOutputWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		idx := bytes.IndexAny(w.pending, "\r\n")
		if idx < 0 {
			break
		}
		line := string(w.pending[:idx])
		w.pending = w.pending[idx+1:]
		w.handleLine(line)
	}
	return len(p), nil
}

// Close flushes any partial line and completes the phase in progress.
func (w *GitOutputWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) > 0 {
		w.handleLine(string(w.pending))
		w.pending = nil
	}
	if w.phase != "" {
		w.tracker.Complete()
		w.phase = ""
	}
	return nil
}

// Abort flushes any partial line and marks the phase in progress as failed.
// The tracker is told about err even when no phase was seen.
func (w *GitOutputWriter) Abort(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) > 0 {
		w.handleLine(string(w.pending))
		w.pending = nil
	}
	w.tracker.Error(err)
	w.phase = ""
}

// Phase returns the phase currently being tracked
func (w *GitOutputWriter) Phase() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

func (w *GitOutputWriter) handleLine(line string) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "remote: ")
	if line == "" {
		return
	}

	matches := phaseRegex.FindStringSubmatch(line)
	if matches == nil {
		if w.Passthrough != nil {
			w.Passthrough(line)
		}
		return
	}

	phase := matches[1]
	current, _ := strconv.ParseInt(matches[3], 10, 64)
	total, _ := strconv.ParseInt(matches[4], 10, 64)

	if phase != w.phase {
		if w.phase != "" {
			w.tracker.Complete()
		}
		w.tracker.Start(phase)
		w.phase = phase
	}
	w.tracker.Update(current, total)
}
