package progress

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	events []string
	last   [2]int64
}

func (r *recordingTracker) Start(operation string) *Operation {
	r.events = append(r.events, "start:"+operation)
	return newOperation(operation)
}

func (r *recordingTracker) Update(current, total int64) {
	r.last = [2]int64{current, total}
}

func (r *recordingTracker) Complete() {
	r.events = append(r.events, "complete")
}

func (r *recordingTracker) Error(err error) {
	r.events = append(r.events, "error")
}

func TestGitOutputWriterPhases(t *testing.T) {
	tracker := &recordingTracker{}
	w := NewGitOutputWriter(tracker)

	var passthrough []string
	w.Passthrough = func(line string) { passthrough = append(passthrough, line) }

	stream := "Cloning into 'bar'...\n" +
		"remote: Enumerating objects: 12, done.\n" +
		"Receiving objects:  50% (6/12)\r" +
		"Receiving objects: 100% (12/12), 4.10 KiB | 4.10 MiB/s, done.\n" +
		"Resolving deltas: 100% (3/3), done.\n"

	n, err := w.Write([]byte(stream))
	require.NoError(t, err)
	assert.Equal(t, len(stream), n)
	assert.Equal(t, "Resolving deltas", w.Phase())

	require.NoError(t, w.Close())

	assert.Equal(t, []string{
		"start:Receiving objects",
		"complete",
		"start:Resolving deltas",
		"complete",
	}, tracker.events)
	assert.Equal(t, [2]int64{3, 3}, tracker.last)
	assert.Equal(t, []string{"Cloning into 'bar'...", "Enumerating objects: 12, done."}, passthrough)
	assert.Empty(t, w.Phase())
}

func TestGitOutputWriterSplitWrites(t *testing.T) {
	tracker := &recordingTracker{}
	w := NewGitOutputWriter(tracker)

	_, _ = w.Write([]byte("Receiving obj"))
	assert.Empty(t, tracker.events, "partial line must not be parsed yet")

	_, _ = w.Write([]byte("ects:  25% (1/4)\r"))
	assert.Equal(t, []string{"start:Receiving objects"}, tracker.events)
	assert.Equal(t, [2]int64{1, 4}, tracker.last)
}

func TestGitOutputWriterFlushesOnClose(t *testing.T) {
	tracker := &recordingTracker{}
	w := NewGitOutputWriter(tracker)

	var lines []string
	w.Passthrough = func(line string) { lines = append(lines, line) }

	_, _ = w.Write([]byte("fatal: repository 'https://github.com/o/r.git/' not found"))
	require.NoError(t, w.Close())

	assert.Equal(t, []string{"fatal: repository 'https://github.com/o/r.git/' not found"}, lines)
	assert.Empty(t, tracker.events)
}

func TestGitOutputWriterAbort(t *testing.T) {
	tracker := &recordingTracker{}
	w := NewGitOutputWriter(tracker)

	_, _ = w.Write([]byte("Receiving objects:  50% (1/2)\rReceiving objects: 100% (2/2)"))
	w.Abort(errors.New("early EOF"))

	assert.Equal(t, []string{"start:Receiving objects", "error"}, tracker.events)
	assert.Equal(t, [2]int64{2, 2}, tracker.last)
	assert.Empty(t, w.Phase())
}
