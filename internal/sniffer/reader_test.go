package sniffer_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albionflip/flipperd/internal/sniffer"
)

// writeScript drops an executable shell script into a temp dir and returns
// its path. It stands in for the capture client binary.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-client")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)
	require.NoError(t, err)
	return path
}

func newTestReader(path string) *sniffer.ProcessReader {
	return sniffer.NewProcessReader(sniffer.ReaderConfig{
		ExecutablePath: path,
		ReadBackoff:    10 * time.Millisecond,
		StopTimeout:    2 * time.Second,
	}, slog.Default())
}

func TestProcessReader_MissingExecutable(t *testing.T) {
	// Arrange
	r := newTestReader(filepath.Join(t.TempDir(), "does-not-exist"))

	// Act
	err := r.Start()

	// Assert - the error is reported but the reader is simply left stopped
	require.Error(t, err)
	assert.False(t, r.Running())
	assert.Nil(t, r.Lines())
}

func TestProcessReader_ReadsLinesUntilExit(t *testing.T) {
	// Arrange
	r := newTestReader(writeScript(t, "echo line-one\necho line-two\n"))

	// Act
	require.NoError(t, r.Start())

	var got []string
	for line := range r.Lines() {
		got = append(got, line)
	}

	// Assert - channel closes once the process exits
	assert.Equal(t, []string{"line-one", "line-two"}, got)
	assert.Eventually(t, func() bool { return !r.Running() }, 2*time.Second, 10*time.Millisecond)
}

func TestProcessReader_DrainsFullOutputOfExitedProcess(t *testing.T) {
	// Arrange - a client that dumps a large burst and exits immediately,
	// so most of its output is still buffered in the pipe at exit time
	const want = 2000
	r := newTestReader(writeScript(t, "i=0\nwhile [ $i -lt 2000 ]; do\n  echo \"line $i\"\n  i=$((i+1))\ndone\n"))

	for run := 0; run < 3; run++ {
		// Act
		require.NoError(t, r.Start())

		got := 0
		for range r.Lines() {
			got++
		}
		r.Stop()

		// Assert - every buffered line survives the exit
		assert.Equal(t, want, got, "run %d lost output", run)
	}
}

func TestProcessReader_SkipsUndecodableLines(t *testing.T) {
	// Arrange - a garbled non-UTF-8 line between two valid ones
	r := newTestReader(writeScript(t, "echo first\nprintf '\\377\\376garbled\\n'\necho second\n"))

	// Act
	require.NoError(t, r.Start())

	var got []string
	for line := range r.Lines() {
		got = append(got, line)
	}

	// Assert - the bad line is dropped and reading continues past it
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestProcessReader_StartIsIdempotent(t *testing.T) {
	// Arrange - a client that stays alive until stopped
	r := newTestReader(writeScript(t, "echo ready\nsleep 30\n"))
	require.NoError(t, r.Start())
	defer r.Stop()

	first := r.Lines()

	// Act
	err := r.Start()

	// Assert - second start is a no-op on the same run
	require.NoError(t, err)
	assert.Equal(t, first, r.Lines())
	assert.True(t, r.Running())
}

func TestProcessReader_StopTerminatesProcess(t *testing.T) {
	// Arrange
	r := newTestReader(writeScript(t, "echo ready\nsleep 30\n"))
	require.NoError(t, r.Start())

	// Wait for the process to come up.
	select {
	case <-r.Lines():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first line")
	}

	// Act
	r.Stop()

	// Assert
	assert.False(t, r.Running())

	// Stop again must be a harmless no-op.
	r.Stop()
}

func TestProcessReader_RestartAfterStop(t *testing.T) {
	// Arrange
	r := newTestReader(writeScript(t, "echo hello\nsleep 30\n"))
	require.NoError(t, r.Start())
	r.Stop()

	// Act - a fresh run produces a fresh line stream
	require.NoError(t, r.Start())
	defer r.Stop()

	select {
	case line := <-r.Lines():
		// Assert
		assert.Equal(t, "hello", line)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for line after restart")
	}
}
