package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)

	p.Start(4)
	p.Update(2)
	if !strings.Contains(buf.String(), "50% (2/4)") {
		t.Errorf("after Update(2) output = %q", buf.String())
	}

	p.Finish()
	if !strings.HasSuffix(buf.String(), "100% (4/4)\n") {
		t.Errorf("after Finish() output = %q", buf.String())
	}

	p.Error(errors.New("spawn failed"))
	if !strings.Contains(buf.String(), "Error: spawn failed") {
		t.Errorf("Error() output = %q", buf.String())
	}
}

func TestSimpleProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)
	p.Start(0)
	p.Update(1)
	if buf.Len() != 0 {
		t.Errorf("zero total rendered %q", buf.String())
	}
}

func TestNewTerminalProgress_NotATerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, ok := NewTerminalProgress(f, "Spawning").(NopProgress); !ok {
		t.Error("regular file got a rendering progress reporter")
	}
	if _, ok := NewTerminalProgress(nil, "Spawning").(NopProgress); !ok {
		t.Error("nil file got a rendering progress reporter")
	}
}
