package logutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetLogger_DiscardsByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := GetLogger("[test] ")
	logger.Println("dropped")
	SetOutput(&buf)
	defer SetOutput(io.Discard)
	logger.Println("kept")
	if got := buf.String(); strings.Contains(got, "dropped") || !strings.Contains(got, "[test] kept") {
		t.Errorf("got output %q", got)
	}
}

func TestGetLogger_TimestampBeforePrefix(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(io.Discard)
	GetLogger("[ts] ").Println("msg")
	got := strings.TrimSuffix(buf.String(), "\n")
	if !strings.HasSuffix(got, " [ts] msg") || strings.HasPrefix(got, "[ts]") {
		t.Errorf("got line %q, want a timestamp then %q", got, "[ts] msg")
	}
}

func TestSetOutputFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "log")
	if err := SetOutputFile(fname); err != nil {
		t.Fatal(err)
	}
	GetLogger("[file] ").Println("hello")
	if err := SetOutputFile(""); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "[file] hello") {
		t.Errorf("log file has %q", content)
	}
}

func TestSetOutputFile_BadPath(t *testing.T) {
	err := SetOutputFile(filepath.Join(t.TempDir(), "no", "such", "dir", "log"))
	if err == nil {
		t.Errorf("want error for bad path")
	}
}
