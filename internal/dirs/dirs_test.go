package dirs

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout applies to linux only")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	got, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg-config", "vidbatch"); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestLogFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout applies to linux only")
	}
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")
	got, err := LogFile("abc")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg-state", "vidbatch", "logs", "abc.log"); got != want {
		t.Errorf("LogFile() = %q, want %q", got, want)
	}
}

func TestEnsure(t *testing.T) {
	if err := Ensure(""); err == nil {
		t.Error("Ensure(\"\") should fail")
	}
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := Ensure(dir); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
}
