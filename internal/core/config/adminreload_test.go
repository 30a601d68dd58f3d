package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestAdminTokenSourceWithoutPathStaysPinned(t *testing.T) {
	s := NewAdminTokenSource("static-token")
	if err := s.Watch("", zerolog.Nop()); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if got := s.Current(); got != "static-token" {
		t.Fatalf("got %q, want static-token", got)
	}
}

func TestAdminTokenSourceReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admin-token")
	if err := os.WriteFile(path, []byte("first-token\n"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s := NewAdminTokenSource("")
	if err := s.reload(path); err != nil {
		t.Fatalf("initial reload: %v", err)
	}
	if got := s.Current(); got != "first-token" {
		t.Fatalf("got %q, want first-token", got)
	}

	if err := s.Watch(path, zerolog.Nop()); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer s.Close()

	if err := os.WriteFile(path, []byte("second-token\n"), 0o600); err != nil {
		t.Fatalf("rewrite file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Current() == "second-token" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("got %q, want second-token after reload", s.Current())
}
