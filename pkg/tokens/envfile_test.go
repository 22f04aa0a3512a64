package tokens

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "API_TOKENS=one,two\nOLLAMA_API_BASE=http://localhost:11434\n")

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.String() != "one,two" {
		t.Errorf("tokens = %q, want %q", s.String(), "one,two")
	}
}

func TestLoadFileMissing(t *testing.T) {
	s, err := LoadFile(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestAddTokenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	added, err := AddToken(path, "new-token")
	if err != nil {
		t.Fatalf("AddToken: %v", err)
	}
	if !added {
		t.Error("added = false, want true")
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !s.Contains("new-token") {
		t.Errorf("tokens = %q, want new-token present", s.String())
	}
}

func TestAddTokenPreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "API_TOKENS=existing\nOLLAMA_API_BASE=http://gpu-box:11434\n")

	if _, err := AddToken(path, "second"); err != nil {
		t.Fatalf("AddToken: %v", err)
	}

	env, err := ReadEnvFile(path)
	if err != nil {
		t.Fatalf("ReadEnvFile: %v", err)
	}
	if env[UpstreamKey] != "http://gpu-box:11434" {
		t.Errorf("%s = %q, want preserved value", UpstreamKey, env[UpstreamKey])
	}
	if env[TokensKey] != "existing,second" {
		t.Errorf("%s = %q, want %q", TokensKey, env[TokensKey], "existing,second")
	}
}

func TestAddTokenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	if _, err := AddToken(path, "dup"); err != nil {
		t.Fatalf("first AddToken: %v", err)
	}
	added, err := AddToken(path, "dup")
	if err != nil {
		t.Fatalf("second AddToken: %v", err)
	}
	if added {
		t.Error("second AddToken added = true, want false")
	}

	s, _ := LoadFile(path)
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestAddTokenRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	if _, err := AddToken(path, "a,b"); err == nil {
		t.Fatal("AddToken with comma should fail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid token should not create the env file")
	}
}

func TestSetUpstream(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "API_TOKENS=keep\n")

	if err := SetUpstream(path, "http://example:11434"); err != nil {
		t.Fatalf("SetUpstream: %v", err)
	}

	env, err := ReadEnvFile(path)
	if err != nil {
		t.Fatalf("ReadEnvFile: %v", err)
	}
	if env[UpstreamKey] != "http://example:11434" {
		t.Errorf("%s = %q", UpstreamKey, env[UpstreamKey])
	}
	if env[TokensKey] != "keep" {
		t.Errorf("%s = %q, want keep", TokensKey, env[TokensKey])
	}
}
