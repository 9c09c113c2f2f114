package envprofile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".env"), []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
}

func TestLoad_ParsesPairs(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "dev", "# comment\nOPE_DB=dev.db\nOPE_FIXTURES=\"/data/fixtures\"\n\nOPE_GAMMA=0.99\n")

	vars, err := Load(dir, "dev")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if vars["OPE_DB"] != "dev.db" {
		t.Errorf("OPE_DB = %q", vars["OPE_DB"])
	}
	if vars["OPE_FIXTURES"] != "/data/fixtures" {
		t.Errorf("quotes should be stripped, got %q", vars["OPE_FIXTURES"])
	}
	if len(vars) != 3 {
		t.Errorf("expected 3 pairs, got %d", len(vars))
	}
}

func TestLoad_UnknownProfile(t *testing.T) {
	_, err := Load(t.TempDir(), "staging")
	var up *UnknownProfileError
	if !errors.As(err, &up) {
		t.Fatalf("expected *UnknownProfileError, got %v", err)
	}
	if up.Name != "staging" {
		t.Errorf("expected profile name in error, got %q", up.Name)
	}
}

func TestLoad_MalformedLine(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "broken", "JUST_A_WORD\n")

	if _, err := Load(dir, "broken"); err == nil {
		t.Fatal("expected error for line without '='")
	}
}

func TestApply_SetsEnvironment(t *testing.T) {
	dir := t.TempDir()
	const key = "OPE_ENVPROFILE_TEST_KEY"
	writeProfile(t, dir, "prod", key+"=applied\n")
	defer os.Unsetenv(key)

	if err := Apply(dir, DefaultProfile); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := os.Getenv(key); got != "applied" {
		t.Errorf("env %s = %q, want applied", key, got)
	}
}
