package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[backend]
base_url = %q
api_token = "test-token"
`, filepath.Join(dir, "data"), filepath.Join(dir, "logs"), baseURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func writeTestPhoto(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crack.jpg")
	if err := os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o644); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	return path
}

func TestQueueListEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t, "http://127.0.0.1:0")

	out, err := runCommand(t, cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue empty") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestAddPhotoThenList(t *testing.T) {
	cfgPath := writeTestConfig(t, "http://127.0.0.1:0")
	photo := writeTestPhoto(t)

	out, err := runCommand(t, cfgPath, "add", "photo", photo,
		"--inspection", "insp-1", "--result", "res-1", "--priority", "3")
	if err != nil {
		t.Fatalf("add photo: %v", err)
	}
	if !strings.Contains(out, "Queued") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, err = runCommand(t, cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Result Photo Insert") {
		t.Fatalf("expected queued photo in listing, got: %s", out)
	}
}

func TestAddPhotoRequiresFlags(t *testing.T) {
	cfgPath := writeTestConfig(t, "http://127.0.0.1:0")
	photo := writeTestPhoto(t)

	if _, err := runCommand(t, cfgPath, "add", "photo", photo); err == nil {
		t.Fatal("expected error without --inspection and --result")
	}
}

func TestQueueClearRequiresForce(t *testing.T) {
	cfgPath := writeTestConfig(t, "http://127.0.0.1:0")
	photo := writeTestPhoto(t)

	if _, err := runCommand(t, cfgPath, "add", "photo", photo,
		"--inspection", "insp-1", "--result", "res-1"); err != nil {
		t.Fatalf("add photo: %v", err)
	}

	if _, err := runCommand(t, cfgPath, "queue", "clear"); err == nil {
		t.Fatal("expected clear to refuse without --force")
	}

	out, err := runCommand(t, cfgPath, "queue", "clear", "--force")
	if err != nil {
		t.Fatalf("queue clear --force: %v", err)
	}
	if !strings.Contains(out, "Removed 1") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestFlushDeliversQueuedUploads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfgPath := writeTestConfig(t, srv.URL)
	photo := writeTestPhoto(t)

	if _, err := runCommand(t, cfgPath, "add", "photo", photo,
		"--inspection", "insp-1", "--result", "res-1"); err != nil {
		t.Fatalf("add photo: %v", err)
	}

	out, err := runCommand(t, cfgPath, "flush")
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !strings.Contains(out, "Delivered 1") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, err = runCommand(t, cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue empty") {
		t.Fatalf("expected empty queue after flush, got: %s", out)
	}
}

func TestConfigShowRedactsToken(t *testing.T) {
	cfgPath := writeTestConfig(t, "http://127.0.0.1:0")

	out, err := runCommand(t, cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "test-token") {
		t.Fatalf("api token leaked in output: %s", out)
	}
	if !strings.Contains(out, "base_url") {
		t.Fatalf("expected resolved config, got: %s", out)
	}
}
