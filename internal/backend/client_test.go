package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fieldsync/internal/backend"
	"fieldsync/internal/testsupport"
)

type capturedRequest struct {
	method      string
	path        string
	contentType string
	auth        string
	body        []byte
}

func newCaptureServer(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.contentType = r.Header.Get("Content-Type")
		captured.auth = r.Header.Get("Authorization")
		captured.body = body
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestPutObject(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusCreated, "")

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(srv.URL))
	cfg.Backend.APIToken = "tok-123"
	client := backend.NewClient(cfg)

	err := client.PutObject(context.Background(), "inspection-photos", "17-abc-crack.jpg", "image/jpeg", []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if captured.method != http.MethodPut {
		t.Fatalf("expected PUT, got %s", captured.method)
	}
	if captured.path != "/storage/inspection-photos/17-abc-crack.jpg" {
		t.Fatalf("unexpected path %s", captured.path)
	}
	if captured.contentType != "image/jpeg" {
		t.Fatalf("unexpected content type %s", captured.contentType)
	}
	if captured.auth != "Bearer tok-123" {
		t.Fatalf("unexpected auth header %q", captured.auth)
	}
	if len(captured.body) != 2 {
		t.Fatalf("body not forwarded: %v", captured.body)
	}
}

func TestInsertAndUpsertRow(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, "")

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(srv.URL))
	client := backend.NewClient(cfg)
	ctx := context.Background()

	row := map[string]any{"inspection_id": "insp-1", "state": "submitted"}
	if err := client.InsertRow(ctx, "audit_log", "upload-1", row); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	if captured.method != http.MethodPost || captured.path != "/tables/audit_log/rows/upload-1" {
		t.Fatalf("unexpected request %s %s", captured.method, captured.path)
	}
	var decoded map[string]any
	if err := json.Unmarshal(captured.body, &decoded); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if decoded["state"] != "submitted" {
		t.Fatalf("row fields lost: %v", decoded)
	}

	if err := client.UpsertRow(ctx, "inspections", "insp-1", row); err != nil {
		t.Fatalf("UpsertRow: %v", err)
	}
	if captured.method != http.MethodPut || captured.path != "/tables/inspections/rows/insp-1" {
		t.Fatalf("unexpected request %s %s", captured.method, captured.path)
	}
}

func TestErrorIncludesStatusAndBodyExcerpt(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusUnprocessableEntity, `{"error":"missing inspection_id"}`)

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(srv.URL))
	client := backend.NewClient(cfg)

	err := client.InsertRow(context.Background(), "audit_log", "upload-1", map[string]any{})
	if err == nil {
		t.Fatal("expected error from 422 response")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "missing inspection_id") {
		t.Fatalf("error lacks status or excerpt: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, "ok")

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(srv.URL))
	client := backend.NewClient(cfg)

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if captured.path != "/health" {
		t.Fatalf("unexpected health path %s", captured.path)
	}
}
