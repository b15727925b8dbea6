package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type fakeStore struct {
	bucket      string
	objectName  string
	data        []byte
	contentType string
	failUpload  bool
}

func (f *fakeStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	if f.failUpload {
		return context.DeadlineExceeded
	}
	f.objectName = objectName
	f.data = data
	f.contentType = contentType
	return nil
}

func (f *fakeStore) Bucket() string { return f.bucket }

func TestNormalizeMediaURLAddsScheme(t *testing.T) {
	got := NormalizeMediaURL("cdn.example.com/file.jpg", nil)
	if got != "https://cdn.example.com/file.jpg" {
		t.Fatalf("got %s", got)
	}
}

func TestNormalizeMediaURLRewritesLoopback(t *testing.T) {
	gw := &GatewayConfig{BaseURL: "https://gw.example.com"}
	got := NormalizeMediaURL("http://localhost:3000/file.jpg?id=1", gw)
	if got != "https://gw.example.com/file.jpg?id=1" {
		t.Fatalf("got %s", got)
	}
	got = NormalizeMediaURL("http://127.0.0.1:8080/media/a.ogg", gw)
	if got != "https://gw.example.com/media/a.ogg" {
		t.Fatalf("got %s", got)
	}
}

func TestNormalizeMediaURLKeepsExternalHost(t *testing.T) {
	gw := &GatewayConfig{BaseURL: "https://gw.example.com"}
	got := NormalizeMediaURL("https://cdn.example.com/file.jpg", gw)
	if got != "https://cdn.example.com/file.jpg" {
		t.Fatalf("got %s", got)
	}
}

func TestUploadHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpegbytes"))
	}))
	defer srv.Close()

	store := &fakeStore{bucket: "chat-media"}
	ing := NewIngestor(store, srv.Client(), zap.NewNop())

	ref, err := ing.Upload(context.Background(), srv.URL+"/file", "image", "lead-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(ref, "storage://chat-media/leads/lead-1/") {
		t.Fatalf("ref = %s", ref)
	}
	if !strings.HasSuffix(store.objectName, ".jpg") {
		t.Fatalf("object name = %s", store.objectName)
	}
	if string(store.data) != "jpegbytes" {
		t.Fatalf("stored %q", store.data)
	}
}

func TestUploadGatewayAuthHeaders(t *testing.T) {
	var gotAPIKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-Api-Key")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "audio/ogg")
		_, _ = w.Write([]byte("oggbytes"))
	}))
	defer srv.Close()

	gw := &GatewayConfig{BaseURL: srv.URL, APIKey: "sekret"}
	store := &fakeStore{bucket: "chat-media"}
	ing := NewIngestor(store, srv.Client(), zap.NewNop())

	if _, err := ing.Upload(context.Background(), srv.URL+"/voice", "audio", "lead-2", gw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAPIKey != "sekret" {
		t.Fatalf("X-Api-Key = %q", gotAPIKey)
	}
	if gotAuth != "Bearer sekret" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestUploadFallsBackToBareAuthorization(t *testing.T) {
	var attempts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		attempts = append(attempts, auth)
		if strings.HasPrefix(auth, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("pdfbytes"))
	}))
	defer srv.Close()

	gw := &GatewayConfig{BaseURL: srv.URL, APIKey: "sekret"}
	store := &fakeStore{bucket: "chat-media"}
	ing := NewIngestor(store, srv.Client(), zap.NewNop())

	ref, err := ing.Upload(context.Background(), srv.URL+"/doc", "document", "lead-3", gw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 2 || attempts[1] != "sekret" {
		t.Fatalf("attempts = %#v", attempts)
	}
	if !strings.HasSuffix(store.objectName, ".pdf") {
		t.Fatalf("object name = %s", store.objectName)
	}
	_ = ref
}

func TestUploadAllAuthFormatsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	gw := &GatewayConfig{BaseURL: srv.URL, APIKey: "sekret"}
	ing := NewIngestor(&fakeStore{bucket: "b"}, srv.Client(), zap.NewNop())

	_, err := ing.Upload(context.Background(), srv.URL+"/doc", "document", "lead-4", gw)
	if err == nil || !strings.Contains(err.Error(), "auth formats failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestUploadFetchFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ing := NewIngestor(&fakeStore{bucket: "b"}, srv.Client(), zap.NewNop())
	if _, err := ing.Upload(context.Background(), srv.URL+"/missing", "image", "lead-5", nil); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestExtensionFor(t *testing.T) {
	if got := extensionFor("image/jpeg", "image"); got != ".jpg" {
		t.Fatalf("exact => %s", got)
	}
	if got := extensionFor("application/x-something-png", "image"); got != ".png" {
		t.Fatalf("substring => %s", got)
	}
	if got := extensionFor("application/octet-stream", "audio"); got != ".ogg" {
		t.Fatalf("type fallback => %s", got)
	}
	if got := extensionFor("", "unknown"); got != ".bin" {
		t.Fatalf("default => %s", got)
	}
	if got := extensionFor("audio/ogg; codecs=opus", "audio"); got != ".ogg" {
		t.Fatalf("parameterized => %s", got)
	}
}
