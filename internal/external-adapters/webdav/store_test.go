package webdav

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeDAV understands just enough WebDAV for MKCOL and PUT
type fakeDAV struct {
	mu       sync.Mutex
	files    map[string]string
	mkcols   []string
	putCode  int
	requests int
}

func newFakeDAV() *fakeDAV {
	return &fakeDAV{files: make(map[string]string), putCode: http.StatusCreated}
}

func (f *fakeDAV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	switch r.Method {
	case "MKCOL":
		f.mkcols = append(f.mkcols, r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	case http.MethodPut:
		if f.putCode != http.StatusCreated {
			w.WriteHeader(f.putCode)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.files[r.URL.Path] = string(body)
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestNewStore_NotConfigured(t *testing.T) {
	if _, err := NewStore("  ", "user", "pass"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestStore_Upload(t *testing.T) {
	dav := newFakeDAV()
	server := httptest.NewServer(dav)
	defer server.Close()

	store, err := NewStore(server.URL+"/dav/", "user", "pass")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	ctx := context.Background()

	if err := store.MkdirAll(ctx, "Github_Software/tool/x64"); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := store.Upload(ctx, "Github_Software/tool/x64/tool", strings.NewReader("binary")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	dav.mu.Lock()
	defer dav.mu.Unlock()
	if got := dav.files["/dav/Github_Software/tool/x64/tool"]; got != "binary" {
		t.Errorf("uploaded files = %v", dav.files)
	}
	found := false
	for _, p := range dav.mkcols {
		if strings.HasPrefix(p, "/dav/Github_Software/tool/x64") {
			found = true
		}
	}
	if !found {
		t.Errorf("MKCOL requests = %v, want the target directory", dav.mkcols)
	}
}

func TestStore_Upload_Rejected(t *testing.T) {
	dav := newFakeDAV()
	dav.putCode = http.StatusForbidden
	server := httptest.NewServer(dav)
	defer server.Close()

	store, err := NewStore(server.URL, "", "")
	if err != nil {
		t.Fatal(err)
	}

	err = store.Upload(context.Background(), "base/file", strings.NewReader("x"))
	if err == nil {
		t.Fatal("Upload should fail on 403")
	}
	if !strings.Contains(err.Error(), "base/file") {
		t.Errorf("error does not name the path: %v", err)
	}
}

func TestStore_ContextCanceled(t *testing.T) {
	dav := newFakeDAV()
	server := httptest.NewServer(dav)
	defer server.Close()

	store, err := NewStore(server.URL, "", "")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.MkdirAll(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("MkdirAll error = %v, want context.Canceled", err)
	}
	if err := store.Upload(ctx, "a/b", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Upload error = %v, want context.Canceled", err)
	}

	dav.mu.Lock()
	defer dav.mu.Unlock()
	if dav.requests != 0 {
		t.Errorf("%d requests sent after cancellation", dav.requests)
	}
}
