package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage("https://files.test")

	err := m.Save(ctx, "vault/u1/policys/a.pdf", strings.NewReader("%PDF"), 4, "application/pdf")
	if err != nil {
		t.Fatal(err)
	}
	err = m.Save(ctx, "short", strings.NewReader("ab"), 3, "text/plain")
	if err == nil {
		t.Error("size mismatch accepted")
	}

	u, err := m.DownloadURL(ctx, "vault/u1/policys/a.pdf", "Leave Policy.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if u != "https://files.test/vault/u1/policys/a.pdf?name=Leave+Policy.pdf" {
		t.Errorf("url = %s", u)
	}

	err = m.Delete(ctx, "vault/u1/policys/a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.DownloadURL(ctx, "vault/u1/policys/a.pdf", ""); err == nil {
		t.Error("download url for deleted object")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d", m.Len())
	}
}

type fakeS3 struct {
	mu       sync.Mutex
	requests []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	switch r.Method {
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPut:
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeS3) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func TestS3Storage(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewS3Storage(S3Config{
		Region:        "eu-central-1",
		Bucket:        "hr-vault",
		AccessKey:     "test",
		SecretKey:     "test-secret",
		Endpoint:      srv.URL,
		PresignExpiry: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewS3Storage: %v", err)
	}

	ctx := context.Background()
	err = s.Save(ctx, "vault/u1/documents/a.txt", strings.NewReader("hello"), 5, "text/plain")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	err = s.Delete(ctx, "vault/u1/documents/a.txt")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []string{"HEAD /hr-vault", "PUT /hr-vault/vault/u1/documents/a.txt", "DELETE /hr-vault/vault/u1/documents/a.txt"}
	got := fake.seen()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("requests = %v, want %v", got, want)
	}

	raw, err := s.DownloadURL(ctx, "vault/u1/documents/a.txt", "Handbook.txt")
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != "/hr-vault/vault/u1/documents/a.txt" {
		t.Errorf("path = %s", u.Path)
	}
	q := u.Query()
	if q.Get("X-Amz-Expires") != "900" {
		t.Errorf("expires = %s", q.Get("X-Amz-Expires"))
	}
	if q.Get("response-content-disposition") != `attachment; filename="Handbook.txt"` {
		t.Errorf("disposition = %s", q.Get("response-content-disposition"))
	}
	if len(fake.seen()) != 3 {
		t.Error("presigning should not call the endpoint")
	}
}
