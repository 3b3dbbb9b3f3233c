package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/xming13/GoGovSG/internal/config"
)

func TestLoadFile(t *testing.T) {
	p := writeDump(t, t.TempDir(), "links.json", fixture())
	items, err := Load(context.Background(), p, config.ImportConfig{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 5 || items[1].ShortURL != "catalogue" || !items[1].CreatedAt.Equal(day(3)) {
		t.Errorf("items = %+v", items)
	}
}

func TestLoadGzipFile(t *testing.T) {
	data, _ := json.Marshal(fixture())
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(data)
	zw.Close()

	p := filepath.Join(t.TempDir(), "links.json.gz")
	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	items, err := Load(context.Background(), p, config.ImportConfig{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("len = %d", len(items))
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := map[string]string{
		"not json":    `{{`,
		"not array":   `{"shortUrl":"a"}`,
		"no shortUrl": `[{"longUrl":"https://x.example"}]`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(body), false); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := Decode(strings.NewReader("plain"), true); err == nil {
		t.Error("expected gzip error")
	}
}

func TestLoadS3(t *testing.T) {
	data, _ := json.Marshal(fixture())
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Path != "/dumps/2024/links.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	cfg := config.ImportConfig{Region: "ap-southeast-1", Endpoint: srv.URL, UsePathStyle: true}
	items, err := Load(context.Background(), "s3://dumps/2024/links.json", cfg)
	if err != nil {
		t.Fatalf("Load: %v (server saw %q)", err, gotPath)
	}
	if len(items) != 5 {
		t.Errorf("len = %d", len(items))
	}
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://gogov-dumps/public/links.json")
	if err != nil || bucket != "gogov-dumps" || key != "public/links.json" {
		t.Errorf("parseS3URL = %q, %q, %v", bucket, key, err)
	}
	for _, bad := range []string{"s3://bucket", "s3:///key", "s3://bucket/"} {
		if _, _, err := parseS3URL(bad); err == nil {
			t.Errorf("parseS3URL(%q) should fail", bad)
		}
	}
}
