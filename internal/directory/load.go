package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"

	"github.com/xming13/GoGovSG/internal/config"
	"github.com/xming13/GoGovSG/pkg/links"
)

// Load reads a directory dump: a JSON array of links, optionally gzipped
// (by a .gz suffix), from a local file or an s3://bucket/key URL.
func Load(ctx context.Context, source string, cfg config.ImportConfig) ([]links.Summary, error) {
	r, err := open(ctx, source, cfg)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Decode(r, strings.HasSuffix(source, ".gz"))
}

// Decode reads a JSON array of links from r.
func Decode(r io.Reader, gzipped bool) ([]links.Summary, error) {
	if gzipped {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var items []links.Summary
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding dump: %w", err)
	}
	for i, l := range items {
		if l.ShortURL == "" {
			return nil, fmt.Errorf("decoding dump: entry %d has no shortUrl", i)
		}
	}
	return items, nil
}

func open(ctx context.Context, source string, cfg config.ImportConfig) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "s3://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening dump: %w", err)
		}
		return f, nil
	}

	bucket, key, err := parseS3URL(source)
	if err != nil {
		return nil, err
	}
	out, err := newS3Client(cfg).GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source, err)
	}
	return out.Body, nil
}

// parseS3URL splits s3://bucket/key.
func parseS3URL(source string) (bucket, key string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("parsing %s: %w", source, err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("parsing %s: want s3://bucket/key", source)
	}
	return u.Host, key, nil
}

// newS3Client builds a client with anonymous credentials.
func newS3Client(cfg config.ImportConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  aws.AnonymousCredentials{},
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}
