package batch

import (
	"bytes"
	"context"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/m-mizutani/goerr/v2"
)

// Sink stores one named output.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// DirSink writes outputs into a local directory, creating it on first use.
type DirSink struct {
	Dir string
}

func (s DirSink) Put(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create output directory", goerr.V("dir", s.Dir))
	}
	target := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write output", goerr.V("path", target))
	}
	return nil
}

// Uploader is the subset of the S3 transfer manager used by S3Sink.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink publishes outputs to a bucket under an optional key prefix.
type S3Sink struct {
	Bucket   string
	Prefix   string
	Uploader Uploader
}

// NewS3Sink builds a sink on top of an S3 client from cfg.
func NewS3Sink(cfg aws.Config, bucket, prefix string) *S3Sink {
	return &S3Sink{
		Bucket:   bucket,
		Prefix:   prefix,
		Uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
	}
}

func (s *S3Sink) Put(ctx context.Context, name string, data []byte) error {
	key := path.Join(s.Prefix, name)
	_, err := s.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to upload output", goerr.V("bucket", s.Bucket), goerr.V("key", key))
	}
	return nil
}

func contentType(name string) string {
	switch ext := path.Ext(name); ext {
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}

// MultiSink writes every output to each sink in order and stops at the
// first failure.
type MultiSink []Sink

func (m MultiSink) Put(ctx context.Context, name string, data []byte) error {
	for _, s := range m {
		if err := s.Put(ctx, name, data); err != nil {
			return err
		}
	}
	return nil
}

// MemorySink keeps outputs in memory.
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	order []string
}

func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

func (m *MemorySink) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		m.order = append(m.order, name)
	}
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// Get returns a stored output.
func (m *MemorySink) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	return data, ok
}

// Names lists stored outputs in write order.
func (m *MemorySink) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}
