package batch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nexgen-studio/growthkit/composer"
	"github.com/nexgen-studio/growthkit/manifest"
	"github.com/nexgen-studio/growthkit/observability"
	"github.com/nexgen-studio/growthkit/plan"
	"github.com/nexgen-studio/growthkit/xref"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func clock() time.Time { return fixedNow }

func builtin(t *testing.T) []plan.Record {
	t.Helper()
	records, err := plan.Builtin()
	require.NoError(t, err)
	return records
}

func TestRunBuiltinRecords(t *testing.T) {
	sink := NewMemorySink()
	runner := &Runner{Composer: composer.New(), Sink: sink, Clock: clock}

	report, err := runner.Run(context.Background(), builtin(t))
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Len(t, report.Entries, 15)

	names := sink.Names()
	require.Len(t, names, 18)
	assert.Equal(t, []string{manifest.ReadmeName, manifest.HTMLName, manifest.JSONName}, names[15:])
	assert.Equal(t, "ai-brightsmile-dental-group.pdf", names[0])

	for _, e := range report.Entries {
		data, ok := sink.Get(e.Filename)
		require.True(t, ok, e.Filename)
		assert.Equal(t, e.Size, len(data))
		assert.Equal(t, manifest.Digest(data), e.Digest)
		_, err := xref.Verify(context.Background(), data)
		require.NoError(t, err, e.Filename)
	}

	readme, _ := sink.Get(manifest.ReadmeName)
	assert.Contains(t, string(readme), "Generated on 2025-01-02T03:04:05.000Z.")
	assert.Contains(t, string(readme), "- BrightSmile Dental Group (")
	assert.Len(t, manifest.ParseIndex(string(readme)), 15)
}

func TestRunContinuesAfterFailure(t *testing.T) {
	records := builtin(t)[:3]
	records[1].Chart = nil

	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewMemorySink()
	runner := &Runner{
		Composer: composer.New(),
		Sink:     sink,
		Logger:   observability.NewZapLogger(zap.New(core)),
		Clock:    clock,
	}

	report, err := runner.Run(context.Background(), records)
	require.NoError(t, err)
	assert.False(t, report.OK())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, records[1].Company, report.Failures[0].Company)
	assert.ErrorIs(t, report.Failures[0], plan.ErrInvalidRecord)
	assert.Len(t, report.Entries, 2)

	_, ok := sink.Get(records[1].Filename())
	assert.False(t, ok)
	readme, _ := sink.Get(manifest.ReadmeName)
	assert.NotContains(t, string(readme), records[1].Company)

	raw, _ := sink.Get(manifest.JSONName)
	doc, err := manifest.ReadJSON(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{records[1].Company}, doc.Failed)

	assert.Equal(t, 1, logs.FilterMessage("record failed").Len())
	assert.Equal(t, 2, logs.FilterMessage("record rendered").Len())
}

type panicky struct{ *composer.Composer }

func (p panicky) Compose(rec plan.Record) ([]byte, error) {
	if rec.Category == plan.CategoryLandingPages {
		panic("boom")
	}
	return p.Composer.Compose(rec)
}

func TestRunRecoversFromPanic(t *testing.T) {
	records := builtin(t)
	sink := NewMemorySink()
	runner := &Runner{Composer: panicky{composer.New()}, Sink: sink, Clock: clock}

	report, err := runner.Run(context.Background(), records)
	require.NoError(t, err)
	assert.Len(t, report.Failures, 5)
	assert.Len(t, report.Entries, 10)
	assert.Contains(t, report.Failures[0].Error(), "panic")
}

func TestRunRejectsDuplicateFilename(t *testing.T) {
	rec := builtin(t)[0]
	twin := rec
	twin.Company = strings.ToUpper(rec.Company)

	report, err := (&Runner{Composer: composer.New(), Sink: NewMemorySink()}).Run(context.Background(), []plan.Record{rec, twin})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], ErrDuplicateFilename)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := NewMemorySink()

	report, err := (&Runner{Composer: composer.New(), Sink: sink}).Run(ctx, builtin(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Entries)
	assert.Empty(t, sink.Names())
}

type failingSink struct{ name string }

func (f failingSink) Put(_ context.Context, name string, _ []byte) error {
	if name == f.name {
		return errors.New("disk full")
	}
	return nil
}

func TestRunManifestFailure(t *testing.T) {
	runner := &Runner{Composer: composer.New(), Sink: failingSink{name: manifest.ReadmeName}}
	_, err := runner.Run(context.Background(), builtin(t)[:1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "readme")
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	sink := DirSink{Dir: dir}
	require.NoError(t, sink.Put(context.Background(), "a.pdf", []byte("%PDF-1.4")))

	got, err := os.ReadFile(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(got))
}

type fakeUploader struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &manager.UploadOutput{}, f.err
}

func TestS3Sink(t *testing.T) {
	up := &fakeUploader{}
	sink := &S3Sink{Bucket: "plans", Prefix: "2025/q1", Uploader: up}

	require.NoError(t, sink.Put(context.Background(), "ai-acme.pdf", []byte("pdf")))
	require.NoError(t, sink.Put(context.Background(), manifest.ReadmeName, []byte("# md")))
	require.NoError(t, sink.Put(context.Background(), manifest.JSONName, []byte("{}")))

	require.Len(t, up.inputs, 3)
	assert.Equal(t, "plans", aws.ToString(up.inputs[0].Bucket))
	assert.Equal(t, "2025/q1/ai-acme.pdf", aws.ToString(up.inputs[0].Key))
	assert.Equal(t, "application/pdf", aws.ToString(up.inputs[0].ContentType))
	assert.Equal(t, "pdf", up.bodies[0])
	assert.Equal(t, "text/markdown; charset=utf-8", aws.ToString(up.inputs[1].ContentType))
	assert.Equal(t, "application/json", aws.ToString(up.inputs[2].ContentType))

	up.err = errors.New("denied")
	assert.Error(t, sink.Put(context.Background(), "x.pdf", nil))
}

func TestMultiSink(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	require.NoError(t, MultiSink{a, b}.Put(context.Background(), "x", []byte("1")))
	_, okA := a.Get("x")
	_, okB := b.Get("x")
	assert.True(t, okA)
	assert.True(t, okB)

	assert.Error(t, MultiSink{failingSink{name: "x"}, a}.Put(context.Background(), "x", nil))
}
