// Package batch renders a list of plan records into documents and writes the
// manifest after the last one.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/nexgen-studio/growthkit/manifest"
	"github.com/nexgen-studio/growthkit/observability"
	"github.com/nexgen-studio/growthkit/plan"
)

var ErrDuplicateFilename = errors.New("duplicate output filename")

// Composer renders one record. *composer.Composer implements it.
type Composer interface {
	Compose(rec plan.Record) ([]byte, error)
	SiteURL() string
	BookingURL() string
}

// RecordError is a failure confined to one record.
type RecordError struct {
	Company  string
	Category string
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %q (%s): %v", e.Company, e.Category, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Report is the outcome of one run.
type Report struct {
	GeneratedAt time.Time
	Entries     []manifest.Entry
	Failures    []*RecordError
	Elapsed     time.Duration
}

// OK reports whether every record produced a document.
func (r *Report) OK() bool { return len(r.Failures) == 0 }

type Runner struct {
	Composer Composer
	Sink     Sink
	Logger   observability.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Run renders records one at a time in input order. A record that fails,
// including by panicking, is reported and skipped. The manifest files are
// written once every record has been attempted. Cancellation stops the run
// before the next record and skips the manifest.
func (r *Runner) Run(ctx context.Context, records []plan.Record) (*Report, error) {
	logger := observability.OrNop(r.Logger)
	now := r.Clock
	if now == nil {
		now = time.Now
	}
	start := now()
	report := &Report{GeneratedAt: start}
	used := make(map[string]string, len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, goerr.Wrap(err, "batch cancelled", goerr.V("done", len(report.Entries)+len(report.Failures)))
		}

		entry, err := r.renderOne(ctx, rec, used)
		if err != nil {
			recErr := &RecordError{Company: rec.Company, Category: rec.Category, Err: err}
			report.Failures = append(report.Failures, recErr)
			logger.Error("record failed",
				observability.String("company", rec.Company),
				observability.String("category", rec.Category),
				observability.Error("error", err))
			continue
		}
		report.Entries = append(report.Entries, entry)
		logger.Info("record rendered",
			observability.String("record", rec.Company),
			observability.String("file", entry.Filename),
			observability.Int("bytes", entry.Size))
	}

	if err := r.writeManifest(ctx, report); err != nil {
		return report, err
	}
	report.Elapsed = now().Sub(start)
	logger.Info("batch complete",
		observability.Int("written", len(report.Entries)),
		observability.Int("failed", len(report.Failures)),
		observability.Duration("elapsed", report.Elapsed))
	return report, nil
}

func (r *Runner) renderOne(ctx context.Context, rec plan.Record, used map[string]string) (entry manifest.Entry, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = goerr.New("panic while rendering record", goerr.V("panic", fmt.Sprint(p)))
		}
	}()

	name := rec.Filename()
	if owner, ok := used[name]; ok {
		return manifest.Entry{}, goerr.Wrap(ErrDuplicateFilename, "filename already written", goerr.V("file", name), goerr.V("owner", owner))
	}

	data, err := r.Composer.Compose(rec)
	if err != nil {
		return manifest.Entry{}, err
	}
	if err := r.Sink.Put(ctx, name, data); err != nil {
		return manifest.Entry{}, err
	}
	used[name] = rec.Company
	return manifest.NewEntry(rec, data), nil
}

func (r *Runner) writeManifest(ctx context.Context, report *Report) error {
	site, booking := r.Composer.SiteURL(), r.Composer.BookingURL()
	md := manifest.Markdown(report.Entries, report.GeneratedAt, site, booking)
	if err := r.Sink.Put(ctx, manifest.ReadmeName, []byte(md)); err != nil {
		return goerr.Wrap(err, "failed to write readme")
	}

	html, err := manifest.RenderHTML(md)
	if err != nil {
		return goerr.Wrap(err, "failed to render readme")
	}
	if err := r.Sink.Put(ctx, manifest.HTMLName, html); err != nil {
		return goerr.Wrap(err, "failed to write html index")
	}

	doc := manifest.Document{
		GeneratedAt: report.GeneratedAt.UTC(),
		SiteURL:     site,
		BookingURL:  booking,
		Entries:     report.Entries,
	}
	for _, f := range report.Failures {
		doc.Failed = append(doc.Failed, f.Company)
	}
	var buf bytes.Buffer
	if err := manifest.WriteJSON(&buf, doc); err != nil {
		return err
	}
	if err := r.Sink.Put(ctx, manifest.JSONName, buf.Bytes()); err != nil {
		return goerr.Wrap(err, "failed to write manifest")
	}
	return nil
}
