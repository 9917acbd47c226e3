package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/nexgen-studio/growthkit/manifest"
	"github.com/nexgen-studio/growthkit/xref"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check xref offsets and trailer of generated documents",
		ArgsUsage: "<file.pdf | output-dir>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return goerr.New("nothing to verify")
			}
			failed := 0
			for _, arg := range cmd.Args().Slice() {
				failed += verifyPath(ctx, cmd.Root().Writer, arg)
			}
			if failed > 0 {
				return goerr.New("verification failed", goerr.V("failed", failed))
			}
			return nil
		},
	}
}

// verifyPath checks one document, or every document listed in an output
// directory's README and manifest, and returns the number of failures.
func verifyPath(ctx context.Context, w io.Writer, path string) int {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
		return 1
	}
	if !info.IsDir() {
		if _, err := verifyFile(ctx, w, path); err != nil {
			return 1
		}
		return 0
	}

	readme, err := os.ReadFile(filepath.Join(path, manifest.ReadmeName))
	if err != nil {
		fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
		return 1
	}
	digests := map[string]string{}
	if f, err := os.Open(filepath.Join(path, manifest.JSONName)); err == nil {
		doc, err := manifest.ReadJSON(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", manifest.JSONName, err)
			return 1
		}
		for _, e := range doc.Entries {
			digests[e.Filename] = e.Digest
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "FAIL %s: %v\n", manifest.JSONName, err)
		return 1
	}

	failed := 0
	for _, e := range manifest.ParseIndex(string(readme)) {
		file := filepath.Join(path, e.Filename)
		data, err := verifyFile(ctx, w, file)
		if err != nil {
			failed++
			continue
		}
		if want, ok := digests[e.Filename]; ok && want != manifest.Digest(data) {
			fmt.Fprintf(w, "FAIL %s: digest mismatch\n", file)
			failed++
		}
	}
	return failed
}

func verifyFile(ctx context.Context, w io.Writer, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
		return nil, err
	}
	report, err := xref.Verify(ctx, data)
	if err != nil {
		fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
		return nil, err
	}
	fmt.Fprintf(w, "ok   %s objects=%d pages=%d links=%d\n", path, report.Objects, report.Pages, report.Links)
	return data, nil
}
