package xref

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/nexgen-studio/growthkit/ir/raw"
)

var ErrMismatch = errors.New("xref does not match document body")

// Report summarizes a verified document.
type Report struct {
	Objects int
	Size    int
	Root    raw.ObjectRef
	Streams int
	Pages   int
	Links   int
}

// Verify checks that every in-use xref entry points exactly at its
// "<num> <gen> obj" header, that /Size matches the table, and that the root
// object is a catalog.
func Verify(ctx context.Context, data []byte) (*Report, error) {
	tbl, err := NewResolver().Resolve(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if tbl.Size() != tbl.Entries() {
		return nil, goerr.Wrap(ErrMismatch, "trailer size differs from xref rows",
			goerr.V("size", tbl.Size()), goerr.V("rows", tbl.Entries()))
	}

	headers, err := Scan(ctx, data[:tbl.Offset()])
	if err != nil {
		return nil, err
	}
	objects := tbl.Objects()
	if len(objects) != len(headers) {
		return nil, goerr.Wrap(ErrMismatch, "object count differs from xref entries",
			goerr.V("objects", len(headers)), goerr.V("entries", len(objects)))
	}
	for _, num := range objects {
		off, gen, _ := tbl.Lookup(num)
		want := fmt.Sprintf("%d %d obj", num, gen)
		if off < 0 || off >= int64(len(data)) || !bytes.HasPrefix(data[off:], []byte(want)) {
			return nil, goerr.Wrap(ErrMismatch, "xref offset does not point at object header",
				goerr.V("object", num), goerr.V("offset", off), goerr.V("actual", headers[num]))
		}
	}

	root := tbl.Root()
	rootOff, _, ok := tbl.Lookup(root.Num)
	if !ok {
		return nil, goerr.Wrap(ErrMismatch, "root object missing from xref", goerr.V("root", root.Num))
	}
	if !bytes.Contains(objectBody(data, rootOff), []byte("/Type /Catalog")) {
		return nil, goerr.Wrap(ErrMismatch, "root object is not a catalog", goerr.V("root", root.Num))
	}

	body := data[:tbl.Offset()]
	return &Report{
		Objects: len(objects),
		Size:    tbl.Size(),
		Root:    root,
		Streams: bytes.Count(body, []byte("\nstream\n")),
		Pages:   bytes.Count(body, []byte("/Type /Page ")),
		Links:   bytes.Count(body, []byte("/Subtype /Link")),
	}, nil
}

func objectBody(data []byte, off int64) []byte {
	rest := data[off:]
	if end := bytes.Index(rest, []byte("endobj")); end >= 0 {
		return rest[:end]
	}
	return rest
}
