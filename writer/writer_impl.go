package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/m-mizutani/goerr/v2"

	"github.com/nexgen-studio/growthkit/ir/raw"
)

// Bytes finalizes the document and returns its serialized form. It may be
// called once; later calls return ErrSerialized.
func (d *Document) Bytes() ([]byte, error) {
	if d.serialized {
		return nil, goerr.Wrap(ErrSerialized, "cannot serialize twice")
	}
	d.serialized = true
	catalogRef := d.materialize()
	return d.emit(catalogRef), nil
}

// WriteTo finalizes the document and writes it to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), goerr.Wrap(err, "failed to write document")
	}
	return int64(n), nil
}

// materialize appends page objects, the page tree and the catalog, in that
// order. Ids are reserved up front so no body needs patching afterwards.
func (d *Document) materialize() raw.ObjectRef {
	first := len(d.objects) + 1
	pagesRef := raw.ObjectRef{Num: first + len(d.pages)}

	kids := raw.NewArray()
	for _, p := range d.pages {
		ref := d.AddObject(d.pageDict(p, pagesRef))
		kids.Append(raw.Ref(ref.Num, ref.Gen))
	}

	pages := raw.Dict()
	pages.Set("Type", raw.NameLiteral("Pages"))
	pages.Set("Kids", kids)
	pages.Set("Count", raw.NumberInt(int64(len(d.pages))))
	d.AddObject(pages)

	catalog := raw.Dict()
	catalog.Set("Type", raw.NameLiteral("Catalog"))
	catalog.Set("Pages", raw.Ref(pagesRef.Num, pagesRef.Gen))
	return d.AddObject(catalog)
}

func (d *Document) pageDict(p pageDescriptor, parent raw.ObjectRef) *raw.DictObj {
	fonts := raw.Dict()
	fonts.Set("F1", raw.Ref(d.fontRegular.Num, d.fontRegular.Gen))
	fonts.Set("F2", raw.Ref(d.fontBold.Num, d.fontBold.Gen))
	resources := raw.Dict()
	resources.Set("Font", fonts)

	page := raw.Dict()
	page.Set("Type", raw.NameLiteral("Page"))
	page.Set("Parent", raw.Ref(parent.Num, parent.Gen))
	page.Set("MediaBox", raw.NewArray(raw.NumberInt(0), raw.NumberInt(0), raw.Number(p.width), raw.Number(p.height)))
	page.Set("Resources", resources)
	page.Set("Contents", raw.Ref(p.content.Num, p.content.Gen))
	if len(p.annots) > 0 {
		annots := raw.NewArray()
		for _, a := range p.annots {
			annots.Append(raw.Ref(a.Num, a.Gen))
		}
		page.Set("Annots", annots)
	}
	return page
}

// emit writes header, objects, the classic xref table and the trailer.
// offsets[i] is the position of the "i 0 obj" line; entry 0 is the free head.
func (d *Document) emit(catalogRef raw.ObjectRef) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-" + string(d.cfg.Version) + "\n")

	offsets := make([]int, len(d.objects)+1)
	for i, obj := range d.objects {
		num := i + 1
		offsets[num] = buf.Len()
		buf.WriteString(fmt.Sprintf("%d 0 obj\n", num))
		buf.Write(raw.Serialize(obj))
		buf.WriteString("\nendobj\n")
	}

	size := len(d.objects) + 1
	xrefOffset := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", size))
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i < size; i++ {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}

	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root %d 0 R >>\n", size, catalogRef.Num))
	buf.WriteString(fmt.Sprintf("startxref\n%d\n%%%%EOF\n", xrefOffset))
	return buf.Bytes()
}
