package raw

import (
	"bytes"
	"strconv"
	"strings"
)

var literalEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

// EscapeString escapes the characters that would terminate or corrupt a
// literal string. Other bytes pass through unchanged.
func EscapeString(s string) string { return literalEscaper.Replace(s) }

// Serialize renders an object body in PDF syntax. Dictionaries are written
// with spaces around entries, reals with two decimals.
func Serialize(o Object) []byte {
	var b bytes.Buffer
	writeObject(&b, o)
	return b.Bytes()
}

func writeObject(b *bytes.Buffer, o Object) {
	switch v := o.(type) {
	case NameObj:
		b.WriteByte('/')
		b.WriteString(v.Value())
	case NumberObj:
		if v.IsInteger() {
			b.WriteString(strconv.FormatInt(v.Int(), 10))
		} else {
			b.WriteString(strconv.FormatFloat(v.Float(), 'f', 2, 64))
		}
	case BoolObj:
		b.WriteString(strconv.FormatBool(v.Value()))
	case NullObj:
		b.WriteString("null")
	case StringObj:
		b.WriteByte('(')
		b.WriteString(EscapeString(string(v.Value())))
		b.WriteByte(')')
	case *ArrayObj:
		b.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeObject(b, it)
		}
		b.WriteByte(']')
	case *DictObj:
		b.WriteString("<<")
		for _, k := range v.keys {
			b.WriteString(" /")
			b.WriteString(k)
			b.WriteByte(' ')
			writeObject(b, v.KV[k])
		}
		b.WriteString(" >>")
	case *StreamObj:
		writeObject(b, v.Dict)
		b.WriteString("\nstream\n")
		b.Write(v.Data)
		b.WriteString("\nendstream")
	case RefObj:
		b.WriteString(v.Ref().String())
	default:
		b.WriteString("null")
	}
}
