package contentstream

import "strings"

// Operators returns the operator keywords of a content stream in order.
// Literal strings are skipped as single operands, including escaped and
// nested parentheses.
func Operators(src []byte) []string {
	var out []string
	for _, tok := range tokenize(string(src)) {
		if isOperator(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// tokenize splits a content stream into operands and operators.
func tokenize(src string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case ch == '(':
			flush()
			depth := 0
			j := i
			for ; j < len(src); j++ {
				if src[j] == '\\' {
					j++
					continue
				}
				if src[j] == '(' {
					depth++
				} else if src[j] == ')' {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			if j >= len(src) {
				j = len(src) - 1
			}
			out = append(out, src[i:j+1])
			i = j
		case ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t':
			flush()
		case ch == '[' || ch == ']':
			flush()
			out = append(out, string(ch))
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return out
}

func isOperator(tok string) bool {
	if tok == "" || tok == "[" || tok == "]" {
		return false
	}
	c := tok[0]
	if c == '(' || c == '/' || c == '<' || c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9') {
		return false
	}
	return true
}
