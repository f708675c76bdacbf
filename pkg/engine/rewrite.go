package engine

import "strings"

// rewriteSource turns krado script text into source zygomys accepts.
//
//	:max-area      -> ":max_area"    keywords become string literals
//	mesh-curve     -> mesh_curve     kebab-case symbols become snake_case
//	; comment      -> // comment
//
// String literals pass through untouched and := is kept. Keyword names are
// folded the same way as symbols, so :max-area reaches a builtin as the
// scheme parameter max_area.
func rewriteSource(src string) string {
	r := &rewriter{src: src}
	r.out.Grow(len(src) + len(src)/4)
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == '"' || c == '`':
			r.quoted(c)
		case c == ';':
			r.comment()
		case c == ':' && r.at(r.pos+1) == '=':
			r.copy(2)
		case c == ':' && isLetter(r.at(r.pos+1)):
			r.keyword()
		case isLetter(c):
			r.symbol()
		case isDigit(c):
			r.number()
		default:
			r.copy(1)
		}
	}
	return r.out.String()
}

type rewriter struct {
	src string
	pos int
	out strings.Builder
}

func (r *rewriter) at(i int) byte {
	if i < len(r.src) {
		return r.src[i]
	}
	return 0
}

func (r *rewriter) copy(n int) {
	end := min(r.pos+n, len(r.src))
	r.out.WriteString(r.src[r.pos:end])
	r.pos = end
}

// quoted copies a string literal. Backslash escapes apply inside double
// quotes only.
func (r *rewriter) quoted(q byte) {
	i := r.pos + 1
	for i < len(r.src) && r.src[i] != q {
		if q == '"' && r.src[i] == '\\' {
			i++
		}
		i++
	}
	r.copy(i + 1 - r.pos)
}

func (r *rewriter) comment() {
	r.out.WriteString("//")
	for r.at(r.pos) == ';' {
		r.pos++
	}
	end := strings.IndexByte(r.src[r.pos:], '\n')
	if end < 0 {
		end = len(r.src) - r.pos
	}
	r.copy(end)
}

func (r *rewriter) keyword() {
	i := r.pos + 1
	for i < len(r.src) && (isIdentChar(r.src[i]) || r.src[i] == '-') {
		i++
	}
	r.out.WriteString(`"` + keywordMark)
	r.out.WriteString(strings.ReplaceAll(r.src[r.pos+1:i], "-", "_"))
	r.out.WriteByte('"')
	r.pos = i
}

// symbol folds a hyphen to an underscore only when a letter follows it, so
// (- a b) and x-1 keep their minus.
func (r *rewriter) symbol() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case isIdentChar(c):
			r.out.WriteByte(c)
		case c == '-' && isLetter(r.at(r.pos+1)):
			r.out.WriteByte('_')
		default:
			return
		}
		r.pos++
	}
}

// number copies a numeric literal whole so an exponent like 1e-3 is never
// read as a symbol.
func (r *rewriter) number() {
	i := r.pos
	for i < len(r.src) {
		c := r.src[i]
		if isIdentChar(c) || c == '.' {
			i++
			continue
		}
		if (c == '-' || c == '+') && (r.src[i-1] == 'e' || r.src[i-1] == 'E') {
			i++
			continue
		}
		break
	}
	r.copy(i - r.pos)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
