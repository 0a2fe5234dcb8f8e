package value

import (
	"math"
	"strconv"
	"strings"
)

// PrStr renders v the way `pr-str` does: readably, with strings/chars
// escaped so Read(PrStr(v)) == v for every value not containing
// functions/atoms/lazy-seqs (spec §8 property 1).
func PrStr(v Value) string {
	var b strings.Builder
	writeValue(&b, v, true)
	return b.String()
}

// PrintStr renders v the way `print-str`/`println` do: human readable,
// strings/chars unescaped.
func PrintStr(v Value) string {
	var b strings.Builder
	writeValue(&b, v, false)
	return b.String()
}

func writeValue(b *strings.Builder, v Value, readably bool) {
	switch x := v.(type) {
	case Nil:
		b.WriteString("nil")
	case Bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case Float:
		b.WriteString(formatFloat(float64(x)))
	case Char:
		if readably {
			b.WriteString(escapeChar(rune(x)))
		} else {
			b.WriteRune(rune(x))
		}
	case Str:
		if readably {
			b.WriteByte('"')
			b.WriteString(escapeString(string(x)))
			b.WriteByte('"')
		} else {
			b.WriteString(string(x))
		}
	case Keyword:
		b.WriteString(x.String())
	case Symbol:
		b.WriteString(x.String())
	case *List:
		b.WriteByte('(')
		writeSeqItems(b, x, readably)
		b.WriteByte(')')
	case *Vector:
		b.WriteByte('[')
		for i, it := range x.items {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeValue(b, it, readably)
		}
		b.WriteByte(']')
	case *Map:
		b.WriteByte('{')
		for i, e := range x.entries {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeValue(b, e.Key, readably)
			b.WriteByte(' ')
			writeValue(b, e.Val, readably)
		}
		b.WriteByte('}')
	case *Set:
		b.WriteString("#{")
		for i, m := range x.members {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeValue(b, m, readably)
		}
		b.WriteByte('}')
	case *Cons:
		b.WriteByte('(')
		writeSeqItems(b, x, readably)
		b.WriteByte(')')
	case *LazySeq:
		b.WriteByte('(')
		writeSeqItems(b, x, readably)
		b.WriteByte(')')
	case *Fn:
		b.WriteString("#function[")
		if x.Name != "" {
			b.WriteString(x.Name)
		} else {
			b.WriteString("anonymous")
		}
		b.WriteByte(']')
	case *Builtin:
		b.WriteString("#function[" + x.Name + "]")
	case *Atom:
		b.WriteString("#atom[")
		writeValue(b, x.val, readably)
		b.WriteByte(']')
	case *Volatile:
		b.WriteString("#volatile[")
		writeValue(b, x.val, readably)
		b.WriteByte(']')
	case *Delay:
		b.WriteString("#delay[...]")
	case *Regex:
		b.WriteString("#\"" + x.Source + "\"")
	case VarRef:
		b.WriteString("#'" + x.Target.QualifiedName())
	case *Protocol:
		b.WriteString("#protocol[" + x.Name + "]")
	case *ProtocolFn:
		b.WriteString("#function[" + x.Proto.Name + "/" + x.Method + "]")
	case *MultiFn:
		b.WriteString("#multifn[" + x.Name + "]")
	case *Reduced:
		b.WriteString("#reduced[")
		writeValue(b, x.Val, readably)
		b.WriteByte(']')
	case *ReifyInstance:
		b.WriteString("#reify[" + x.TypeKey + "]")
	default:
		b.WriteString("#unknown[" + TypeName(v) + "]")
	}
}

func writeSeqItems(b *strings.Builder, v Value, readably bool) {
	first := true
	cur := v
	for {
		s := Seq(cur)
		if _, ok := s.(Nil); ok {
			return
		}
		sq := s.(Seqer)
		if !first {
			b.WriteByte(' ')
		}
		first = false
		writeValue(b, sq.First(), readably)
		cur = sq.Rest()
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "##Inf"
	case math.IsInf(f, -1):
		return "##-Inf"
	case math.IsNaN(f):
		return "##NaN"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func escapeChar(r rune) string {
	switch r {
	case '\n':
		return "\\newline"
	case ' ':
		return "\\space"
	case '\t':
		return "\\tab"
	case '\r':
		return "\\return"
	case '\b':
		return "\\backspace"
	case '\f':
		return "\\formfeed"
	default:
		return "\\" + string(r)
	}
}

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
