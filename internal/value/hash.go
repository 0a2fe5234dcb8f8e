package value

import (
	"fmt"
	"math"
	"strconv"
)

// HashKey returns a string digest such that Eql(a,b) implies
// HashKey(a) == HashKey(b) (spec §8 property 2), used both as the bucket
// key for Map/Set's index and as the value returned by the `hash` builtin
// (after being folded to a number by the caller).
func HashKey(v Value) string {
	switch x := v.(type) {
	case Nil:
		return "n:"
	case Bool:
		if x {
			return "b:t"
		}
		return "b:f"
	case Int:
		return "#:" + strconv.FormatFloat(float64(x), 'g', -1, 64)
	case Float:
		return "#:" + strconv.FormatFloat(float64(x), 'g', -1, 64)
	case Char:
		return "c:" + string(rune(x))
	case Str:
		return "s:" + string(x)
	case Keyword:
		return "k:" + x.NS + "/" + x.Name
	case Symbol:
		return "y:" + x.NS + "/" + x.Name
	case *List, *Vector, *Cons, *LazySeq, *vectorSeq, *mapSeq, *setSeq, *strSeq:
		// One tag for every sequential kind, since Eql compares them
		// element-wise across kinds.
		return seqHashKey("S", x)
	case *Map:
		sum := uint64(0)
		for _, e := range x.entries {
			sum += fnvString(HashKey(e.Key)) * 31 + fnvString(HashKey(e.Val))
		}
		return "M:" + strconv.FormatUint(sum, 36)
	case *Set:
		sum := uint64(0)
		for _, m := range x.members {
			sum += fnvString(HashKey(m))
		}
		return "T:" + strconv.FormatUint(sum, 36)
	default:
		return fmt.Sprintf("r:%p", v)
	}
}

func seqHashKey(tag string, v Value) string {
	out := tag + ":"
	cur := v
	for {
		s := Seq(cur)
		if _, ok := s.(Nil); ok {
			return out
		}
		sq := s.(Seqer)
		out += HashKey(sq.First()) + "|"
		cur = sq.Rest()
	}
}

func fnvString(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

// Hash returns the integer hash used by the `hash` builtin, derived from
// HashKey so it agrees with Eql.
func Hash(v Value) int64 {
	if f, ok := v.(Float); ok && math.IsNaN(float64(f)) {
		return 0
	}
	return int64(fnvString(HashKey(v)))
}
