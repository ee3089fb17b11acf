package idgen

import (
	"strconv"
	"strings"
)

// SuffixLength is the length of the random disambiguator in generated ids.
const SuffixLength = 5

// Sequence hands out ids for one document. It is not safe for concurrent
// use; a document build owns its Sequence for the duration of one walk.
//
// Generated ids have the form prefix-kind-ordinal-suffix, e.g.
// "sdom-btn-3-k2x9a". Explicit ids are returned verbatim on first use and
// as value-2, value-3, ... for later duplicates.
type Sequence struct {
	prefix  string
	rnd     Generator
	ordinal int
	used    map[string]struct{}
	claims  map[string]int
}

// NewSequence returns a Sequence. A nil rnd defaults to NanoID(SuffixLength).
func NewSequence(prefix string, rnd Generator) *Sequence {
	if rnd == nil {
		rnd = NanoID(SuffixLength)
	}
	return &Sequence{
		prefix: prefix,
		rnd:    rnd,
		used:   make(map[string]struct{}),
		claims: make(map[string]int),
	}
}

// Next returns a fresh generated id for the given kind.
func (s *Sequence) Next(kind string) string {
	for {
		s.ordinal++
		var b strings.Builder
		if s.prefix != "" {
			b.WriteString(s.prefix)
			b.WriteByte('-')
		}
		if kind != "" {
			b.WriteString(kind)
			b.WriteByte('-')
		}
		b.WriteString(strconv.Itoa(s.ordinal))
		if suffix := s.rnd(); suffix != "" {
			b.WriteByte('-')
			b.WriteString(suffix)
		}
		id := b.String()
		if _, taken := s.used[id]; !taken {
			s.used[id] = struct{}{}
			return id
		}
	}
}

// Claim registers an explicit id. The first claim of a value returns it
// unchanged; each later claim returns value-N with the smallest free N >= 2
// and reports duplicate. A first claim that collides with an id already
// handed out is suffixed the same way but is not a duplicate.
func (s *Sequence) Claim(explicit string) (id string, duplicate bool) {
	s.claims[explicit]++
	count := s.claims[explicit]
	duplicate = count > 1
	if !duplicate {
		if _, taken := s.used[explicit]; !taken {
			s.used[explicit] = struct{}{}
			return explicit, false
		}
	}
	for i := max(2, count); ; i++ {
		id = explicit + "-" + strconv.Itoa(i)
		if _, taken := s.used[id]; !taken {
			s.used[id] = struct{}{}
			return id, duplicate
		}
	}
}

// Len returns the number of ids handed out.
func (s *Sequence) Len() int { return len(s.used) }
