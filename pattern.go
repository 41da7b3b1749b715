package sigpatch

import (
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

// WildcardToken matches any byte in a textual pattern.
const WildcardToken = "??"

// Matcher is one position of a compiled pattern.
type Matcher struct {
	Value    byte
	Wildcard bool
}

// Match reports whether b satisfies the matcher.
func (m Matcher) Match(b byte) bool {
	return m.Wildcard || m.Value == b
}

// Pattern is a compiled byte pattern. The zero value is empty and matches
// nothing.
type Pattern struct {
	text     string
	matchers []Matcher
}

// CompilePattern parses a textual pattern made of hex byte pairs and "??"
// wildcards. Pairs may be separated by whitespace or written back to back,
// but a pair cannot be split: "8D75" and "8D 75" are the same pattern while
// "8 D 7 5" is rejected. Error positions are byte offsets into text.
func CompilePattern(text string) (Pattern, error) {
	var matchers []Matcher
	for i := 0; i < len(text); {
		if isPatternSpace(text[i]) {
			i++
			continue
		}

		start := i
		for i < len(text) && !isPatternSpace(text[i]) {
			i++
		}
		tok := text[start:i]
		if len(tok)%2 != 0 {
			return Pattern{}, &PatternError{Pattern: text, Pos: start, Reason: "odd number of digits in " + tok}
		}

		for j := 0; j < len(tok); j += 2 {
			pair := tok[j : j+2]
			if pair == WildcardToken {
				matchers = append(matchers, Matcher{Wildcard: true})
				continue
			}

			b, err := hex.DecodeString(pair)
			if err != nil {
				return Pattern{}, &PatternError{Pattern: text, Pos: start + j, Reason: "bad byte " + pair}
			}
			matchers = append(matchers, Matcher{Value: b[0]})
		}
	}

	if len(matchers) == 0 {
		return Pattern{}, &PatternError{Pattern: text, Pos: -1, Reason: "empty pattern"}
	}
	return Pattern{text: text, matchers: matchers}, nil
}

func isPatternSpace(c byte) bool {
	return c < utf8.RuneSelf && unicode.IsSpace(rune(c))
}

// MustCompilePattern is like CompilePattern but panics on error. It is meant
// for patterns that are part of the source.
func MustCompilePattern(text string) Pattern {
	p, err := CompilePattern(text)
	if err != nil {
		panic(err)
	}
	return p
}

// PatternFromBytes builds an exact pattern with no wildcards.
func PatternFromBytes(b []byte) Pattern {
	matchers := make([]Matcher, len(b))
	for i, v := range b {
		matchers[i] = Matcher{Value: v}
	}
	p := Pattern{matchers: matchers}
	p.text = p.String()
	return p
}

// Len is the number of bytes the pattern spans.
func (p Pattern) Len() int {
	return len(p.matchers)
}

// At returns the matcher at position i.
func (p Pattern) At(i int) Matcher {
	return p.matchers[i]
}

// Matchers returns a copy of the compiled matchers.
func (p Pattern) Matchers() []Matcher {
	m := make([]Matcher, len(p.matchers))
	copy(m, p.matchers)
	return m
}

// MatchAt reports whether the pattern matches data at offset off.
func (p Pattern) MatchAt(data []byte, off int) bool {
	if len(p.matchers) == 0 || off < 0 || off+len(p.matchers) > len(data) {
		return false
	}

	for k, m := range p.matchers {
		if !m.Match(data[off+k]) {
			return false
		}
	}
	return true
}

// Source returns the text the pattern was compiled from.
func (p Pattern) Source() string {
	return p.text
}

// String renders the pattern in canonical form, e.g. "8D 75 ?? E8".
func (p Pattern) String() string {
	parts := make([]string, len(p.matchers))
	for i, m := range p.matchers {
		if m.Wildcard {
			parts[i] = WildcardToken
		} else {
			parts[i] = strings.ToUpper(hex.EncodeToString([]byte{m.Value}))
		}
	}
	return strings.Join(parts, " ")
}
