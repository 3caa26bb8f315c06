package vtl

import "regexp"

// cursor is a position into a shared text buffer, shared by every parse
// rule in a single Template's AST. Grounded on airspeed's _Element, which
// carries the same (full_text, end) pair through every rule; this module
// pulls it out into its own value so parse rules don't each need their own
// copy of the source string.
//
// Every rule here follows the same convention as spec.md §4.1: the regex
// is anchored at the rule's current position (built with a leading `\A`
// equivalent via regexp.FindStringSubmatchIndex's `anchored` semantics —
// Go's regexp has no "match at offset" primitive like Python's
// re.Pattern.match(text, pos), so each pattern is compiled with a literal
// `^` anchor and matched against text[at:]) and there is no final "rest of
// the text" capture group; the cursor advances to the end of the overall
// match, not to a "rest of text" group, since Go's regexp already reports
// the match end directly.
//
// Use of regexp (stdlib) here over the teacher's own github.com/hucsmn/peg
// pattern-combinator engine is deliberate: peg.Pattern builds a generic,
// backtracking parsing-expression-grammar tree with its own capture
// stack, named groups, call-stack limits and left-recursion guards — a
// second, heavier grammar-construction engine that VTL's own small,
// fixed set of cursor rules doesn't need. spec.md §9 itself describes the
// design as "regex-driven parsing" with "the final group always captures
// the rest of the text" — precisely Go's regexp.Regexp matched anchored
// at a cursor. See DESIGN.md for the full justification.
type cursor struct {
	text string
	at   int
}

func newCursor(text string) *cursor {
	return &cursor{text: text, at: 0}
}

func (c *cursor) rest() string {
	return c.text[c.at:]
}

func (c *cursor) eof() bool {
	return c.at >= len(c.text)
}

// identityMatch requires pat to match at the cursor; on success the cursor
// advances past the match and the submatch groups (excluding group 0) are
// returned. On failure it raises errNoMatch, the signal the backtracking
// element dispatcher (nextElement) catches.
func (c *cursor) identityMatch(pat *regexp.Regexp) ([]string, error) {
	loc := pat.FindStringSubmatchIndex(c.rest())
	if loc == nil {
		return nil, errNoMatch
	}
	groups := submatches(c.rest(), loc)
	c.at += loc[1]
	return groups, nil
}

// nextMatch is identityMatch without raising on failure: it returns
// (nil, false) instead.
func (c *cursor) nextMatch(pat *regexp.Regexp) ([]string, bool) {
	loc := pat.FindStringSubmatchIndex(c.rest())
	if loc == nil {
		return nil, false
	}
	groups := submatches(c.rest(), loc)
	c.at += loc[1]
	return groups, true
}

// optionalMatch is nextMatch discarding the captured groups, returning
// only whether it matched.
func (c *cursor) optionalMatch(pat *regexp.Regexp) bool {
	_, ok := c.nextMatch(pat)
	return ok
}

// requireMatch is identityMatch, except failure raises a *SyntaxError
// naming what was expected instead of errNoMatch.
func (c *cursor) requireMatch(pat *regexp.Regexp, expected string) ([]string, error) {
	groups, err := c.identityMatch(pat)
	if err != nil {
		return nil, c.syntaxError(expected)
	}
	return groups, nil
}

func (c *cursor) syntaxError(expected string) *SyntaxError {
	return newSyntaxError(c.text, c.at, expected)
}

// parser is a constructor that attempts to parse its grammar rule at the
// cursor, returning errNoMatch (not wrapped) if it does not apply.
type parser func(c *cursor) (node, error)

// nextElement tries each parser in order; the first that does not raise
// errNoMatch wins and the cursor has already been advanced past it by the
// time it returns. If every candidate raises errNoMatch, nextElement
// raises errNoMatch too.
func nextElement(c *cursor, candidates ...parser) (node, error) {
	start := c.at
	for _, p := range candidates {
		n, err := p(c)
		if err == nil {
			return n, nil
		}
		if !isNoMatch(err) {
			return nil, err
		}
		c.at = start
	}
	return nil, errNoMatch
}

// requireNextElement is nextElement, except failure raises a *SyntaxError
// naming expected instead of errNoMatch.
func requireNextElement(c *cursor, expected string, candidates ...parser) (node, error) {
	n, err := nextElement(c, candidates...)
	if err != nil {
		if isNoMatch(err) {
			return nil, c.syntaxError(expected)
		}
		return nil, err
	}
	return n, nil
}

// submatches extracts FindStringSubmatchIndex's capture groups (excluding
// the whole-match group 0) as strings, using "" for an unmatched optional
// group rather than panicking on a -1 index pair.
func submatches(s string, loc []int) []string {
	n := len(loc)/2 - 1
	out := make([]string, n)
	for i := 0; i < n; i++ {
		lo, hi := loc[2+2*i], loc[3+2*i]
		if lo < 0 || hi < 0 {
			out[i] = ""
			continue
		}
		out[i] = s[lo:hi]
	}
	return out
}
