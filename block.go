package vtl

import (
	"io"
	"regexp"
	"strings"
)

// This file implements spec.md §4.3's Text, Placeholder, Comment, Block
// and TemplateBody, grounded on airspeed.py's Text / Placeholder /
// Comment / Block / TemplateBody classes.

var (
	reCommentLine  = regexp.MustCompile(`^##[^\n\r]*(?:\r?\n)?`)
	reCommentBlock = regexp.MustCompile(`(?s)^#\*.*?\*#`)

	// The rePlaceholder* patterns match the pieces around a placeholder's
	// variable expression: the silent "$!" prefix, the opening "{" and the
	// closing "}" of the brace form. The silent prefix is matched
	// separately so evaluation can suppress the fallback literal text.
	rePlaceholderSilent = regexp.MustCompile(`^\$!`)
	rePlaceholderBrace  = regexp.MustCompile(`^\{`)
	rePlaceholderEnd    = regexp.MustCompile(`^\}`)
)

// Text is a run of template source copied verbatim to the output.
type Text struct {
	Value string
}

// startsPlaceholder reports whether b, following an unescaped '$', begins
// a Placeholder: a name char, '{' (brace form) or '!' (silent form).
func startsPlaceholder(b byte) bool {
	return b == '_' || b == '{' || b == '!' || ('A' <= b && b <= 'Z') || ('a' <= b && b <= 'z')
}

// startsDirective reports whether b, following an unescaped '#', begins a
// directive or Comment: a name char, '*' (block comment) or another '#'
// (line comment).
func startsDirective(b byte) bool {
	return b == '_' || b == '*' || b == '#' || ('A' <= b && b <= 'Z') || ('a' <= b && b <= 'z')
}

// parseText consumes everything up to the next unescaped special-start
// position (or EOF), grounded on airspeed.py's Text.PLAIN lookahead
// assertion together with its ESCAPED_CHAR handling: "\$", "\#" and "\\"
// are consumed as a unit and reduce to "$", "#" and a single "\" respectively
// (spec.md §4.3, SPEC_FULL.md §6); any other backslash is literal. A bare
// '$'/'#' not followed by a construct-starting character is likewise
// left as plain text, matching Text.PLAIN's lookahead.
func parseText(c *cursor) (node, error) {
	rest := c.rest()
	var b strings.Builder
	i := 0
	for i < len(rest) {
		if rest[i] == '\\' && i+1 < len(rest) {
			switch rest[i+1] {
			case '$', '#', '\\':
				b.WriteByte(rest[i+1])
				i += 2
				continue
			}
		}
		if rest[i] == '$' && i+1 < len(rest) && startsPlaceholder(rest[i+1]) {
			break
		}
		if rest[i] == '#' && i+1 < len(rest) && startsDirective(rest[i+1]) {
			break
		}
		b.WriteByte(rest[i])
		i++
	}
	if i == 0 {
		return nil, errNoMatch
	}
	c.at += i
	return &Text{Value: b.String()}, nil
}

func (t *Text) eval(_ *Namespace, out io.Writer, _ Loader) error {
	_, err := io.WriteString(out, t.Value)
	return err
}

// Comment is "## line comment" or "#* block comment *#"; it contributes
// nothing to the rendered output (spec.md §4.3).
type Comment struct{}

func parseComment(c *cursor) (node, error) {
	if _, ok := c.nextMatch(reCommentBlock); ok {
		return &Comment{}, nil
	}
	if _, ok := c.nextMatch(reCommentLine); ok {
		return &Comment{}, nil
	}
	return nil, errNoMatch
}

func (c *Comment) eval(_ *Namespace, _ io.Writer, _ Loader) error {
	return nil
}

// Placeholder is a '$'-prefixed reference written to the output: "$name",
// "$name.part", "$name(args)", or the brace form "${name.part}". The
// silent form "$!name" suppresses the literal "$!name" fallback when the
// reference resolves to nil; the plain form falls back to the original
// source text instead (spec.md §4.2/§4.3).
type Placeholder struct {
	Expression *VariableExpression
	Silent     bool
	RawText    string
}

func parsePlaceholder(c *cursor) (node, error) {
	start := c.at
	silent := c.optionalMatch(rePlaceholderSilent)
	if !silent {
		if _, err := c.identityMatch(reLeadingDollar); err != nil {
			return nil, err
		}
	}
	braced := c.optionalMatch(rePlaceholderBrace)
	v, err := nextElement(c, parseVariableExpression)
	if err != nil {
		if isNoMatch(err) {
			c.at = start
			return nil, errNoMatch
		}
		return nil, err
	}
	if braced {
		if _, err := c.requireMatch(rePlaceholderEnd, "}"); err != nil {
			return nil, err
		}
	}
	return &Placeholder{Expression: v.(*VariableExpression), Silent: silent, RawText: c.text[start:c.at]}, nil
}

func (p *Placeholder) eval(ns *Namespace, out io.Writer, _ Loader) error {
	v, err := p.Expression.calculate(ns)
	if err != nil {
		return err
	}
	if v == nil {
		if p.Silent {
			return nil
		}
		_, err := io.WriteString(out, p.RawText)
		return err
	}
	_, err = io.WriteString(out, Stringify(v))
	return err
}

// blockElement tries, in order, every stmt production valid inside a
// Block: Comment, directives, Placeholder, then Text as the catch-all.
// Directives that can close a Block (#end, #else, #elseif) are excluded:
// Block stops as soon as none of these candidates match, leaving the
// closing keyword for the enclosing directive parser to consume.
func blockElement(c *cursor) (node, error) {
	return nextElement(c,
		parseComment,
		parseSetDirective,
		parseIfDirective,
		parseForeachDirective,
		parseMacroDefinition,
		parseIncludeDirective,
		parseMacroCall,
		parsePlaceholder,
		parseText,
	)
}

// Block is a sequence of statements, stopping at EOF or at the first
// token that does not match any blockElement alternative — in practice
// the closing "#end"/"#else"/"#elseif" of the directive that opened this
// Block (spec.md §4.3).
type Block struct {
	Statements []stmt
}

func parseBlock(c *cursor) (node, error) {
	b := &Block{}
	for !c.eof() {
		el, err := nextElement(c, blockElement)
		if err != nil {
			if isNoMatch(err) {
				break
			}
			return nil, err
		}
		b.Statements = append(b.Statements, el.(stmt))
	}
	return b, nil
}

func (b *Block) eval(ns *Namespace, out io.Writer, ldr Loader) error {
	for _, s := range b.Statements {
		if err := s.eval(ns, out, ldr); err != nil {
			return err
		}
	}
	return nil
}

// TemplateBody is the top-level production: a Block evaluated in a fresh
// child scope of the caller's namespace, so template-level #set/#macro
// writes never leak back into the caller's own map (spec.md §4.3, §4.4).
type TemplateBody struct {
	Block *Block
}

func parseTemplateBody(c *cursor) (node, error) {
	b, err := nextElement(c, parseBlock)
	if err != nil {
		return nil, err
	}
	if !c.eof() {
		return nil, c.syntaxError("end of template")
	}
	return &TemplateBody{Block: b.(*Block)}, nil
}

func (t *TemplateBody) eval(ns *Namespace, out io.Writer, ldr Loader) error {
	return t.Block.eval(ns.child(), out, ldr)
}
