package vtl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTextStopsAtPlaceholder(t *testing.T) {
	c := newCursor("abc$name")
	n, err := parseText(c)
	require.NoError(t, err)
	assert.Equal(t, "abc", n.(*Text).Value)
	assert.Equal(t, 3, c.at)
}

func TestParseTextKeepsBareDollarAndHash(t *testing.T) {
	c := newCursor("price: $5, ref #1234 done")
	n, err := parseText(c)
	require.NoError(t, err)
	assert.Equal(t, "price: $5, ref #1234 done", n.(*Text).Value)
}

func TestParseTextStopsAtDirective(t *testing.T) {
	c := newCursor("abc#if($x)")
	n, err := parseText(c)
	require.NoError(t, err)
	assert.Equal(t, "abc", n.(*Text).Value)
}

func TestMergeLiteralDollarAndHashPassThrough(t *testing.T) {
	assert.Equal(t, "cost: $5 #tag", merge(t, "cost: $5 #tag", nil))
}

func TestParseTextUnescapesDollarHashBackslash(t *testing.T) {
	c := newCursor(`a\$b\#c\\d`)
	n, err := parseText(c)
	require.NoError(t, err)
	assert.Equal(t, `a$b#c\d`, n.(*Text).Value)
	assert.True(t, c.eof())
}

func TestParseTextEscapedDollarIsNotAPlaceholderStart(t *testing.T) {
	c := newCursor(`a\$b`)
	n, err := parseText(c)
	require.NoError(t, err)
	assert.Equal(t, "a$b", n.(*Text).Value)
}

func TestParseTextOtherBackslashesAreLiteral(t *testing.T) {
	c := newCursor(`C:\path\to`)
	n, err := parseText(c)
	require.NoError(t, err)
	assert.Equal(t, `C:\path\to`, n.(*Text).Value)
}

func TestBlockStopsAtEnd(t *testing.T) {
	c := newCursor("hello#end")
	n, err := parseBlock(c)
	require.NoError(t, err)
	b := n.(*Block)
	require.Len(t, b.Statements, 1)
	assert.Equal(t, "hello", b.Statements[0].(*Text).Value)
	assert.Equal(t, "#end", c.rest())
}
