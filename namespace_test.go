package vtl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespaceGetWalksChain(t *testing.T) {
	root := NewNamespace(map[string]Value{"a": int64(1)})
	child := root.child()
	child.Set("b", int64(2))

	v, ok := child.Get("a")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	v, ok = child.Get("b")
	assert.True(t, ok)
	assert.Equal(t, int64(2), v)

	_, ok = root.Get("b")
	assert.False(t, ok, "writes to a child scope must not leak to the parent")
}

func TestNamespaceSetShadowsParent(t *testing.T) {
	root := NewNamespace(map[string]Value{"a": int64(1)})
	child := root.child()
	child.Set("a", int64(99))

	v, _ := child.Get("a")
	assert.Equal(t, int64(99), v)

	v, _ = root.Get("a")
	assert.Equal(t, int64(1), v, "shadowing in a child must not mutate the parent")
}

func TestNamespaceHasLocalIgnoresAncestors(t *testing.T) {
	root := NewNamespace(nil)
	root.Set("#greet", "macro")
	child := root.child()

	assert.True(t, root.hasLocal("#greet"))
	assert.False(t, child.hasLocal("#greet"))
}

func TestNamespaceGetMissing(t *testing.T) {
	ns := NewNamespace(nil)
	_, ok := ns.Get("nope")
	assert.False(t, ok)
}
