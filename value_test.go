package vtl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"zero int", 0, false},
		{"nonzero int", 1, true},
		{"zero int64", int64(0), false},
		{"empty string", "", false},
		{"nonempty string", "x", true},
		{"empty slice", []Value{}, false},
		{"nonempty slice", []Value{1}, true},
		{"struct", struct{}{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Truthy(tc.v))
		})
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "hi", Stringify("hi"))
	assert.Equal(t, "5", Stringify(int64(5)))
	assert.Equal(t, "true", Stringify(true))
}

type recordObject struct {
	fields map[string]Value
}

func (r recordObject) Get(name string) (Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

func TestMemberLookupObject(t *testing.T) {
	obj := recordObject{fields: map[string]Value{"name": "ada"}}
	assert.Equal(t, "ada", memberLookup(obj, "name"))
	assert.Nil(t, memberLookup(obj, "missing"))
}

func TestMemberLookupMap(t *testing.T) {
	m := map[string]Value{"count": int64(3)}
	assert.Equal(t, int64(3), memberLookup(m, "count"))
	assert.Nil(t, memberLookup(m, "missing"))
}

type person struct {
	Name string
}

func TestMemberLookupStructAndPointer(t *testing.T) {
	p := person{Name: "grace"}
	assert.Equal(t, "grace", memberLookup(p, "Name"))
	assert.Equal(t, "grace", memberLookup(&p, "Name"))
}

func TestMemberLookupNamespaceWalksChain(t *testing.T) {
	root := NewNamespace(map[string]Value{"x": int64(1)})
	child := root.child()
	assert.Equal(t, Value(int64(1)), memberLookup(child, "x"))
	assert.Nil(t, memberLookup(child, "y"))
}

func TestAsCallableFunc(t *testing.T) {
	fn := func(a, b int64) int64 { return a + b }
	callable, ok := asCallable(fn)
	require.True(t, ok)
	assert.Equal(t, 2, callable.Arity())
	result, err := callable.Call([]Value{int64(2), int64(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result)
}

func TestAsCallableFuncReturningError(t *testing.T) {
	fn := func(ok bool) (string, error) {
		if !ok {
			return "", templateErrorf("boom")
		}
		return "fine", nil
	}
	callable, _ := asCallable(fn)
	_, err := callable.Call([]Value{false})
	assert.Error(t, err)
}

func TestCompareValuesNumeric(t *testing.T) {
	assert.True(t, compareValues(">", int64(2), int64(1)))
	assert.False(t, compareValues(">", int64(1), int64(2)))
	assert.True(t, compareValues("==", int64(1), int64(1)))
}

func TestCompareValuesString(t *testing.T) {
	assert.True(t, compareValues("<", "a", "b"))
	assert.True(t, compareValues("==", "a", "a"))
}
