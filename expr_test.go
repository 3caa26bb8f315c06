package vtl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExprNode(t *testing.T, src string, p parser) node {
	t.Helper()
	c := newCursor(src)
	n, err := p(c)
	require.NoError(t, err)
	return n
}

func TestParseIntegerLiteral(t *testing.T) {
	n := parseExprNode(t, "42rest", parseIntegerLiteral)
	lit := n.(*IntegerLiteral)
	v, err := lit.calculate(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestParseStringLiteralUnescapes(t *testing.T) {
	n := parseExprNode(t, `"a\nb\"c"`, parseStringLiteral)
	lit := n.(*StringLiteral)
	v, err := lit.calculate(nil)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\"c", v)
}

func TestVariableExpressionSimpleLookup(t *testing.T) {
	ns := NewNamespace(map[string]Value{"name": "ada"})
	c := newCursor("name")
	n, err := parseVariableExpression(c)
	require.NoError(t, err)
	v, err := n.(*VariableExpression).calculate(ns)
	require.NoError(t, err)
	assert.Equal(t, "ada", v)
}

func TestVariableExpressionUndefinedIsNilNotError(t *testing.T) {
	ns := NewNamespace(nil)
	c := newCursor("missing")
	n, err := parseVariableExpression(c)
	require.NoError(t, err)
	v, err := n.(*VariableExpression).calculate(ns)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestVariableExpressionSubexpression(t *testing.T) {
	ns := NewNamespace(map[string]Value{
		"person": recordObject{fields: map[string]Value{"name": "grace"}},
	})
	c := newCursor("person.name")
	n, err := parseVariableExpression(c)
	require.NoError(t, err)
	v, err := n.(*VariableExpression).calculate(ns)
	require.NoError(t, err)
	assert.Equal(t, "grace", v)
}

func TestVariableExpressionCallWithArgs(t *testing.T) {
	ns := NewNamespace(map[string]Value{
		"add": CallableFunc{N: 2, F: func(args []Value) (Value, error) {
			a := args[0].(int64)
			b := args[1].(int64)
			return a + b, nil
		}},
	})
	c := newCursor("add(1, 2)")
	n, err := parseVariableExpression(c)
	require.NoError(t, err)
	v, err := n.(*VariableExpression).calculate(ns)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestVariableExpressionArityMismatch(t *testing.T) {
	ns := NewNamespace(map[string]Value{
		"add": CallableFunc{N: 2, F: func(args []Value) (Value, error) { return nil, nil }},
	})
	c := newCursor("add(1)")
	n, err := parseVariableExpression(c)
	require.NoError(t, err)
	_, err = n.(*VariableExpression).calculate(ns)
	assert.Error(t, err)
}

type failingExpr struct{}

func (failingExpr) calculate(_ *Namespace) (Value, error) {
	return nil, templateErrorf("boom")
}

func TestParameterListEvaluatePropagatesFirstError(t *testing.T) {
	pl := &ParameterList{Values: []expr{&IntegerLiteral{Value: 1}, failingExpr{}, &IntegerLiteral{Value: 2}}}
	_, err := pl.evaluate(NewNamespace(nil))
	assert.Error(t, err)
}

func TestParameterListEvaluateOrdersResults(t *testing.T) {
	pl := &ParameterList{Values: []expr{&IntegerLiteral{Value: 1}, &IntegerLiteral{Value: 2}, &IntegerLiteral{Value: 3}}}
	out, err := pl.evaluate(NewNamespace(nil))
	require.NoError(t, err)
	assert.Equal(t, []Value{int64(1), int64(2), int64(3)}, out)
}

func TestConditionBareTruthiness(t *testing.T) {
	ns := NewNamespace(map[string]Value{"flag": int64(0)})
	c := newCursor("($flag)")
	n, err := parseCondition(c)
	require.NoError(t, err)
	v, err := n.(*Condition).calculate(ns)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestConditionComparison(t *testing.T) {
	ns := NewNamespace(map[string]Value{"a": int64(2), "b": int64(3)})
	c := newCursor("($a < $b)")
	n, err := parseCondition(c)
	require.NoError(t, err)
	v, err := n.(*Condition).calculate(ns)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}
