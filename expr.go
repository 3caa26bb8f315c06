package vtl

import (
	"regexp"
	"strconv"

	"github.com/samber/lo"
)

// This file implements spec.md §4.2 (Expressions), grounded rule-for-rule
// on airspeed.py's IntegerLiteral / StringLiteral / NameOrCall /
// SubExpression / VariableExpression / ParameterList / Value /
// BinaryOperator / Condition / SimpleReference, translated from Python's
// re.match(text, pos) cursor convention (§9 "regex-driven parsing") to
// cursor.identityMatch over Go's regexp anchored with ^.

var (
	reInteger        = regexp.MustCompile(`^(\d+)`)
	reString         = regexp.MustCompile(`^"((?:\\["nrbt\\]|[^"\n\r\\])+)"`)
	reStringEscape   = regexp.MustCompile(`\\(["nrbt\\])`)
	reName           = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)`)
	reDot            = regexp.MustCompile(`^\.`)
	reParamsStart    = regexp.MustCompile(`^\(\s*`)
	reParamsEnd      = regexp.MustCompile(`^\s*\)`)
	reParamsComma    = regexp.MustCompile(`^\s*,\s*`)
	reLeadingDollar  = regexp.MustCompile(`^\$`)
	reBinaryOperator = regexp.MustCompile(`^\s*(>=|<=|<|==|!=|>)\s*`)
	reConditionStart = regexp.MustCompile(`^\(\s*`)
	reConditionEnd   = regexp.MustCompile(`^\s*\)`)
)

var stringEscapes = map[string]string{
	`"`:  `"`,
	`n`:  "\n",
	`r`:  "\r",
	`b`:  "\b",
	`t`:  "\t",
	`\`:  `\`,
}

func unescapeString(raw string) string {
	return reStringEscape.ReplaceAllStringFunc(raw, func(m string) string {
		return stringEscapes[m[1:]]
	})
}

// IntegerLiteral — one or more decimal digits.
type IntegerLiteral struct {
	Value int64
}

func parseIntegerLiteral(c *cursor) (node, error) {
	groups, err := c.identityMatch(reInteger)
	if err != nil {
		return nil, err
	}
	n, convErr := strconv.ParseInt(groups[0], 10, 64)
	if convErr != nil {
		// Overflows a signed 64-bit value; still a syntactically valid
		// integer literal, so this is a template error, not a no-match.
		return nil, templateErrorf("integer literal %q does not fit in 64 bits", groups[0])
	}
	return &IntegerLiteral{Value: n}, nil
}

func (n *IntegerLiteral) calculate(_ *Namespace) (Value, error) {
	return n.Value, nil
}

// StringLiteral — double-quoted, with \" \\ \n \r \b \t escapes.
type StringLiteral struct {
	Value string
}

func parseStringLiteral(c *cursor) (node, error) {
	groups, err := c.identityMatch(reString)
	if err != nil {
		return nil, err
	}
	return &StringLiteral{Value: unescapeString(groups[0])}, nil
}

func (n *StringLiteral) calculate(_ *Namespace) (Value, error) {
	return n.Value, nil
}

// ParameterList — '(' [Value (',' Value)*] ')'.
type ParameterList struct {
	Values []expr
}

func parseParameterList(c *cursor) (node, error) {
	if _, err := c.identityMatch(reParamsStart); err != nil {
		return nil, err
	}
	pl := &ParameterList{}
	if v, err := nextElement(c, parseValue); err == nil {
		pl.Values = append(pl.Values, v.(expr))
		for c.optionalMatch(reParamsComma) {
			v, err := requireNextElement(c, "value", parseValue)
			if err != nil {
				return nil, err
			}
			pl.Values = append(pl.Values, v.(expr))
		}
	} else if !isNoMatch(err) {
		return nil, err
	}
	if _, err := c.requireMatch(reParamsEnd, ")"); err != nil {
		return nil, err
	}
	return pl, nil
}

// evalResult pairs a single argument's evaluation with its error, so
// lo.Map can run over every argument expression before the first error
// is surfaced (lo.Map itself has no error-propagating form).
type evalResult struct {
	value Value
	err   error
}

func (pl *ParameterList) evaluate(ns *Namespace) ([]Value, error) {
	results := lo.Map(pl.Values, func(v expr, _ int) evalResult {
		val, err := v.calculate(ns)
		return evalResult{value: val, err: err}
	})
	out := make([]Value, len(results))
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out[i] = r.value
	}
	return out, nil
}

// NameOrCall — identifier, optionally followed by a parenthesized
// parameter list.
type NameOrCall struct {
	Name       string
	Parameters *ParameterList
}

func parseNameOrCall(c *cursor) (node, error) {
	groups, err := c.identityMatch(reName)
	if err != nil {
		return nil, err
	}
	noc := &NameOrCall{Name: groups[0]}
	if p, err := nextElement(c, parseParameterList); err == nil {
		noc.Parameters = p.(*ParameterList)
	} else if !isNoMatch(err) {
		return nil, err
	}
	return noc, nil
}

// calculate implements spec.md §4.2's NameOrCall evaluation: member/key
// lookup against current (via memberLookup, which also handles current
// being the top-level *Namespace itself), a call against
// topNamespace-evaluated parameters if a parameter list is present, and
// null short-circuiting at every step.
func (n *NameOrCall) calculate(current Value, topNamespace *Namespace) (Value, error) {
	if current == nil {
		return nil, nil
	}
	result := memberLookup(current, n.Name)
	if result == nil {
		return nil, nil
	}
	if n.Parameters != nil {
		args, err := n.Parameters.evaluate(topNamespace)
		if err != nil {
			return nil, err
		}
		callable, ok := asCallable(result)
		if !ok {
			return nil, templateErrorf("%q is not callable", n.Name)
		}
		if callable.Arity() != len(args) {
			return nil, templateErrorf("%q expects %d argument(s), got %d", n.Name, callable.Arity(), len(args))
		}
		result, err = callable.Call(args)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// SubExpression — a leading '.' followed by another VariableExpression,
// evaluated against the parent's result.
type SubExpression struct {
	Expression *VariableExpression
}

// A trailing '.' not followed by a valid name is not a SubExpression:
// the whole construct backs out to errNoMatch (restoring the cursor to
// before the '.') rather than raising a hard SyntaxError, so a template
// like "$x." renders the value of x (or "$x" when x is undefined) followed
// by a literal ".".
func parseSubExpression(c *cursor) (node, error) {
	if _, err := c.identityMatch(reDot); err != nil {
		return nil, err
	}
	v, err := nextElement(c, parseVariableExpression)
	if err != nil {
		return nil, errNoMatch
	}
	return &SubExpression{Expression: v.(*VariableExpression)}, nil
}

func (n *SubExpression) calculate(current Value, topNamespace *Namespace) (Value, error) {
	return n.Expression.calculateAgainst(current, topNamespace)
}

// VariableExpression — a NameOrCall followed by zero or more chained
// SubExpressions.
type VariableExpression struct {
	Part          *NameOrCall
	Subexpression *SubExpression
}

func parseVariableExpression(c *cursor) (node, error) {
	p, err := nextElement(c, parseNameOrCall)
	if err != nil {
		return nil, err
	}
	ve := &VariableExpression{Part: p.(*NameOrCall)}
	if s, err := nextElement(c, parseSubExpression); err == nil {
		ve.Subexpression = s.(*SubExpression)
	} else if !isNoMatch(err) {
		return nil, err
	}
	return ve, nil
}

// calculate evaluates the expression against the top-level namespace: ns
// itself is passed as both the "current object" (so the Part's lookup
// walks the scope chain via memberLookup's *Namespace case) and the
// top-level namespace any chained Subexpression's call arguments
// evaluate against (spec.md §4.2).
func (n *VariableExpression) calculate(ns *Namespace) (Value, error) {
	return n.calculateAgainst(ns, ns)
}

func (n *VariableExpression) calculateAgainst(current Value, topNamespace *Namespace) (Value, error) {
	value, err := n.Part.calculate(current, topNamespace)
	if err != nil {
		return nil, err
	}
	if n.Subexpression != nil {
		return n.Subexpression.calculate(value, topNamespace)
	}
	return value, nil
}

// parseValue implements the Value production: SimpleReference |
// IntegerLiteral | StringLiteral.
func parseValue(c *cursor) (node, error) {
	return nextElement(c, parseSimpleReference, parseIntegerLiteral, parseStringLiteral)
}

// SimpleReference — '$' followed by a variable expression. Distinct from
// Placeholder: used where only a reference is allowed (an #include name,
// a #foreach iterable) and does not handle the silent or brace forms.
type SimpleReference struct {
	Expression *VariableExpression
}

func parseSimpleReference(c *cursor) (node, error) {
	if _, err := c.identityMatch(reLeadingDollar); err != nil {
		return nil, err
	}
	v, err := requireNextElement(c, "name", parseVariableExpression)
	if err != nil {
		return nil, err
	}
	return &SimpleReference{Expression: v.(*VariableExpression)}, nil
}

func (n *SimpleReference) calculate(ns *Namespace) (Value, error) {
	return n.Expression.calculate(ns)
}

// BinaryOperator — one of > >= < <= == != surrounded by optional
// whitespace.
type BinaryOperator struct {
	Op string
}

func parseBinaryOperator(c *cursor) (node, error) {
	groups, err := c.identityMatch(reBinaryOperator)
	if err != nil {
		return nil, err
	}
	return &BinaryOperator{Op: groups[0]}, nil
}

// Condition — '(' Value [Operator Value] ')'. With no operator, the value
// itself is the condition.
type Condition struct {
	Value    expr
	Operator *BinaryOperator
	Value2   expr
}

func parseCondition(c *cursor) (node, error) {
	if _, err := c.identityMatch(reConditionStart); err != nil {
		return nil, err
	}
	v, err := nextElement(c, parseValue)
	if err != nil {
		return nil, err
	}
	cond := &Condition{Value: v.(expr)}
	if op, err := nextElement(c, parseBinaryOperator); err == nil {
		cond.Operator = op.(*BinaryOperator)
		v2, err := requireNextElement(c, "value", parseValue)
		if err != nil {
			return nil, err
		}
		cond.Value2 = v2.(expr)
	} else if !isNoMatch(err) {
		return nil, err
	}
	if _, err := c.requireMatch(reConditionEnd, ") or comparison operator"); err != nil {
		return nil, err
	}
	return cond, nil
}

func (n *Condition) calculate(ns *Namespace) (Value, error) {
	v1, err := n.Value.calculate(ns)
	if err != nil {
		return nil, err
	}
	if n.Operator == nil {
		return Truthy(v1), nil
	}
	v2, err := n.Value2.calculate(ns)
	if err != nil {
		return nil, err
	}
	return compareValues(n.Operator.Op, v1, v2), nil
}
