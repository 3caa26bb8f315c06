package vtl

import (
	"io"
	"reflect"
	"regexp"
)

// This file implements spec.md §4.3 (Directives other than Text,
// Placeholder, Comment — those are block.go's, since they share Block's
// dispatch list most directly), grounded rule-for-rule on airspeed.py's
// Assignment / SetDirective / IfDirective / ElseifBlock / ElseBlock / End
// / ForeachDirective / MacroDefinition / MacroCall / IncludeDirective.

var (
	reAssignmentStart = regexp.MustCompile(`^\s*\(\s*\$([A-Za-z_][A-Za-z0-9_]*)\s*=\s*`)
	reAssignmentEnd    = regexp.MustCompile(`^\s*\)(?:[ \t]*\r?\n)?`)

	reSetStart = regexp.MustCompile(`(?i)^#set\b`)

	reIfStart     = regexp.MustCompile(`(?i)^#if\b\s*`)
	reElseifStart = regexp.MustCompile(`(?i)^#elseif\b\s*`)
	reElseStart   = regexp.MustCompile(`(?i)^#else\b`)
	reEnd         = regexp.MustCompile(`(?i)^#end\b`)

	reForeachStart = regexp.MustCompile(`(?i)^#foreach\s*\(\s*\$([A-Za-z_][A-Za-z0-9_]*)\s*in\s*`)
	reForeachEnd   = regexp.MustCompile(`^\s*\)`)

	reMacroStart     = regexp.MustCompile(`(?i)^#macro\b`)
	reMacroOpenParen = regexp.MustCompile(`^[ \t]*\(\s*`)
	reMacroName      = regexp.MustCompile(`(?i)^\s*([A-Za-z][A-Za-z0-9_]*)\b`)
	reMacroCloseParen = regexp.MustCompile(`^[ \t]*\)`)
	reMacroArgName    = regexp.MustCompile(`(?i)^[ \t]+\$([A-Za-z][A-Za-z0-9_]*)`)

	reMacroCallStart = regexp.MustCompile(`(?i)^#([A-Za-z][A-Za-z0-9_]*)\b`)
	reMacroCallSpace = regexp.MustCompile(`^[ \t]+`)

	reIncludeStart = regexp.MustCompile(`(?i)^#include\b`)
)

// reservedDirectiveNames are the directive keywords spec.md §4.3 lists as
// unavailable for macro names.
var reservedDirectiveNames = map[string]bool{
	"if": true, "else": true, "elseif": true, "set": true, "macro": true,
	"foreach": true, "parse": true, "include": true, "stop": true, "end": true,
}

// Assignment — '( $name = Value )', with optional trailing newline
// consumed (SPEC_FULL.md §4.6: only Assignment's closing paren eats a
// trailing newline, matching airspeed.py's Assignment.END exactly).
type Assignment struct {
	VarName string
	Value   expr
}

func parseAssignment(c *cursor) (node, error) {
	groups, err := c.identityMatch(reAssignmentStart)
	if err != nil {
		return nil, err
	}
	v, err := nextElement(c, parseValue)
	if err != nil {
		return nil, err
	}
	if _, err := c.requireMatch(reAssignmentEnd, ")"); err != nil {
		return nil, err
	}
	return &Assignment{VarName: groups[0], Value: v.(expr)}, nil
}

func (a *Assignment) apply(ns *Namespace) error {
	v, err := a.Value.calculate(ns)
	if err != nil {
		return err
	}
	ns.Set(a.VarName, v)
	return nil
}

// SetDirective — '#set' Assignment.
type SetDirective struct {
	Assignment *Assignment
}

func parseSetDirective(c *cursor) (node, error) {
	if _, err := c.identityMatch(reSetStart); err != nil {
		return nil, err
	}
	a, err := requireNextElement(c, "assignment", parseAssignment)
	if err != nil {
		return nil, err
	}
	return &SetDirective{Assignment: a.(*Assignment)}, nil
}

func (d *SetDirective) eval(ns *Namespace, _ io.Writer, _ Loader) error {
	return d.Assignment.apply(ns)
}

// elseBlock — '#else' Block.
type elseBlock struct {
	Block *Block
}

func parseElseBlock(c *cursor) (node, error) {
	if _, err := c.identityMatch(reElseStart); err != nil {
		return nil, err
	}
	b, err := requireNextElement(c, "block", parseBlock)
	if err != nil {
		return nil, err
	}
	return &elseBlock{Block: b.(*Block)}, nil
}

// elseifBlock — '#elseif' Condition Block. A distinct construct, not
// sugar for '#else#if': it does not require its own '#end' (spec.md
// §4.3).
type elseifBlock struct {
	Condition *Condition
	Block     *Block
}

func parseElseifBlock(c *cursor) (node, error) {
	if _, err := c.identityMatch(reElseifStart); err != nil {
		return nil, err
	}
	cond, err := requireNextElement(c, "condition", parseCondition)
	if err != nil {
		return nil, err
	}
	b, err := requireNextElement(c, "block", parseBlock)
	if err != nil {
		return nil, err
	}
	return &elseifBlock{Condition: cond.(*Condition), Block: b.(*Block)}, nil
}

func parseEnd(c *cursor) (node, error) {
	if _, err := c.identityMatch(reEnd); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// IfDirective — '#if' Condition Block, zero or more '#elseif' Condition
// Block, optional '#else' Block, then '#end'.
type IfDirective struct {
	Condition *Condition
	Block     *Block
	Elseifs   []*elseifBlock
	Else      *elseBlock
}

func parseIfDirective(c *cursor) (node, error) {
	if _, err := c.identityMatch(reIfStart); err != nil {
		return nil, err
	}
	cond, err := nextElement(c, parseCondition)
	if err != nil {
		return nil, err
	}
	b, err := nextElement(c, parseBlock)
	if err != nil {
		return nil, err
	}
	d := &IfDirective{Condition: cond.(*Condition), Block: b.(*Block)}
	for {
		ei, err := nextElement(c, parseElseifBlock)
		if err != nil {
			if isNoMatch(err) {
				break
			}
			return nil, err
		}
		d.Elseifs = append(d.Elseifs, ei.(*elseifBlock))
	}
	if eb, err := nextElement(c, parseElseBlock); err == nil {
		d.Else = eb.(*elseBlock)
	} else if !isNoMatch(err) {
		return nil, err
	}
	if _, err := requireNextElement(c, "#else, #elseif or #end", parseEnd); err != nil {
		return nil, err
	}
	return d, nil
}

// eval picks the first branch whose condition is truthy; if none, the
// else branch (or nothing) runs (spec.md §4.3).
func (d *IfDirective) eval(ns *Namespace, out io.Writer, ldr Loader) error {
	cond, err := d.Condition.calculate(ns)
	if err != nil {
		return err
	}
	if Truthy(cond) {
		return d.Block.eval(ns, out, ldr)
	}
	for _, ei := range d.Elseifs {
		eiCond, err := ei.Condition.calculate(ns)
		if err != nil {
			return err
		}
		if Truthy(eiCond) {
			return ei.Block.eval(ns, out, ldr)
		}
	}
	if d.Else != nil {
		return d.Else.Block.eval(ns, out, ldr)
	}
	return nil
}

// ForeachDirective — '#foreach ( $var in Value )' Block '#end'.
type ForeachDirective struct {
	LoopVarName string
	Value       expr
	Block       *Block
}

func parseForeachDirective(c *cursor) (node, error) {
	groups, err := c.identityMatch(reForeachStart)
	if err != nil {
		return nil, err
	}
	v, err := nextElement(c, parseValue)
	if err != nil {
		return nil, err
	}
	if _, err := c.requireMatch(reForeachEnd, ")"); err != nil {
		return nil, err
	}
	b, err := nextElement(c, parseBlock)
	if err != nil {
		return nil, err
	}
	if _, err := requireNextElement(c, "#end", parseEnd); err != nil {
		return nil, err
	}
	return &ForeachDirective{LoopVarName: groups[0], Value: v.(expr), Block: b.(*Block)}, nil
}

// eval creates a child namespace per iteration with var bound to the
// element and velocityCount bound to the 1-based index (spec.md §4.3).
// The loop variable and velocityCount are not visible after the loop ends
// since each iteration's namespace is discarded.
func (d *ForeachDirective) eval(ns *Namespace, out io.Writer, ldr Loader) error {
	iterable, err := d.Value.calculate(ns)
	if err != nil {
		return err
	}
	items, err := toSequence(iterable)
	if err != nil {
		return err
	}
	for i, item := range items {
		iterNs := ns.child()
		iterNs.Set("velocityCount", int64(i+1))
		iterNs.Set(d.LoopVarName, item)
		if err := d.Block.eval(iterNs, out, ldr); err != nil {
			return err
		}
	}
	return nil
}

// toSequence materializes Value as an ordered iterable for #foreach
// (SPEC_FULL.md §4.6: iterating a non-iterable value is a TemplateError,
// matching airspeed's uncaught Python TypeError from `for item in
// iterable`). Only slices and arrays are treated as ordered: Go map
// iteration order is unspecified, so a map value here is rejected rather
// than silently producing a nondeterministic render.
func toSequence(v Value) ([]Value, error) {
	if v == nil {
		return nil, templateErrorf("cannot iterate over a null value")
	}
	if items, ok := v.([]Value); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	default:
		return nil, templateErrorf("cannot iterate over a value of type %T", v)
	}
}

// MacroDefinition — '#macro ( name $arg1 $arg2 ... )' Block '#end'.
type MacroDefinition struct {
	MacroName string
	ArgNames  []string
	Block     *Block
}

func parseMacroDefinition(c *cursor) (node, error) {
	if _, err := c.identityMatch(reMacroStart); err != nil {
		return nil, err
	}
	if _, err := c.requireMatch(reMacroOpenParen, "("); err != nil {
		return nil, err
	}
	nameGroups, err := c.requireMatch(reMacroName, "macro name")
	if err != nil {
		return nil, err
	}
	macroName := nameGroups[0]
	if reservedDirectiveNames[lowerASCII(macroName)] {
		return nil, c.syntaxError("non-reserved name")
	}
	var argNames []string
	for {
		groups, ok := c.nextMatch(reMacroArgName)
		if !ok {
			break
		}
		argNames = append(argNames, groups[0])
	}
	if _, err := c.requireMatch(reMacroCloseParen, ") or arg name"); err != nil {
		return nil, err
	}
	b, err := requireNextElement(c, "block", parseBlock)
	if err != nil {
		return nil, err
	}
	if _, err := requireNextElement(c, "#end", parseEnd); err != nil {
		return nil, err
	}
	return &MacroDefinition{MacroName: macroName, ArgNames: argNames, Block: b.(*Block)}, nil
}

// eval stores the macro in the current namespace under key "#"+lowercased
// name, the first time it evaluates (spec.md §3, §4.3). Redefining a
// macro already bound in this same local scope is a TemplateError
// (SPEC_FULL.md §4.6: the check looks only at the local scope).
func (d *MacroDefinition) eval(ns *Namespace, _ io.Writer, _ Loader) error {
	key := macroKey(lowerASCII(d.MacroName))
	if ns.hasLocal(key) {
		return templateErrorf("cannot redefine macro %q", d.MacroName)
	}
	ns.Set(key, d)
	return nil
}

func (d *MacroDefinition) invoke(callerNs *Namespace, argExprs []expr, out io.Writer, ldr Loader) error {
	if len(argExprs) != len(d.ArgNames) {
		return templateErrorf("macro %q expects %d argument(s), got %d", d.MacroName, len(d.ArgNames), len(argExprs))
	}
	macroNs := callerNs.child()
	for i, argName := range d.ArgNames {
		v, err := argExprs[i].calculate(callerNs)
		if err != nil {
			return err
		}
		macroNs.Set(argName, v)
	}
	return d.Block.eval(macroNs, out, ldr)
}

// MacroCall — '#name ( arg_value arg_value ... )', arguments separated by
// whitespace. A macro name that is reserved or begins with "end" is
// rejected as "no match" so the surrounding Block dispatcher falls
// through to the directive that actually applies (spec.md §4.3).
type MacroCall struct {
	MacroName string
	Args      []expr
}

func parseMacroCall(c *cursor) (node, error) {
	groups, err := c.identityMatch(reMacroCallStart)
	if err != nil {
		return nil, err
	}
	name := lowerASCII(groups[0])
	if reservedDirectiveNames[name] || hasASCIIPrefix(name, "end") {
		return nil, errNoMatch
	}
	if _, err := c.requireMatch(reMacroOpenParen, "("); err != nil {
		return nil, err
	}
	call := &MacroCall{MacroName: name}
	for {
		v, err := nextElement(c, parseValue)
		if err != nil {
			if isNoMatch(err) {
				break
			}
			return nil, err
		}
		call.Args = append(call.Args, v.(expr))
		if !c.optionalMatch(reMacroCallSpace) {
			break
		}
	}
	if _, err := c.requireMatch(reMacroCloseParen, "argument value or )"); err != nil {
		return nil, err
	}
	return call, nil
}

func (d *MacroCall) eval(ns *Namespace, out io.Writer, ldr Loader) error {
	v, ok := ns.Get(macroKey(d.MacroName))
	if !ok {
		return templateErrorf("no such macro: %s", d.MacroName)
	}
	macro, ok := v.(*MacroDefinition)
	if !ok {
		return templateErrorf("no such macro: %s", d.MacroName)
	}
	return macro.invoke(ns, d.Args, out, ldr)
}

// IncludeDirective — '#include ( stringLiteralOrReference )'. Evaluation
// asks the loader to write the named template's raw text (unparsed)
// directly to the output sink and returns the loader's error, if any
// (spec.md §4.3, §9 Open Questions).
type IncludeDirective struct {
	Name expr
}

func parseIncludeDirective(c *cursor) (node, error) {
	if _, err := c.identityMatch(reIncludeStart); err != nil {
		return nil, err
	}
	if _, err := c.requireMatch(reMacroOpenParen, "("); err != nil {
		return nil, err
	}
	name, err := requireNextElement(c, "template name", parseStringLiteral, parseSimpleReference)
	if err != nil {
		return nil, err
	}
	if _, err := c.requireMatch(reMacroCloseParen, ")"); err != nil {
		return nil, err
	}
	return &IncludeDirective{Name: name.(expr)}, nil
}

func (d *IncludeDirective) eval(ns *Namespace, out io.Writer, ldr Loader) error {
	name, err := d.Name.calculate(ns)
	if err != nil {
		return err
	}
	return ldr.MergeText(Stringify(name), out)
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func hasASCIIPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
