// Package vtl implements a substantial subset of the Velocity Template
// Language (VTL): a text document containing literal text interleaved with
// references ($name, ${name.path.call(args)}) and directives (#if,
// #foreach, #set, #macro, #include). Given a Template and a namespace (a
// mapping from names to values, possibly callables or structured objects),
// Merge produces the rendered output string.
//
// Overlook of the core
//
// A Template is parsed lazily into an AST of node values on first
// evaluation, then evaluated by a tree-walking interpreter that writes to
// an io.Writer sink while maintaining a lexically scoped Namespace stack.
// Parsing uses five cursor-anchored primitives (identityMatch, nextMatch,
// optionalMatch, requireMatch, nextElement) described in cursor.go; each
// grammar rule commits to a choice as soon as it has consumed its
// discriminating prefix, so backtracking never escapes a single directive.
//
// Overlook of the grammar
//
//	References: $name, ${name}, $!name, $!{name}, $a.b, $a.b(c,d)
//	Directives: #if (...) ... [#elseif (...) ...] [#else ...] #end
//	            #set ( $v = expr )
//	            #foreach ( $v in $xs ) ... #end
//	            #macro ( name $a $b ) ... #end
//	            #name(arg1 arg2)
//	            #include ( "file" )
//	            ## line comment
//	            #* block comment *#
//
// Two error kinds propagate from Merge/MergeTo: *SyntaxError (raised while
// parsing, on the first evaluation of a Template) and *TemplateError
// (raised while evaluating a parsed AST, or while parsing an integer
// literal too large for 64 bits). Undefined references are not
// errors: $x with x absent renders as the literal text "$x", and $!x
// renders as the empty string.
package vtl // import "github.com/hucsmn/vtl"
