package vtl

// Namespace is a chained name-to-value mapping (spec.md §4.4): reads walk
// the chain from innermost outward, writes affect only the innermost
// scope. Grounded on airspeed's LocalNamespace(dict), which wraps a plain
// dict with a parent pointer and falls through to the parent's
// __getitem__ on a local KeyError; the Go port keeps the same two-level
// shape (an owned local map, a borrowed parent) instead of copying the
// whole parent chain into every child.
type Namespace struct {
	parent *Namespace
	local  map[string]Value
}

// NewNamespace wraps a caller-supplied mapping as the outermost scope.
// Writes performed during evaluation never touch this map: TemplateBody
// always pushes a child scope on entry (spec.md §4.3), so the caller's
// mapping is read-only from the engine's point of view.
func NewNamespace(vars map[string]Value) *Namespace {
	return &Namespace{parent: nil, local: vars}
}

// child creates a new scope whose writes are invisible to ns, used at each
// TemplateBody entry, each #foreach iteration and each macro invocation.
func (ns *Namespace) child() *Namespace {
	return &Namespace{parent: ns, local: make(map[string]Value)}
}

// Get walks the chain from innermost outward. The bool reports whether
// name was found anywhere in the chain, distinguishing "not found" from
// "found but nil". Reference evaluation (memberLookup) ignores it and
// treats both as nil; MacroCall uses it to detect an undefined macro.
func (ns *Namespace) Get(name string) (Value, bool) {
	for s := ns; s != nil; s = s.parent {
		if s.local != nil {
			if v, ok := s.local[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Set writes name into the innermost scope only.
func (ns *Namespace) Set(name string, v Value) {
	if ns.local == nil {
		ns.local = make(map[string]Value)
	}
	ns.local[name] = v
}

// hasLocal reports whether name is bound in this scope's own map, without
// consulting ns.parent — used by macro-definition redefinition checks
// (SPEC_FULL.md §4.6): a macro name already bound in an ancestor scope
// does not block re-evaluating "#macro" of the same name in a nested
// child scope.
func (ns *Namespace) hasLocal(name string) bool {
	_, ok := ns.local[name]
	return ok
}

// Keys returns every name visible from ns, innermost scope's bindings
// taking precedence over shadowed outer ones — a debugging/introspection
// helper, not used by evaluation itself.
func (ns *Namespace) Keys() []string {
	seen := map[string]struct{}{}
	var keys []string
	for s := ns; s != nil; s = s.parent {
		for k := range s.local {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

const macroKeyPrefix = "#"

func macroKey(name string) string {
	return macroKeyPrefix + name
}
