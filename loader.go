package vtl

import "io"

// Loader resolves named templates for #include (merge_text) and, for
// future #parse-style work, full re-parsing (load_template) — spec.md
// §4.5. Grounded on airspeed's Loader/FileLoader pair, kept abstract here:
// reading from disk is an external collaborator out of scope (spec.md
// §1), so this module only defines the interface and the always-failing
// default.
type Loader interface {
	// MergeText writes the raw, unparsed text of the named template
	// directly to sink. Used by #include.
	MergeText(name string, sink io.Writer) error

	// LoadTemplate returns a fresh, unparsed Template for name. Reserved
	// for #parse-style future work (spec.md §4.5); no directive in this
	// module's grammar calls it yet.
	LoadTemplate(name string) (*Template, error)
}

// nullLoader is the default Loader: both operations fail with a
// TemplateError, matching airspeed's NullLoader.
type nullLoader struct{}

func (nullLoader) MergeText(name string, _ io.Writer) error {
	return templateErrorf("no loader available for %q", name)
}

func (nullLoader) LoadTemplate(name string) (*Template, error) {
	return nil, templateErrorf("no loader available for %q", name)
}

// NullLoader is a Loader whose operations always fail; it is used when no
// Loader is supplied to Merge/MergeTo.
var NullLoader Loader = nullLoader{}
