package vtl

import (
	"bytes"
	"io"
	"sync"
)

// Template is a parsed (or not-yet-parsed) VTL source document. Grounded
// on airspeed.Template: parsing is deferred to first use (spec.md §4.5),
// and a failed parse is cached so repeated Merge calls report the same
// *SyntaxError instead of re-scanning the source.
type Template struct {
	source string

	once sync.Once
	body *TemplateBody
	err  error
}

// NewTemplate wraps source without parsing it; parsing happens lazily on
// the first call to Merge or MergeTo (spec.md §4.5).
func NewTemplate(source string) *Template {
	return &Template{source: source}
}

func (t *Template) parse() (*TemplateBody, error) {
	t.once.Do(func() {
		c := newCursor(t.source)
		n, err := parseTemplateBody(c)
		if err != nil {
			t.err = err
			return
		}
		t.body = n.(*TemplateBody)
	})
	return t.body, t.err
}

// Merge evaluates the template against namespace and returns the
// rendered text. An optional Loader serves #include; NullLoader is used
// if none is given, per spec.md §4.5.
func (t *Template) Merge(namespace *Namespace, loader ...Loader) (string, error) {
	var buf bytes.Buffer
	if err := t.MergeTo(namespace, &buf, loader...); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MergeTo is Merge, writing directly to sink instead of building a
// string.
func (t *Template) MergeTo(namespace *Namespace, sink io.Writer, loader ...Loader) error {
	body, err := t.parse()
	if err != nil {
		return err
	}
	ldr := NullLoader
	if len(loader) > 0 && loader[0] != nil {
		ldr = loader[0]
	}
	return body.eval(namespace, sink, ldr)
}
