package vtl

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// Value is any host-side value flowing through evaluation: an integer
// (int64), a string, nil, a Callable, an Object, or an arbitrary Go value
// supplied by the caller's namespace. Grounded on spec.md §9's "Value
// polymorphism" design note (a sum type with variants for integer, string,
// null, callable, structured object), modeled here as a plain `any` plus
// the two interfaces below rather than a closed sum type, since the
// caller's namespace can hand the engine arbitrary host values (structs,
// maps, funcs) that a closed variant set could never enumerate.
type Value = any

// Object is a structured value with named members, matching spec.md §9's
// "structured object (named-member accessor closure)". Get reports
// whether name exists, distinguishing "found but nil" from "not found";
// memberLookup ignores that flag and treats both as nil.
type Object interface {
	Get(name string) (Value, bool)
}

// Callable is a user-supplied function value with a fixed arity, matching
// spec.md §9's "callable (parameter arity + evaluator)" variant.
type Callable interface {
	Arity() int
	Call(args []Value) (Value, error)
}

// CallableFunc adapts a plain Go function of fixed arity to Callable.
type CallableFunc struct {
	N int
	F func(args []Value) (Value, error)
}

func (c CallableFunc) Arity() int { return c.N }
func (c CallableFunc) Call(args []Value) (Value, error) {
	return c.F(args)
}

// memberLookup implements NameOrCall's "look up as a member/attribute of
// the current object, else as a keyed entry" rule (spec.md §4.2). An
// Object is tried first via Get; otherwise a Go map is tried by key, and a
// Go struct (or pointer to struct) is tried by exported field name — the
// two concrete shapes "attribute" and "keyed entry" take in idiomatic Go.
func memberLookup(obj Value, name string) Value {
	if obj == nil {
		return nil
	}
	// The outermost evaluation context passes the Namespace itself as
	// "current object" (spec.md §4.2: "the top-level namespace is the
	// evaluation namespace"), so a lookup against it walks the scope
	// chain instead of falling through to reflection.
	if ns, ok := obj.(*Namespace); ok {
		v, _ := ns.Get(name)
		return v
	}
	if o, ok := obj.(Object); ok {
		v, _ := o.Get(name)
		return v
	}
	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(name)
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(key.Convert(rv.Type().Key()))
			if mv.IsValid() {
				return mv.Interface()
			}
		}
		return nil
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return memberLookup(rv.Elem().Interface(), name)
	case reflect.Struct:
		if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
		return nil
	default:
		return nil
	}
}

// asCallable adapts obj to Callable: either obj already implements
// Callable, or it's a plain Go func value, wrapped by reflection.
func asCallable(obj Value) (Callable, bool) {
	if c, ok := obj.(Callable); ok {
		return c, true
	}
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, false
	}
	return reflectCallable{rv}, true
}

type reflectCallable struct {
	fn reflect.Value
}

func (c reflectCallable) Arity() int {
	return c.fn.Type().NumIn()
}

func (c reflectCallable) Call(args []Value) (Value, error) {
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = reflect.New(c.fn.Type().In(i)).Elem()
			continue
		}
		av := reflect.ValueOf(a)
		if av.Type().AssignableTo(c.fn.Type().In(i)) {
			in[i] = av
		} else if av.Type().ConvertibleTo(c.fn.Type().In(i)) {
			in[i] = av.Convert(c.fn.Type().In(i))
		} else {
			return nil, templateErrorf("argument %d of type %s is not assignable to %s", i, av.Type(), c.fn.Type().In(i))
		}
	}
	out := c.fn.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		if errv := out[len(out)-1]; !errv.IsNil() {
			return nil, errv.Interface().(error)
		}
		return out[0].Interface(), nil
	}
}

// Truthy implements spec.md §4.2's Condition truthiness, resolved per
// SPEC_FULL.md §4.6 toward airspeed's plain Python truthiness: nil,
// boolean false, integer zero, empty string and empty slice/array are
// falsey; everything else is truthy.
func Truthy(v Value) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() != 0
	}
	return true
}

// Stringify renders v the way a Placeholder writes it to the output sink:
// the string form of the value. Uses spf13/cast so numeric and boolean
// host values from the caller's namespace render without a hand-rolled
// type switch; falls back to fmt.Sprintf for values cast can't handle.
func Stringify(v Value) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// compareValues implements BinaryOperator (spec.md §4.2): a straightforward
// comparison, numeric when either side is an int64 and both convert to
// int64, otherwise lexical when cast converts both sides to strings (which
// includes other numeric types, booleans and nil, rendered as ""), falling
// back to equality-only for anything else.
func compareValues(op string, a, b Value) bool {
	_, aIsInt := a.(int64)
	_, bIsInt := b.(int64)
	if aIsInt || bIsInt {
		if av, aerr := cast.ToInt64E(a); aerr == nil {
			if bv, berr := cast.ToInt64E(b); berr == nil {
				return applyOrdering(op, cmpInt64(av, bv))
			}
		}
	}
	if as, aerr := cast.ToStringE(a); aerr == nil {
		if bs, berr := cast.ToStringE(b); berr == nil {
			return applyOrdering(op, strings.Compare(as, bs))
		}
	}
	switch op {
	case "==":
		return reflect.DeepEqual(a, b)
	case "!=":
		return !reflect.DeepEqual(a, b)
	default:
		return false
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func applyOrdering(op string, cmp int) bool {
	switch op {
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	default:
		return false
	}
}
