// Package traversal walks an in-memory object graph along a relation path.
//
// Objects take part in traversal by implementing MemberNavigable and/or
// IndexNavigable. Plain decoded documents (map[string]any, []any and a few
// common concrete collections) are navigable without any adapter. Nothing
// else is inspected: a struct that does not implement the capability has no
// members as far as traversal is concerned.
package traversal

import (
	"fmt"
	"reflect"

	"kilometers.ai/locator/internal/core/domain/datasource"
)

// MemberNavigable is implemented by objects exposing named members.
// ok is false when the member does not exist at all; a present member may
// still hold nil.
type MemberNavigable interface {
	Member(name string) (value any, ok bool, err error)
}

// IndexNavigable is implemented by ordered collections.
// ok is false when the index is out of range.
type IndexNavigable interface {
	Index(i int) (value any, ok bool, err error)
}

// TraversePath applies path to root left to right and returns the addressed
// object.
//
// A nil root yields nil for any path and an empty path returns root
// unchanged. A nil value reached at any step, including a nil pointer to a
// navigable type, halts traversal with a nil result and no error. A segment that is
// absent from the current object fails with *datasource.UnknownMemberError
// naming the segment and the shape of the last object reached. Failures
// reported by a navigable object itself are returned wrapped and unclassified.
func TraversePath(root any, path datasource.RelationPath) (any, error) {
	if isNil(root) {
		return nil, nil
	}
	if len(path) == 0 {
		return root, nil
	}

	current := root
	for _, seg := range path {
		next, ok, err := step(current, seg)
		if err != nil {
			return nil, fmt.Errorf("traverse %s on %s: %w", seg, datasource.ShapeOf(current), err)
		}
		if !ok {
			return nil, &datasource.UnknownMemberError{
				Segment: seg,
				Shape:   datasource.ShapeOf(current),
			}
		}
		if isNil(next) {
			return nil, nil
		}
		current = next
	}

	return current, nil
}

func step(current any, seg datasource.Segment) (any, bool, error) {
	if seg.IsIndex() {
		return index(current, seg.Position())
	}
	return member(current, seg.Name())
}

func member(current any, name string) (any, bool, error) {
	switch v := current.(type) {
	case MemberNavigable:
		return v.Member(name)
	case map[string]any:
		value, ok := v[name]
		return value, ok, nil
	case map[string]string:
		value, ok := v[name]
		return value, ok, nil
	case map[any]any:
		// YAML mappings with non-string keys; 2024 matches member "2024"
		if value, ok := v[name]; ok {
			return value, true, nil
		}
		for k, value := range v {
			if fmt.Sprint(k) == name {
				return value, true, nil
			}
		}
		return nil, false, nil
	default:
		// Collections require an explicit index; there is no implicit first element.
		return nil, false, nil
	}
}

func index(current any, i int) (any, bool, error) {
	switch v := current.(type) {
	case IndexNavigable:
		return v.Index(i)
	case []any:
		if i >= len(v) {
			return nil, false, nil
		}
		return v[i], true, nil
	case []map[string]any:
		if i >= len(v) {
			return nil, false, nil
		}
		return v[i], true, nil
	case []string:
		if i >= len(v) {
			return nil, false, nil
		}
		return v[i], true, nil
	default:
		return nil, false, nil
	}
}

// isNil reports untyped nil and nil values of nilable kinds, so a nil
// pointer to a navigable type counts as an unset relationship.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
