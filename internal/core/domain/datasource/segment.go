package datasource

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind distinguishes named member lookups from indexed lookups
type SegmentKind int

const (
	SegmentMember SegmentKind = iota
	SegmentIndex
)

// Segment is a value object representing one navigation step of a relation path
type Segment struct {
	kind  SegmentKind
	name  string
	index int
}

// NewMember creates a named-member segment with validation
func NewMember(name string) (Segment, error) {
	if name == "" {
		return Segment{}, InvalidArgument("segment", "member name cannot be empty")
	}
	if strings.ContainsAny(name, ".[]") {
		return Segment{}, InvalidArgument("segment", fmt.Sprintf("member name %q contains a reserved character", name))
	}
	return Segment{kind: SegmentMember, name: name}, nil
}

// NewIndex creates an index segment with validation
func NewIndex(index int) (Segment, error) {
	if index < 0 {
		return Segment{}, InvalidArgument("segment", fmt.Sprintf("index %d is negative", index))
	}
	return Segment{kind: SegmentIndex, index: index}, nil
}

// Member is NewMember for literals known to be valid. It panics otherwise.
func Member(name string) Segment {
	s, err := NewMember(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Index is NewIndex for literals known to be valid. It panics otherwise.
func Index(index int) Segment {
	s, err := NewIndex(index)
	if err != nil {
		panic(err)
	}
	return s
}

// Kind returns the segment kind
func (s Segment) Kind() SegmentKind { return s.kind }

// Name returns the member name; empty for index segments
func (s Segment) Name() string { return s.name }

// Position returns the index; zero for member segments
func (s Segment) Position() int { return s.index }

// IsIndex reports whether the segment addresses a collection element
func (s Segment) IsIndex() bool { return s.kind == SegmentIndex }

// String renders the segment in relation path notation
func (s Segment) String() string {
	if s.kind == SegmentIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.name
}

// RelationPath is an ordered sequence of segments, applied left to right
type RelationPath []Segment

// ParseRelationPath parses "Customers.Acme.Orders[0].Total" into segments.
// An empty string yields an empty path.
func ParseRelationPath(text string) (RelationPath, error) {
	if text == "" {
		return RelationPath{}, nil
	}

	var path RelationPath
	for _, part := range strings.Split(text, ".") {
		if part == "" {
			return nil, InvalidArgument("relation path", fmt.Sprintf("%q has an empty segment", text))
		}

		name := part
		rest := ""
		if i := strings.IndexByte(part, '['); i >= 0 {
			name, rest = part[:i], part[i:]
		}

		if name != "" {
			seg, err := NewMember(name)
			if err != nil {
				return nil, fmt.Errorf("relation path %q: %w", text, err)
			}
			path = append(path, seg)
		} else if len(path) == 0 || rest == "" {
			return nil, InvalidArgument("relation path", fmt.Sprintf("%q has an index without a member", text))
		}

		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return nil, InvalidArgument("relation path", fmt.Sprintf("%q has a malformed index", text))
			}
			n, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return nil, InvalidArgument("relation path", fmt.Sprintf("%q has a non-numeric index %q", text, rest[1:end]))
			}
			seg, err := NewIndex(n)
			if err != nil {
				return nil, fmt.Errorf("relation path %q: %w", text, err)
			}
			path = append(path, seg)
			rest = rest[end+1:]
		}
	}

	return path, nil
}

// MustParseRelationPath panics when text is malformed
func MustParseRelationPath(text string) RelationPath {
	p, err := ParseRelationPath(text)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the path back into its textual form
func (p RelationPath) String() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 && !s.IsIndex() {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// IsEmpty reports whether the path is the identity transform
func (p RelationPath) IsEmpty() bool { return len(p) == 0 }
