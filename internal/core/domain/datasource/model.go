package datasource

import "fmt"

// Shape is the runtime type or schema token of an object
type Shape string

// String returns the shape token
func (s Shape) String() string { return string(s) }

// IsZero reports whether no shape has been recorded
func (s Shape) IsZero() bool { return s == "" }

// Shaped is implemented by objects that report their own schema token
// instead of their Go type name.
type Shaped interface {
	Shape() Shape
}

// ShapeOf returns the shape of v: the token v reports when it is Shaped,
// otherwise its Go type name such as map[string]interface {}. Nil has the
// empty shape.
//
// Provider roots follow RootShapeOf instead, so every provider kind reports
// its root the same way.
func ShapeOf(v any) Shape {
	if v == nil {
		return ""
	}
	if s, ok := v.(Shaped); ok {
		return s.Shape()
	}
	return Shape(fmt.Sprintf("%T", v))
}

// ProviderMetadata is the identity a provider declares about itself
type ProviderMetadata struct {
	Name        string `json:"name" yaml:"name"`
	Shape       Shape  `json:"shape" yaml:"shape"`
	Description string `json:"description" yaml:"description"`
}

// Validate checks the metadata carries a name
func (m ProviderMetadata) Validate() error {
	if m.Name == "" {
		return InvalidArgument("provider metadata", "name cannot be empty")
	}
	return nil
}

// Definition is the caller-owned record describing which provider to load and
// where to navigate inside its data. The resolver only writes RootShape and
// TargetShape.
type Definition struct {
	Folder       string
	ProviderName string
	RelationPath RelationPath
	RootShape    Shape
	TargetShape  Shape
}

// NewDefinition creates a Definition from its textual parts
func NewDefinition(folder, providerName, relationPath string) (*Definition, error) {
	path, err := ParseRelationPath(relationPath)
	if err != nil {
		return nil, err
	}
	return &Definition{
		Folder:       folder,
		ProviderName: providerName,
		RelationPath: path,
	}, nil
}

// ClearResolvedShapes forgets the shapes recorded by a previous resolution
func (d *Definition) ClearResolvedShapes() {
	d.RootShape = ""
	d.TargetShape = ""
}

// IsResolved reports whether a root shape has been recorded
func (d *Definition) IsResolved() bool {
	return !d.RootShape.IsZero()
}

// RootShapeOf returns the shape of a provider root. A Shaped root reports its
// own token; otherwise the shape declared for the provider is used, and the
// Go type name only when nothing was declared. A nil root has the empty shape.
func RootShapeOf(root any, declared Shape) Shape {
	if root == nil {
		return ""
	}
	if s, ok := root.(Shaped); ok {
		return s.Shape()
	}
	if !declared.IsZero() {
		return declared
	}
	return ShapeOf(root)
}
