package registry

import "fmt"

// Kind enumerates the scalar semantic types a field can carry.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindDate
	KindArray
)

// SemanticType is the declared type of a filterable field. Elem is set only
// for KindArray and is itself never an array.
type SemanticType struct {
	Kind Kind
	Elem Kind
}

var (
	String  = SemanticType{Kind: KindString}
	Number  = SemanticType{Kind: KindNumber}
	Boolean = SemanticType{Kind: KindBoolean}
	Date    = SemanticType{Kind: KindDate}
)

// Array returns the array-of-elem semantic type.
func Array(elem SemanticType) SemanticType {
	return SemanticType{Kind: KindArray, Elem: elem.Kind}
}

// IsArray reports whether the type is an array type.
func (t SemanticType) IsArray() bool { return t.Kind == KindArray }

// Element returns the element type of an array type, or t itself.
func (t SemanticType) Element() SemanticType {
	if t.Kind != KindArray {
		return t
	}
	return SemanticType{Kind: t.Elem}
}

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (t SemanticType) String() string {
	if t.Kind == KindArray {
		return "array<" + t.Elem.String() + ">"
	}
	return t.Kind.String()
}

// Transform selects a special rewrite applied by the external compiler.
type Transform int

const (
	TransformNone Transform = iota
	// TransformSlug rewrites a title-like field into a filter on the external slug field.
	TransformSlug
	// TransformPlatform remaps classification IDs through the platform translation table.
	TransformPlatform
)

// FieldDescriptor describes one filterable field of an entity.
type FieldDescriptor struct {
	Name string
	Type SemanticType

	// StoreName is the document-store field name. Empty means Name.
	StoreName string

	// ExternalName is the external-service field name. Empty means the
	// field has no external equivalent and is local-only.
	ExternalName string

	Transform Transform

	// SlugField is the external field targeted by TransformSlug.
	SlugField string
}

// Store returns the document-store field name.
func (f FieldDescriptor) Store() string {
	if f.StoreName != "" {
		return f.StoreName
	}
	return f.Name
}

// External reports the external-service name and whether the field has one.
func (f FieldDescriptor) External() (string, bool) {
	return f.ExternalName, f.ExternalName != ""
}

// Relation describes how an entity points at another entity. ForeignKey is
// the store field on the owning entity that holds the related identity values.
type Relation struct {
	Entity     string
	ForeignKey string

	// Cascade marks the owning documents for deletion when the related
	// entity is deleted.
	Cascade bool
}

// ExternalDescriptor is set on entities the external search service knows.
type ExternalDescriptor struct {
	Endpoint string

	// IdentityField is the external record's identity field.
	IdentityField string

	// LocalIdentityField is the local field holding the external identity.
	LocalIdentityField string

	// Fields is the default projection requested from the external service.
	Fields []string
}

// EntityDescriptor describes one queryable entity.
type EntityDescriptor struct {
	Name       string
	Collection string

	Fields map[string]FieldDescriptor

	// IdentityField is the public numeric identifier.
	IdentityField string

	// InternalIDField is the storage-internal identifier accepted raw.
	InternalIDField string

	MutableFields []string

	// LocalOnlyFields is derived on registration for external entities.
	LocalOnlyFields map[string]struct{}

	// Relations is keyed by relation name, which is the related entity name.
	Relations map[string]Relation

	External *ExternalDescriptor
}

// Field looks up a field descriptor by its public name.
func (e *EntityDescriptor) Field(name string) (FieldDescriptor, bool) {
	f, ok := e.Fields[name]
	return f, ok
}

// Relation looks up a relation by the related entity's name.
func (e *EntityDescriptor) Relation(name string) (Relation, bool) {
	r, ok := e.Relations[name]
	return r, ok
}

// IsLocalOnly reports whether the field cannot be queried externally.
func (e *EntityDescriptor) IsLocalOnly(field string) bool {
	_, ok := e.LocalOnlyFields[field]
	return ok
}

// IsMutable reports whether field may be changed by a partial update.
func (e *EntityDescriptor) IsMutable(field string) bool {
	for _, m := range e.MutableFields {
		if m == field {
			return true
		}
	}
	return false
}

// IsExternal reports whether the external search service knows this entity.
func (e *EntityDescriptor) IsExternal() bool {
	return e.External != nil
}
