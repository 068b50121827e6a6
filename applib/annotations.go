// Package applib holds the declarative vocabulary domain types use to describe
// themselves to the metamodel.
package applib

// Nature classifies a domain type.
type Nature int

const (
	NatureNotSpecified Nature = iota
	NatureEntity
	NatureViewModel
	NatureMixin
	NatureBean
)

// String returns the string representation of a Nature
func (n Nature) String() string {
	switch n {
	case NatureEntity:
		return "entity"
	case NatureViewModel:
		return "view_model"
	case NatureMixin:
		return "mixin"
	case NatureBean:
		return "bean"
	default:
		return "not_specified"
	}
}

// BookmarkPolicy controls whether an object or a safe action can be bookmarked.
type BookmarkPolicy int

const (
	BookmarkNotSpecified BookmarkPolicy = iota
	BookmarkNever
	BookmarkAsRoot
	BookmarkAsChild
)

// String returns the string representation of a BookmarkPolicy
func (b BookmarkPolicy) String() string {
	switch b {
	case BookmarkNever:
		return "never"
	case BookmarkAsRoot:
		return "as_root"
	case BookmarkAsChild:
		return "as_child"
	default:
		return "not_specified"
	}
}

// SemanticsOf describes the side effects of invoking an action.
type SemanticsOf int

const (
	SemanticsNotSpecified SemanticsOf = iota
	Safe
	SafeAndRequestCacheable
	Idempotent
	IdempotentAreYouSure
	NonIdempotent
	NonIdempotentAreYouSure
)

// IsSafeInNature reports whether invoking the action leaves state unchanged.
func (s SemanticsOf) IsSafeInNature() bool {
	return s == Safe || s == SafeAndRequestCacheable
}

// String returns the string representation of a SemanticsOf
func (s SemanticsOf) String() string {
	switch s {
	case Safe:
		return "safe"
	case SafeAndRequestCacheable:
		return "safe_and_request_cacheable"
	case Idempotent:
		return "idempotent"
	case IdempotentAreYouSure:
		return "idempotent_are_you_sure"
	case NonIdempotent:
		return "non_idempotent"
	case NonIdempotentAreYouSure:
		return "non_idempotent_are_you_sure"
	default:
		return "not_specified"
	}
}

// Where narrows the contexts a hidden member is hidden in.
type Where int

const (
	WhereNotSpecified Where = iota
	Everywhere
	ObjectForms
	AllTables
	Nowhere
)

// Includes reports whether w covers the context other.
func (w Where) Includes(other Where) bool {
	switch w {
	case Everywhere:
		return other != Nowhere
	case Nowhere, WhereNotSpecified:
		return false
	default:
		return w == other
	}
}

// Annotations is the declarative description a type returns from
// MetamodelAnnotations.
type Annotations struct {
	Object  ObjectAnnotation
	Actions map[string]ActionAnnotation
}

// ObjectAnnotation describes the type as a whole.
type ObjectAnnotation struct {
	Nature      Nature
	Named       string
	Plural      string
	Bookmarking BookmarkPolicy
	Bounded     bool
	// Table overrides the table name used by SQL-backed persistence.
	Table string
	// MixinFor is a typed nil pointer of the type a mixin contributes to,
	// e.g. (*todo.Item)(nil).
	MixinFor any
	// MixinMethod names the method a mixin contributes; defaults to "Act".
	MixinMethod string
}

// ActionAnnotation marks a method as an explicit action.
type ActionAnnotation struct {
	Semantics      SemanticsOf
	Bookmarking    BookmarkPolicy
	Hidden         Where
	Named          string
	ParameterNames []string
	// Optional lists parameter indexes that may be left empty.
	Optional []int
}

// Annotated is implemented by domain types that describe themselves.
type Annotated interface {
	MetamodelAnnotations() Annotations
}

// Enumerated is implemented by types with a closed set of instances.
type Enumerated interface {
	EnumValues() []any
}

// Defaulted is implemented by types that provide their own default instance.
type Defaulted interface {
	DefaultValue() any
}
