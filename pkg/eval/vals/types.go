package vals

import (
	"math/big"
	"sync"
)

// Type is a class. Calling a Type constructs a value of the type.
type Type struct {
	// Name is the name of the class, like "date".
	Name string
	// Module is the module the class is defined in, or "" for built-in
	// classes.
	Module string
	// Base is the base class, used by isinstance.
	Base *Type
	// New implements calling the type. It may be nil, in which case the type
	// cannot be instantiated.
	New func(args []any, kw Kwargs) (any, error)
	// Attrs contains the class-level members, like alternative constructors.
	Attrs map[string]any
}

// QualName returns the name of the class qualified by the module it belongs
// to, like "datetime.date". This is the name used by the attribute
// allowlists.
func (t *Type) QualName() string {
	if t.Module == "" {
		return t.Name
	}
	return t.Module + "." + t.Name
}

func (t *Type) Repr() string { return "<class '" + t.QualName() + "'>" }

// IsSubtype reports whether t is u or derives from u.
func (t *Type) IsSubtype(u *Type) bool {
	for ; t != nil; t = t.Base {
		if t == u {
			return true
		}
	}
	return false
}

// Typer is implemented by values defined outside this package, to report
// their type.
type Typer interface {
	Type() *Type
}

// Types of the built-in values.
var (
	ObjectType       = &Type{Name: "object"}
	NoneTypeType     = &Type{Name: "NoneType", Base: ObjectType}
	IntType          = &Type{Name: "int", Base: ObjectType}
	BoolType         = &Type{Name: "bool", Base: IntType}
	FloatType        = &Type{Name: "float", Base: ObjectType}
	ComplexType      = &Type{Name: "complex", Base: ObjectType}
	DecimalType      = &Type{Name: "Decimal", Module: "decimal", Base: ObjectType}
	StrType          = &Type{Name: "str", Base: ObjectType}
	BytesType        = &Type{Name: "bytes", Base: ObjectType}
	ListType         = &Type{Name: "list", Base: ObjectType}
	TupleType        = &Type{Name: "tuple", Base: ObjectType}
	DictType         = &Type{Name: "dict", Base: ObjectType}
	SetType          = &Type{Name: "set", Base: ObjectType}
	FrozenSetType    = &Type{Name: "frozenset", Base: ObjectType}
	RangeType        = &Type{Name: "range", Base: ObjectType}
	SliceType        = &Type{Name: "slice", Base: ObjectType}
	TypeType         = &Type{Name: "type", Base: ObjectType}
	ModuleType       = &Type{Name: "module", Base: ObjectType}
	BuiltinType      = &Type{Name: "builtin_function_or_method", Base: ObjectType}
	EllipsisTypeType = &Type{Name: "ellipsis", Base: ObjectType}
)

// Ellipsis is the value of the "..." literal.
type EllipsisType struct{}

var Ellipsis = EllipsisType{}

var (
	iterTypesMutex sync.Mutex
	iterTypes      = map[string]*Type{}
)

// Returns the type of iterators or views with the given name, like
// "list_iterator".
func namedType(name string) *Type {
	iterTypesMutex.Lock()
	defer iterTypesMutex.Unlock()
	t, ok := iterTypes[name]
	if !ok {
		t = &Type{Name: name, Base: ObjectType}
		iterTypes[name] = t
	}
	return t
}

// TypeOf returns the type of a value.
func TypeOf(v any) *Type {
	switch v := v.(type) {
	case NoneType:
		return NoneTypeType
	case EllipsisType:
		return EllipsisTypeType
	case bool:
		return BoolType
	case int, *big.Int:
		return IntType
	case float64:
		return FloatType
	case complex128:
		return ComplexType
	case *Decimal:
		return DecimalType
	case string:
		return StrType
	case Bytes:
		return BytesType
	case *List:
		return ListType
	case Tuple:
		return TupleType
	case *Dict:
		return DictType
	case *Set:
		if v.Frozen {
			return FrozenSetType
		}
		return SetType
	case Range, *DecimalRange:
		return RangeType
	case Slice:
		return SliceType
	case *Type:
		return TypeType
	case *Module:
		return ModuleType
	case *Builtin, *BoundMethod:
		return BuiltinType
	case *Iterator:
		return namedType(v.name)
	case DictView:
		return namedType(v.typeName())
	case Opaque:
		return namedType(v.TypeName)
	case Typer:
		return v.Type()
	}
	return namedType("object")
}

// TypeName returns the qualified name of the type of v, as used in error
// messages and attribute allowlists.
func TypeName(v any) string {
	return TypeOf(v).QualName()
}
