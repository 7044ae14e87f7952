// Package vals contains the values manipulated by the evaluator and the
// basic operations on them.
//
// Values are represented by plain Go types where the semantics allow it:
//
//   - None: [None], of type [NoneType]
//   - bool: bool
//   - int: int when it fits, *big.Int otherwise (see [NormalizeBigInt])
//   - float: float64
//   - complex: complex128
//   - decimal.Decimal: *[Decimal]
//   - str: string
//   - bytes: [Bytes]
//   - list, tuple, dict, set, frozenset: *[List], [Tuple], *[Dict], *[Set]
//   - range, slice: [Range] (or *[DecimalRange]), [Slice]
//
// Callables and namespaces are *[Type], *[Builtin], *[BoundMethod] and
// *[Module]. Other packages may define their own values, which participate in
// the generic operations by implementing the interfaces in this package, like
// [Reprer] and [Hasher].
package vals

// NoneType is the type of [None].
type NoneType struct{}

// None is the value of the None constant.
var None = NoneType{}

// Opaque stands in for a value that could not be carried across a process
// boundary. Only its representation survives; every operation on it fails.
type Opaque struct {
	TypeName string
	Repr     string
}
