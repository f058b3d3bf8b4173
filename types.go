package yangmodel

import (
	"math"
	"regexp"
)

// TypeKind enumerates the built-in YANG type variants.
type TypeKind int

const (
	KindInt8 TypeKind = iota
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindDecimal64
	KindString
	KindBinary
	KindBoolean
	KindEmpty
	KindBits
	KindEnumeration
	KindIdentityref
	KindInstanceIdentifier
	KindLeafref
	KindUnion
)

// Range is an inclusive numeric interval; Min/Max are int64 for integer
// kinds and scaled-int64 (fraction-digits applied) for decimal64.
type Range struct{ Min, Max int64 }

// Length is an inclusive string/binary length interval. An unbounded
// upper side is stored as the largest int ("min"/"max" keywords resolve to
// the parent type's extremes at build time).
type Length struct{ Min, Max int }

// DataType is a tagged variant over the built-in YANG type space, carrying
// whatever restrictions apply to Kind.
type DataType struct {
	Kind TypeKind
	Name string // populated for derived (typedef'd) types; diagnostics only

	Ranges  []Range  // numeric types
	Lengths []Length // string/binary

	Patterns        []*regexp.Regexp // positive-match, all must match
	InvertPatterns  []*regexp.Regexp // none may match
	PatternSource   []string
	InvertPatternSource []string

	FractionDigits int // decimal64

	BitPositions map[string]int64 // bits: name -> position
	EnumValues   map[string]int64 // enumeration: name -> value

	IdentityBases []QName // identityref

	RequireInstance bool // instance-identifier, leafref

	// DeclaringModule is the module the "type" statement text was written
	// in, needed to resolve prefixes in a later-compiled leafref path.
	DeclaringModule ModuleID

	LeafrefPath           string // raw "path" argument
	LeafrefCompiledPath   *XPathExpr
	LeafrefResolvedTarget *SchemaNode
	LeafrefResolvedType   *DataType

	UnionMembers []*DataType // union, in declaration order

	Default      CookedValue
	HasDefault   bool

	ErrorTag     ErrorTag
	ErrorMessage string
}

// builtinRange returns the full native range for an integer kind, used as
// the starting point of range narrowing and as the resolution of the
// "min"/"max" range keywords.
func builtinRange(k TypeKind) Range {
	switch k {
	case KindInt8:
		return Range{-128, 127}
	case KindInt16:
		return Range{-32768, 32767}
	case KindInt32:
		return Range{-2147483648, 2147483647}
	case KindInt64:
		return Range{-9223372036854775808, 9223372036854775807}
	case KindUint8:
		return Range{0, 255}
	case KindUint16:
		return Range{0, 65535}
	case KindUint32:
		return Range{0, 4294967295}
	case KindUint64:
		// uint64's true max (2^64-1) overflows int64; store it as its raw
		// 64-bit pattern (the same bits as -1) and require callers to read
		// it back via uint64(r.Max), which undoes the reinterpretation and
		// yields 18446744073709551615 (see withinUnsignedRanges).
		max := uint64(math.MaxUint64)
		return Range{0, int64(max)}
	default:
		return Range{}
	}
}

func (k TypeKind) String() string {
	switch k {
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindDecimal64:
		return "decimal64"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindBoolean:
		return "boolean"
	case KindEmpty:
		return "empty"
	case KindBits:
		return "bits"
	case KindEnumeration:
		return "enumeration"
	case KindIdentityref:
		return "identityref"
	case KindInstanceIdentifier:
		return "instance-identifier"
	case KindLeafref:
		return "leafref"
	case KindUnion:
		return "union"
	default:
		return "unknown"
	}
}

func isIntegerKind(k TypeKind) bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
	return false
}

func isUnsignedKind(k TypeKind) bool {
	switch k {
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
	return false
}
