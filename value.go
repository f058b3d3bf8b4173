package yangmodel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// ValueKind tags a CookedValue's active field.
type ValueKind int

const (
	ValInt ValueKind = iota
	ValUint
	ValDecimal64
	ValString
	ValBinary
	ValBool
	ValEmpty
	ValBits
	ValEnum
	ValIdentityref
	ValInstanceID
	ValObject
	ValArray
)

// Decimal64 is a fixed-precision decimal: Unscaled * 10^-FractionDigits.
// FractionDigits is carried by the DataType, not the value, matching YANG
// (a decimal64 value is meaningless without its type's scale).
type Decimal64 struct {
	Unscaled int64
}

// CanonicalString renders the decimal per YANG §9: strip trailing zeroes
// beyond fractionDigits, but keep exactly fractionDigits digits after the
// point (i.e. never fewer than zero, never a bare integer when
// fractionDigits > 0).
func (d Decimal64) CanonicalString(fractionDigits int) string {
	neg := d.Unscaled < 0
	u := d.Unscaled
	if neg {
		u = -u
	}
	s := strconv.FormatInt(u, 10)
	for len(s) <= fractionDigits {
		s = "0" + s
	}
	intPart := s[:len(s)-fractionDigits]
	fracPart := s[len(s)-fractionDigits:]
	out := intPart
	if fractionDigits > 0 {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

func parseDecimal64(text string, fractionDigits int) (Decimal64, error) {
	text = strings.TrimSpace(text)
	neg := false
	if strings.HasPrefix(text, "-") {
		neg = true
		text = text[1:]
	} else if strings.HasPrefix(text, "+") {
		text = text[1:]
	}
	intPart, fracPart := text, ""
	if i := strings.IndexByte(text, '.'); i >= 0 {
		intPart, fracPart = text[:i], text[i+1:]
	}
	if len(fracPart) > fractionDigits {
		return Decimal64{}, fmt.Errorf("yangmodel: decimal64 %q has more than %d fraction digits", text, fractionDigits)
	}
	for len(fracPart) < fractionDigits {
		fracPart += "0"
	}
	digits := intPart + fracPart
	if digits == "" {
		digits = "0"
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Decimal64{}, fmt.Errorf("yangmodel: invalid decimal64 %q: %w", text, err)
	}
	if neg {
		n = -n
	}
	return Decimal64{Unscaled: n}, nil
}

// decimal64Text normalizes a raw JSON decimal64 (RFC 7951 accepts either a
// JSON number or a JSON string) to its textual form for parseDecimal64.
func decimal64Text(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("yangmodel: decimal64 must be a string or number, got %T", raw)
	}
}

// CookedValue is a typed value after schema-driven conversion
type CookedValue struct {
	Kind ValueKind

	Int     int64
	Uint    uint64
	Decimal Decimal64
	Str     string
	Bytes   []byte
	Bool    bool
	Bits    []string
	QName   QName       // identityref
	Route   InstanceRoute // instance-identifier

	Object *ObjectValue
	Array  *ArrayValue
}

// Equal implements structural equality, used by the zipper's invariants
// and by tests. Structured values compare by deep value, not by identity,
// so two separately-built but equal trees compare equal.
func (v CookedValue) Equal(o CookedValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValObject:
		return v.Object.Equal(o.Object)
	case ValArray:
		return v.Array.Equal(o.Array)
	case ValBits:
		return cmp.Equal(v.Bits, o.Bits)
	case ValBinary:
		return cmp.Equal(v.Bytes, o.Bytes)
	default:
		return cmp.Equal(v, o, cmp.Comparer(func(a, b InstanceRoute) bool { return a.Equal(b) }))
	}
}

// ObjectValue is an ordered mapping from member name to value. Members
// are keyed by their local name only; the module part of an instance-name
// (as in "example-2:bag") is not part of the key. It is immutable: every mutation returns a new ObjectValue sharing
// storage with the original for all untouched members (structural
// sharing, spec §4.6/§5).
type ObjectValue struct {
	order        []string
	members      map[string]CookedValue
	lastModified int64
}

// NewObjectValue builds an ObjectValue preserving the given insertion
// order.
func NewObjectValue(order []string, members map[string]CookedValue, ts int64) *ObjectValue {
	o := &ObjectValue{order: append([]string{}, order...), members: map[string]CookedValue{}, lastModified: ts}
	for _, k := range order {
		o.members[k] = members[k]
	}
	return o
}

func (o *ObjectValue) Len() int {
	if o == nil {
		return 0
	}
	return len(o.order)
}

func (o *ObjectValue) Names() []string {
	if o == nil {
		return nil
	}
	return append([]string{}, o.order...)
}

func (o *ObjectValue) Get(name string) (CookedValue, bool) {
	if o == nil {
		return CookedValue{}, false
	}
	v, ok := o.members[name]
	return v, ok
}

func (o *ObjectValue) LastModified() int64 {
	if o == nil {
		return 0
	}
	return o.lastModified
}

// With returns a new ObjectValue equal to o but with name set to v, and
// lastModified bumped to ts. All other members are shared by reference
// with o (structural sharing).
func (o *ObjectValue) With(name string, v CookedValue, ts int64) *ObjectValue {
	n := &ObjectValue{lastModified: ts}
	if o == nil {
		n.order = []string{name}
		n.members = map[string]CookedValue{name: v}
		return n
	}
	n.members = make(map[string]CookedValue, len(o.members)+1)
	for k, val := range o.members {
		n.members[k] = val
	}
	if _, exists := o.members[name]; exists {
		n.order = append([]string{}, o.order...)
	} else {
		n.order = append(append([]string{}, o.order...), name)
	}
	n.members[name] = v
	return n
}

// Without returns a new ObjectValue equal to o but with name removed.
func (o *ObjectValue) Without(name string, ts int64) *ObjectValue {
	if o == nil {
		return nil
	}
	n := &ObjectValue{lastModified: ts, members: make(map[string]CookedValue, len(o.members))}
	for k, v := range o.members {
		if k != name {
			n.members[k] = v
		}
	}
	for _, k := range o.order {
		if k != name {
			n.order = append(n.order, k)
		}
	}
	return n
}

func (o *ObjectValue) Equal(other *ObjectValue) bool {
	if o == nil || other == nil {
		return o == other
	}
	if len(o.order) != len(other.order) {
		return false
	}
	for _, k := range o.order {
		a, okA := o.members[k]
		b, okB := other.members[k]
		if okA != okB || !a.Equal(b) {
			return false
		}
	}
	return true
}

// ArrayValue is an ordered sequence of entry values, used for
// list and leaf-list instance data.
type ArrayValue struct {
	entries      []CookedValue
	lastModified int64
}

func NewArrayValue(entries []CookedValue, ts int64) *ArrayValue {
	return &ArrayValue{entries: append([]CookedValue{}, entries...), lastModified: ts}
}

func (a *ArrayValue) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

func (a *ArrayValue) At(i int) (CookedValue, bool) {
	if a == nil || i < 0 || i >= len(a.entries) {
		return CookedValue{}, false
	}
	return a.entries[i], true
}

func (a *ArrayValue) Entries() []CookedValue {
	if a == nil {
		return nil
	}
	return append([]CookedValue{}, a.entries...)
}

func (a *ArrayValue) LastModified() int64 {
	if a == nil {
		return 0
	}
	return a.lastModified
}

// WithAt returns a new ArrayValue with entry i replaced by v.
func (a *ArrayValue) WithAt(i int, v CookedValue, ts int64) *ArrayValue {
	n := append([]CookedValue{}, a.entries...)
	n[i] = v
	return &ArrayValue{entries: n, lastModified: ts}
}

// InsertedAt returns a new ArrayValue with v inserted before index i
// (i == Len() appends).
func (a *ArrayValue) InsertedAt(i int, v CookedValue, ts int64) *ArrayValue {
	n := make([]CookedValue, 0, a.Len()+1)
	n = append(n, a.entries[:i]...)
	n = append(n, v)
	n = append(n, a.entries[i:]...)
	return &ArrayValue{entries: n, lastModified: ts}
}

// RemovedAt returns a new ArrayValue with the entry at i removed.
func (a *ArrayValue) RemovedAt(i int, ts int64) *ArrayValue {
	n := make([]CookedValue, 0, a.Len()-1)
	n = append(n, a.entries[:i]...)
	n = append(n, a.entries[i+1:]...)
	return &ArrayValue{entries: n, lastModified: ts}
}

func (a *ArrayValue) Equal(other *ArrayValue) bool {
	if a == nil || other == nil {
		return a == other
	}
	if len(a.entries) != len(other.entries) {
		return false
	}
	for i := range a.entries {
		if !a.entries[i].Equal(other.entries[i]) {
			return false
		}
	}
	return true
}
