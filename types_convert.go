package yangmodel

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const maxInt = int(^uint(0) >> 1)

// parseRangeArg parses a YANG "range" argument ("lo..hi | lo | lo..hi, ...")
// and intersects it with parent, rejecting any widening.
func parseRangeArg(arg string, parent []Range) ([]Range, error) {
	var out []Range
	for _, part := range strings.Split(arg, "|") {
		part = strings.TrimSpace(part)
		lo, hi, err := parseInterval(part, parent)
		if err != nil {
			return nil, err
		}
		out = append(out, Range{Min: lo, Max: hi})
	}
	if !withinParentRanges(out, parent) {
		return nil, fmt.Errorf("yangmodel: range %q widens its base type", arg)
	}
	return out, nil
}

func parseInterval(part string, parent []Range) (int64, int64, error) {
	bounds := strings.SplitN(part, "..", 2)
	parse := func(s string, wantMin bool) (int64, error) {
		s = strings.TrimSpace(s)
		switch s {
		case "min":
			if len(parent) > 0 {
				return parent[0].Min, nil
			}
			return 0, nil
		case "max":
			if len(parent) > 0 {
				return parent[len(parent)-1].Max, nil
			}
			return 0, nil
		default:
			return strconv.ParseInt(s, 10, 64)
		}
	}
	lo, err := parse(bounds[0], true)
	if err != nil {
		return 0, 0, fmt.Errorf("yangmodel: invalid range bound %q: %w", part, err)
	}
	if len(bounds) == 1 {
		return lo, lo, nil
	}
	hi, err := parse(bounds[1], false)
	if err != nil {
		return 0, 0, fmt.Errorf("yangmodel: invalid range bound %q: %w", part, err)
	}
	return lo, hi, nil
}

func withinParentRanges(child, parent []Range) bool {
	if len(parent) == 0 {
		return true
	}
	for _, c := range child {
		ok := false
		for _, p := range parent {
			if c.Min >= p.Min && c.Max <= p.Max {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// parseDecimalRangeArg parses a decimal64 "range" argument, whose bounds
// are decimal-text (e.g. "1.5..10.5"), into scaled-int64 Ranges.
func parseDecimalRangeArg(arg string, fractionDigits int, parent []Range) ([]Range, error) {
	var out []Range
	for _, part := range strings.Split(arg, "|") {
		part = strings.TrimSpace(part)
		bounds := strings.SplitN(part, "..", 2)
		parse := func(s string, extreme func() int64) (int64, error) {
			s = strings.TrimSpace(s)
			switch s {
			case "min", "max":
				return extreme(), nil
			default:
				d, err := parseDecimal64(s, fractionDigits)
				return d.Unscaled, err
			}
		}
		lo, err := parse(bounds[0], func() int64 {
			if len(parent) > 0 {
				return parent[0].Min
			}
			return decimal64Min(fractionDigits)
		})
		if err != nil {
			return nil, fmt.Errorf("yangmodel: invalid range bound %q: %w", part, err)
		}
		hi := lo
		if len(bounds) == 2 {
			hi, err = parse(bounds[1], func() int64 {
				if len(parent) > 0 {
					return parent[len(parent)-1].Max
				}
				return decimal64Max(fractionDigits)
			})
			if err != nil {
				return nil, fmt.Errorf("yangmodel: invalid range bound %q: %w", part, err)
			}
		}
		out = append(out, Range{Min: lo, Max: hi})
	}
	if !withinParentRanges(out, parent) {
		return nil, fmt.Errorf("yangmodel: range %q widens its base type", arg)
	}
	return out, nil
}

// parseLengthArg parses a YANG "length" argument analogously to range.
func parseLengthArg(arg string, parent []Length) ([]Length, error) {
	var out []Length
	for _, part := range strings.Split(arg, "|") {
		part = strings.TrimSpace(part)
		bounds := strings.SplitN(part, "..", 2)
		parse := func(s string) (int, error) {
			s = strings.TrimSpace(s)
			switch s {
			case "min":
				if len(parent) > 0 {
					return parent[0].Min, nil
				}
				return 0, nil
			case "max":
				if len(parent) > 0 {
					return parent[len(parent)-1].Max, nil
				}
				return maxInt, nil
			default:
				n, err := strconv.Atoi(s)
				return n, err
			}
		}
		lo, err := parse(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("yangmodel: invalid length bound %q: %w", part, err)
		}
		hi := lo
		if len(bounds) == 2 {
			hi, err = parse(bounds[1])
			if err != nil {
				return nil, fmt.Errorf("yangmodel: invalid length bound %q: %w", part, err)
			}
		}
		out = append(out, Length{Min: lo, Max: hi})
	}
	ok := len(parent) == 0
	for _, c := range out {
		for _, p := range parent {
			if c.Min >= p.Min && c.Max <= p.Max {
				ok = true
			}
		}
	}
	if !ok {
		return nil, fmt.Errorf("yangmodel: length %q widens its base type", arg)
	}
	return out, nil
}

// ParseValue implements parse_value: parses a value appearing as a string
// in YANG source (e.g. a "default" statement argument).
func (dt *DataType) ParseValue(text string) (CookedValue, error) {
	switch dt.Kind {
	case KindBoolean:
		switch text {
		case "true":
			return CookedValue{Kind: ValBool, Bool: true}, nil
		case "false":
			return CookedValue{Kind: ValBool, Bool: false}, nil
		}
		return CookedValue{}, fmt.Errorf("yangmodel: invalid boolean %q", text)
	case KindEmpty:
		return CookedValue{Kind: ValEmpty}, nil
	case KindString, KindBinary:
		return CookedValue{Kind: ValString, Str: text}, nil
	case KindDecimal64:
		d, err := parseDecimal64(text, dt.FractionDigits)
		if err != nil {
			return CookedValue{}, err
		}
		return CookedValue{Kind: ValDecimal64, Decimal: d}, nil
	case KindEnumeration:
		if _, ok := dt.EnumValues[text]; !ok {
			return CookedValue{}, fmt.Errorf("yangmodel: %q is not a valid enum", text)
		}
		return CookedValue{Kind: ValString, Str: text}, nil
	case KindBits:
		names := strings.Fields(text)
		for _, n := range names {
			if _, ok := dt.BitPositions[n]; !ok {
				return CookedValue{}, fmt.Errorf("yangmodel: %q is not a valid bit", n)
			}
		}
		return CookedValue{Kind: ValBits, Bits: names}, nil
	case KindIdentityref:
		prefix, local := SplitPrefixed(text)
		return CookedValue{Kind: ValIdentityref, QName: QName{Local: local, Module: prefix}}, nil
	case KindInstanceIdentifier:
		route, err := ParseInstanceIdentifier(text)
		if err != nil {
			return CookedValue{}, err
		}
		return CookedValue{Kind: ValInstanceID, Route: route}, nil
	case KindLeafref:
		if dt.LeafrefResolvedType != nil {
			return dt.LeafrefResolvedType.ParseValue(text)
		}
		return CookedValue{Kind: ValString, Str: text}, nil
	case KindUnion:
		for _, m := range dt.UnionMembers {
			if v, err := m.ParseValue(text); err == nil {
				return v, nil
			}
		}
		return CookedValue{}, fmt.Errorf("yangmodel: %q matches no union member", text)
	default:
		if isIntegerKind(dt.Kind) {
			n, err := strconv.ParseInt(strings.TrimPrefix(text, "+"), 10, 64)
			if err != nil {
				return CookedValue{}, fmt.Errorf("yangmodel: invalid integer %q: %w", text, err)
			}
			if isUnsignedKind(dt.Kind) {
				return CookedValue{Kind: ValUint, Uint: uint64(n)}, nil
			}
			return CookedValue{Kind: ValInt, Int: n}, nil
		}
	}
	return CookedValue{}, fmt.Errorf("yangmodel: cannot parse %q as %s", text, dt.Kind)
}

// FromRaw implements from_raw: converts a JSON-parsed raw value into a
// cooked value, per the RFC 7951 encoding rules of §6.
func (dt *DataType) FromRaw(raw interface{}) (CookedValue, error) {
	switch dt.Kind {
	case KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "boolean", Value: raw}
		}
		return CookedValue{Kind: ValBool, Bool: b}, nil
	case KindEmpty:
		arr, ok := raw.([]interface{})
		if !ok || len(arr) != 1 || arr[0] != nil {
			return CookedValue{}, &RawTypeError{Type: "empty", Value: raw}
		}
		return CookedValue{Kind: ValEmpty}, nil
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "string", Value: raw}
		}
		return CookedValue{Kind: ValString, Str: s}, nil
	case KindBinary:
		s, ok := raw.(string)
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "binary", Value: raw}
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return CookedValue{}, &RawTypeError{Type: "binary", Value: raw, Cause: err}
		}
		return CookedValue{Kind: ValBinary, Bytes: b}, nil
	case KindDecimal64:
		s, err := decimal64Text(raw)
		if err != nil {
			return CookedValue{}, &RawTypeError{Type: "decimal64", Value: raw, Cause: err}
		}
		d, err := parseDecimal64(s, dt.FractionDigits)
		if err != nil {
			return CookedValue{}, &RawTypeError{Type: "decimal64", Value: raw, Cause: err}
		}
		return CookedValue{Kind: ValDecimal64, Decimal: d}, nil
	case KindEnumeration:
		s, ok := raw.(string)
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "enumeration", Value: raw}
		}
		if _, ok := dt.EnumValues[s]; !ok {
			return CookedValue{}, &RawTypeError{Type: "enumeration", Value: raw}
		}
		return CookedValue{Kind: ValString, Str: s}, nil
	case KindBits:
		s, ok := raw.(string)
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "bits", Value: raw}
		}
		return dt.ParseValue(s)
	case KindIdentityref:
		s, ok := raw.(string)
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "identityref", Value: raw}
		}
		prefix, local := SplitPrefixed(s) // prefix here is the module name per RFC 7951
		return CookedValue{Kind: ValIdentityref, QName: QName{Local: local, Module: prefix}}, nil
	case KindInstanceIdentifier:
		s, ok := raw.(string)
		if !ok {
			return CookedValue{}, &RawTypeError{Type: "instance-identifier", Value: raw}
		}
		route, err := ParseInstanceIdentifier(s)
		if err != nil {
			return CookedValue{}, &RawTypeError{Type: "instance-identifier", Value: raw, Cause: err}
		}
		return CookedValue{Kind: ValInstanceID, Route: route}, nil
	case KindLeafref:
		if dt.LeafrefResolvedType != nil {
			return dt.LeafrefResolvedType.FromRaw(raw)
		}
		return CookedValue{}, &RawTypeError{Type: "leafref", Value: raw}
	case KindUnion:
		var lastErr error
		for _, m := range dt.UnionMembers {
			v, err := m.FromRaw(raw)
			if err == nil {
				return v, nil
			}
			lastErr = err
		}
		return CookedValue{}, &RawTypeError{Type: "union", Value: raw, Cause: lastErr}
	default:
		if isIntegerKind(dt.Kind) {
			return fromRawInteger(dt, raw)
		}
	}
	return CookedValue{}, &RawTypeError{Type: dt.Kind.String(), Value: raw}
}

func fromRawInteger(dt *DataType, raw interface{}) (CookedValue, error) {
	is64 := dt.Kind == KindInt64 || dt.Kind == KindUint64
	if is64 {
		s, ok := raw.(string)
		if !ok {
			return CookedValue{}, &RawTypeError{Type: dt.Kind.String(), Value: raw}
		}
		if isUnsignedKind(dt.Kind) {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return CookedValue{}, &RawTypeError{Type: dt.Kind.String(), Value: raw, Cause: err}
			}
			return CookedValue{Kind: ValUint, Uint: n}, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return CookedValue{}, &RawTypeError{Type: dt.Kind.String(), Value: raw, Cause: err}
		}
		return CookedValue{Kind: ValInt, Int: n}, nil
	}
	f, ok := raw.(float64)
	if !ok {
		return CookedValue{}, &RawTypeError{Type: dt.Kind.String(), Value: raw}
	}
	if isUnsignedKind(dt.Kind) {
		return CookedValue{Kind: ValUint, Uint: uint64(f)}, nil
	}
	return CookedValue{Kind: ValInt, Int: int64(f)}, nil
}

// ToRaw implements to_raw: the inverse of FromRaw.
func (dt *DataType) ToRaw(v CookedValue) (interface{}, error) {
	switch dt.Kind {
	case KindBoolean:
		return v.Bool, nil
	case KindEmpty:
		return []interface{}{nil}, nil
	case KindString, KindEnumeration:
		return v.Str, nil
	case KindBinary:
		return base64.StdEncoding.EncodeToString(v.Bytes), nil
	case KindDecimal64:
		return dt.CanonicalString(v), nil
	case KindBits:
		return strings.Join(v.Bits, " "), nil
	case KindIdentityref:
		return v.QName.String(), nil
	case KindInstanceIdentifier:
		return FormatInstanceIdentifier(v.Route), nil
	case KindLeafref:
		if dt.LeafrefResolvedType != nil {
			return dt.LeafrefResolvedType.ToRaw(v)
		}
		return v.Str, nil
	case KindUnion:
		for _, m := range dt.UnionMembers {
			raw, err := m.ToRaw(v)
			if err != nil {
				continue
			}
			if back, err := m.FromRaw(raw); err == nil && back.Equal(v) {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("yangmodel: no union member accepts value kind %v", v.Kind)
	default:
		if isIntegerKind(dt.Kind) {
			if dt.Kind == KindInt64 || dt.Kind == KindUint64 {
				return dt.CanonicalString(v), nil
			}
			if isUnsignedKind(dt.Kind) {
				return float64(v.Uint), nil
			}
			return float64(v.Int), nil
		}
	}
	return nil, fmt.Errorf("yangmodel: cannot render %s as raw", dt.Kind)
}

// CanonicalString implements canonical_string (YANG §9).
func (dt *DataType) CanonicalString(v CookedValue) string {
	switch dt.Kind {
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindEmpty:
		return ""
	case KindString, KindEnumeration:
		return v.Str
	case KindBinary:
		return base64.StdEncoding.EncodeToString(v.Bytes)
	case KindDecimal64:
		return v.Decimal.CanonicalString(dt.FractionDigits)
	case KindBits:
		sorted := append([]string{}, v.Bits...)
		sort.Slice(sorted, func(i, j int) bool { return dt.BitPositions[sorted[i]] < dt.BitPositions[sorted[j]] })
		return strings.Join(sorted, " ")
	case KindIdentityref:
		return v.QName.String()
	case KindInstanceIdentifier:
		return FormatInstanceIdentifier(v.Route)
	case KindLeafref:
		if dt.LeafrefResolvedType != nil {
			return dt.LeafrefResolvedType.CanonicalString(v)
		}
		return v.Str
	case KindUnion:
		for _, m := range dt.UnionMembers {
			if raw, err := m.ToRaw(v); err == nil {
				if back, err := m.FromRaw(raw); err == nil && back.Equal(v) {
					return m.CanonicalString(v)
				}
			}
		}
		return v.Str
	default:
		if isUnsignedKind(dt.Kind) {
			return strconv.FormatUint(v.Uint, 10)
		}
		if isIntegerKind(dt.Kind) {
			return strconv.FormatInt(v.Int, 10)
		}
	}
	return ""
}

// Contains implements contains: a full type-restriction check. On failure
// it records ErrorTag/ErrorMessage (custom if error-app-tag/error-message
// were set, else a default) and returns false.
func (dt *DataType) Contains(v CookedValue) bool {
	ok, tag, msg := dt.check(v)
	if !ok {
		if dt.ErrorTag == "" {
			dt.ErrorTag = TagInvalidType
		} else {
			dt.ErrorTag = ErrorTag(dt.ErrorTag)
		}
		if dt.ErrorMessage == "" {
			dt.ErrorMessage = msg
		}
		_ = tag
	}
	return ok
}

func (dt *DataType) check(v CookedValue) (bool, ErrorTag, string) {
	switch dt.Kind {
	case KindBoolean:
		return v.Kind == ValBool, TagInvalidType, "not a boolean"
	case KindEmpty:
		return v.Kind == ValEmpty, TagInvalidType, "not empty"
	case KindString, KindBinary:
		n := len(v.Str)
		if dt.Kind == KindBinary {
			n = len(v.Bytes)
		}
		if len(dt.Lengths) > 0 && !withinLengths(n, dt.Lengths) {
			return false, TagInvalidType, "length out of range"
		}
		s := v.Str
		if dt.Kind == KindBinary {
			s = base64.StdEncoding.EncodeToString(v.Bytes)
		}
		for _, re := range dt.Patterns {
			if !re.MatchString(s) {
				return false, TagInvalidType, "pattern mismatch"
			}
		}
		for _, re := range dt.InvertPatterns {
			if re.MatchString(s) {
				return false, TagInvalidType, "inverted pattern matched"
			}
		}
		return true, "", ""
	case KindDecimal64:
		if len(dt.Ranges) > 0 && !withinRanges(v.Decimal.Unscaled, dt.Ranges) {
			return false, TagInvalidType, "range out of bounds"
		}
		return v.Kind == ValDecimal64, TagInvalidType, "not a decimal64"
	case KindEnumeration:
		_, ok := dt.EnumValues[v.Str]
		return ok, TagInvalidType, "not a valid enum value"
	case KindBits:
		for _, b := range v.Bits {
			if _, ok := dt.BitPositions[b]; !ok {
				return false, TagInvalidType, "not a valid bit"
			}
		}
		return true, "", ""
	case KindIdentityref:
		return true, "", ""
	case KindInstanceIdentifier:
		return v.Kind == ValInstanceID, TagInvalidType, "not an instance-identifier"
	case KindLeafref:
		if dt.LeafrefResolvedType != nil {
			return dt.LeafrefResolvedType.check(v)
		}
		return true, "", ""
	case KindUnion:
		for _, m := range dt.UnionMembers {
			if ok, _, _ := m.check(v); ok {
				return true, "", ""
			}
		}
		return false, TagInvalidType, "matches no union member"
	default:
		if isIntegerKind(dt.Kind) {
			if isUnsignedKind(dt.Kind) {
				if len(dt.Ranges) > 0 && !withinUnsignedRanges(v.Uint, dt.Ranges) {
					return false, TagInvalidType, "range out of bounds"
				}
				return true, "", ""
			}
			if len(dt.Ranges) > 0 && !withinRanges(v.Int, dt.Ranges) {
				return false, TagInvalidType, "range out of bounds"
			}
			return true, "", ""
		}
	}
	return false, TagInvalidType, "unknown type"
}

func withinRanges(n int64, ranges []Range) bool {
	for _, r := range ranges {
		if n >= r.Min && n <= r.Max {
			return true
		}
	}
	return false
}

// withinUnsignedRanges compares n against ranges using unsigned semantics.
// A Range's Min/Max are stored as int64 but, for Uint32/Uint64 bounds that
// overflow int64 (e.g. the builtin uint64 max), they hold the value's raw
// bit pattern; reading them back via uint64(...) undoes the reinterpretation
// and recovers the intended unsigned bound.
func withinUnsignedRanges(n uint64, ranges []Range) bool {
	for _, r := range ranges {
		if n >= uint64(r.Min) && n <= uint64(r.Max) {
			return true
		}
	}
	return false
}

func withinLengths(n int, lens []Length) bool {
	for _, l := range lens {
		if n >= l.Min && n <= l.Max {
			return true
		}
	}
	return false
}
