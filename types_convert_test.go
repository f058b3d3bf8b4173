package yangmodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Invariant 5: canonical_string(parse_value(canonical_string(v))) == canonical_string(v).
func TestDecimal64CanonicalRoundTrip(t *testing.T) {
	dt := &DataType{Kind: KindDecimal64, FractionDigits: 7}
	v, err := dt.ParseValue("0")
	require.NoError(t, err)

	first := dt.CanonicalString(v)
	require.Equal(t, "0.0000000", first)

	v2, err := dt.ParseValue(first)
	require.NoError(t, err)
	require.Equal(t, first, dt.CanonicalString(v2))
}

func TestIntegerRawRoundTrip(t *testing.T) {
	dt := &DataType{Kind: KindInt64, Ranges: []Range{builtinRange(KindInt64)}}
	v, err := dt.FromRaw("-42")
	require.NoError(t, err)

	raw, err := dt.ToRaw(v)
	require.NoError(t, err)

	v2, err := dt.FromRaw(raw)
	require.NoError(t, err)
	require.True(t, v.Equal(v2), "round trip mismatch: %+v != %+v", v, v2)
}

// A uint64 value above math.MaxInt64 must validate against the builtin
// (unrestricted) range, not be rejected by a lossy int64 reinterpretation.
func TestUint64FullWidthValueWithinBuiltinRange(t *testing.T) {
	dt := &DataType{Kind: KindUint64, Ranges: []Range{builtinRange(KindUint64)}}
	v, err := dt.FromRaw("10000000000000000000")
	require.NoError(t, err)
	require.True(t, dt.Contains(v), "full-width uint64 value rejected by builtin range")
	require.Equal(t, "10000000000000000000", dt.CanonicalString(v))
}

func TestRangeNarrowingRejectsWidening(t *testing.T) {
	parent := []Range{{Min: 0, Max: 100}}
	_, err := parseRangeArg("0..200", parent)
	require.Error(t, err, "expected widening range to be rejected")

	_, err = parseRangeArg("10..50", parent)
	require.NoError(t, err, "narrowing range should be accepted")
}
