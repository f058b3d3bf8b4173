package yangmodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectValueWithSharesUntouchedMembers(t *testing.T) {
	a := CookedValue{Kind: ValString, Str: "a"}
	b := CookedValue{Kind: ValObject, Object: NewObjectValue([]string{"x"}, map[string]CookedValue{"x": {Kind: ValString, Str: "x"}}, 1)}
	orig := NewObjectValue([]string{"a", "b"}, map[string]CookedValue{"a": a, "b": b}, 1)

	updated := orig.With("a", CookedValue{Kind: ValString, Str: "z"}, 2)

	origB, _ := orig.Get("b")
	updatedB, _ := updated.Get("b")
	require.Same(t, origB.Object, updatedB.Object, "unmodified member 'b' was not shared by reference across the edit")

	origA, _ := orig.Get("a")
	require.Equal(t, "a", origA.Str, "original object was mutated")

	newA, _ := updated.Get("a")
	require.Equal(t, "z", newA.Str)
}

// Invariant 7: put_member then delete_member round-trips to the
// original content (timestamps aside).
func TestPutThenDeleteMemberRoundTrips(t *testing.T) {
	orig := NewObjectValue([]string{"a"}, map[string]CookedValue{"a": {Kind: ValString, Str: "a"}}, 1)
	withB := orig.With("b", CookedValue{Kind: ValString, Str: "b"}, 2)
	back := withB.Without("b", 3)

	require.True(t, orig.Equal(back), "put then delete did not round-trip: %+v vs %+v", orig, back)
}

func TestArrayValueInsertAndRemoveRoundTrip(t *testing.T) {
	entries := []CookedValue{{Kind: ValString, Str: "a"}, {Kind: ValString, Str: "c"}}
	arr := NewArrayValue(entries, 1)
	inserted := arr.InsertedAt(1, CookedValue{Kind: ValString, Str: "b"}, 2)
	require.Equal(t, 3, inserted.Len())

	removed := inserted.RemovedAt(1, 3)
	require.True(t, arr.Equal(removed), "insert then remove did not round-trip: %+v vs %+v", arr, removed)
}
