package yangmodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInstanceIdentifier(t *testing.T) {
	route, err := ParseInstanceIdentifier(`/ex:bag/foo[number='3']/number`)
	require.NoError(t, err)

	want := InstanceRoute{
		{Kind: StepMemberName, Name: "ex:bag"},
		{Kind: StepMemberName, Name: "foo"},
		{Kind: StepEntryKeys, Keys: map[string]string{"number": "3"}, KeyOrder: []string{"number"}},
		{Kind: StepMemberName, Name: "number"},
	}
	require.True(t, route.Equal(want), "got %+v, want %+v", route, want)
}

func TestParseInstanceIdentifierRequiresAbsolute(t *testing.T) {
	_, err := ParseInstanceIdentifier("bag/foo")
	require.Error(t, err, "expected error for relative instance-identifier")
}

func TestFormatInstanceIdentifierRoundTrip(t *testing.T) {
	text := `/ex:bag/foo[number='3']/number`
	route, err := ParseInstanceIdentifier(text)
	require.NoError(t, err)

	got := FormatInstanceIdentifier(route)
	require.Equal(t, `/ex:bag/foo[number="3"]/number`, got)
}
