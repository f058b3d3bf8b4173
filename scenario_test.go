package yangmodel

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario A — greeting.
func TestScenarioAGreeting(t *testing.T) {
	_, root := buildModel(t, map[string]string{
		"example-1": `module example-1 {
			namespace "urn:example-1";
			prefix ex1;
			leaf greeting { type string; }
		}`,
	})

	raw := decodeJSON(t, `{"example-1:greeting": "Hi!"}`)
	obj, err := DecodeInstance(root, raw)
	require.NoError(t, err)

	focus := NewRootFocus(root, obj, 1)
	require.NoError(t, Validate(focus, ScopeAll, ContentAll))

	v, ok := focus.Peek(InstanceRoute{{Kind: StepMemberName, Name: "example-1:greeting"}})
	require.True(t, ok)
	require.Equal(t, "Hi!", v.Str)
}

const example2Module = `module example-2 {
	namespace "urn:example-2";
	prefix ex2;
	container bag {
		list foo {
			key "number";
			unique "in-words";
			leaf number { type uint64; }
			leaf in-words {
				type string {
					pattern "[a-z][a-z\-]+[a-z]" {
						error-message "must be number in words";
					}
				}
			}
			leaf prime { type boolean; }
		}
		leaf bar { type boolean; config false; mandatory true; }
		leaf baz {
			when "not(../foo/in-words = 'forty-two')";
			type decimal64 { fraction-digits 7; }
			default "0";
		}
	}
}`

// Scenario B — list keys & unique.
func TestScenarioBListKeysAndUnique(t *testing.T) {
	_, root := buildModel(t, map[string]string{"example-2": example2Module})

	baseJSON := `{"example-2:bag":{"bar":true,"foo":[{"number":"3","in-words":"three","prime":true}]}}`

	decode := func(t *testing.T, text string) *Focus {
		obj, err := DecodeInstance(root, decodeJSON(t, text))
		require.NoError(t, err)
		return NewRootFocus(root, obj, 1)
	}

	t.Run("valid instance passes with content=all", func(t *testing.T) {
		require.NoError(t, Validate(decode(t, baseJSON), ScopeAll, ContentAll))
	})

	t.Run("bad in-words pattern raises invalid-type with custom message", func(t *testing.T) {
		bad := `{"example-2:bag":{"bar":true,"foo":[{"number":"3","in-words":"INFINITY","prime":true}]}}`
		err := Validate(decode(t, bad), ScopeAll, ContentAll)
		var se *SchemaError
		require.True(t, errors.As(err, &se), "expected *SchemaError, got %v (%T)", err, err)
		require.Equal(t, TagInvalidType, se.Tag)
		require.Contains(t, se.Message, "must be number in words")
	})

	t.Run("duplicate key raises non-unique-key", func(t *testing.T) {
		dup := `{"example-2:bag":{"bar":true,"foo":[
			{"number":"3","in-words":"three"},
			{"number":"3","in-words":"four"}
		]}}`
		err := Validate(decode(t, dup), ScopeAll, ContentAll)
		var se *SemanticError
		require.True(t, errors.As(err, &se), "expected *SemanticError, got %v (%T)", err, err)
		require.Equal(t, TagNonUniqueKey, se.Tag)
	})

	t.Run("duplicate unique field raises data-not-unique", func(t *testing.T) {
		dup := `{"example-2:bag":{"bar":true,"foo":[
			{"number":"3","in-words":"three"},
			{"number":"4","in-words":"three"}
		]}}`
		err := Validate(decode(t, dup), ScopeAll, ContentAll)
		var se *SemanticError
		require.True(t, errors.As(err, &se), "expected *SemanticError, got %v (%T)", err, err)
		require.Equal(t, TagDataNotUnique, se.Tag)
	})

	t.Run("add_defaults inserts baz", func(t *testing.T) {
		focus := decode(t, baseJSON)
		bag, err := focus.Member("example-2:bag")
		require.NoError(t, err)

		bag, err = bag.AddDefaults(2)
		require.NoError(t, err)

		bazSchema := bag.Schema.Child(QName{Local: "baz", Module: "example-2"})
		baz, ok := bag.Value.Object.Get("baz")
		require.True(t, ok, "baz default was not inserted")
		require.Equal(t, "0.0000000", bazSchema.Leaf.Type.CanonicalString(baz))
	})

	t.Run("when false invalidates a present default until it is removed", func(t *testing.T) {
		focus := decode(t, baseJSON)
		bag, err := focus.Member("example-2:bag")
		require.NoError(t, err)

		bag, err = bag.AddDefaults(2)
		require.NoError(t, err)

		fooList, err := bag.Member("foo")
		require.NoError(t, err)

		entry, err := fooList.Entry(0)
		require.NoError(t, err)

		entry = entry.Update(CookedValue{Kind: ValObject, Object: entry.Value.Object.With("in-words", CookedValue{Kind: ValString, Str: "forty-two"}, 3)}, 3)
		bagAfterMutate := entry.Top(3)

		err = Validate(bagAfterMutate, ScopeAll, ContentAll)
		var se *SchemaError
		require.True(t, errors.As(err, &se), "expected Validate to reject a present baz once its when became false")
		require.Equal(t, TagMissingData, se.Tag)

		bagFocus, err := bagAfterMutate.Member("example-2:bag")
		require.NoError(t, err)

		bagFocus, err = bagFocus.DeleteMember("baz", 4)
		require.NoError(t, err)

		top := bagFocus.Top(4)
		_, ok := top.Value.Object.Get("example-2:bag")
		require.True(t, ok, "zip-up lost the bag member")
		require.NoError(t, Validate(top, ScopeAll, ContentAll))
	})
}

// Scenario C — leafref.
func TestScenarioCLeafref(t *testing.T) {
	src := `module example-3 {
		namespace "urn:example-3";
		prefix ex3;
		container bag {
			list foo {
				key "number";
				leaf number { type uint64; }
			}
			leaf fooref {
				type leafref {
					path "../foo/number";
					require-instance true;
				}
			}
		}
	}`
	_, root := buildModel(t, map[string]string{"example-3": src})

	mk := func(t *testing.T, fooref string) *Focus {
		text := `{"example-3:bag":{"foo":[{"number":"3"}],"fooref":"` + fooref + `"}}`
		obj, err := DecodeInstance(root, decodeJSON(t, text))
		require.NoError(t, err)
		return NewRootFocus(root, obj, 1)
	}

	t.Run("missing target raises instance-required", func(t *testing.T) {
		err := Validate(mk(t, "5"), ScopeAll, ContentAll)
		var se *SemanticError
		require.True(t, errors.As(err, &se))
		require.Equal(t, TagInstanceRequired, se.Tag)
	})

	t.Run("existing target passes", func(t *testing.T) {
		require.NoError(t, Validate(mk(t, "3"), ScopeAll, ContentAll))
	})
}

// Scenario D — identity derivation.
func TestScenarioDIdentityDerivation(t *testing.T) {
	src := `module example-4 {
		namespace "urn:example-4";
		prefix ex4;
		identity a;
		identity b { base a; }
		identity c { base b; }
	}`
	registry, _ := buildModel(t, map[string]string{"example-4": src})

	a := QName{Local: "a", Module: "example-4"}
	c := QName{Local: "c", Module: "example-4"}

	require.True(t, registry.IsDerivedFromOrSelf(c, a))
	require.True(t, registry.IsDerivedFrom(c, a))
	require.False(t, registry.IsDerivedFrom(a, a))
	require.True(t, registry.IsDerivedFromOrSelf(a, a))
}

// Scenario E — persistence.
func TestScenarioEPersistence(t *testing.T) {
	_, root := buildModel(t, map[string]string{
		"example-5": `module example-5 {
			namespace "urn:example-5";
			prefix ex5;
			leaf a { type string; }
			leaf b { type string; }
		}`,
	})
	obj, err := DecodeInstance(root, decodeJSON(t, `{"example-5:a":"1","example-5:b":"2"}`))
	require.NoError(t, err)
	top := NewRootFocus(root, obj, 1)

	f, err := top.Member("a")
	require.NoError(t, err)
	f2 := f.Update(CookedValue{Kind: ValString, Str: "x"}, 2)

	origTop := f.Top(2)
	newTop := f2.Top(3)

	origA, _ := origTop.Value.Object.Get("a")
	require.Equal(t, "1", origA.Str, "original a changed")

	newA, _ := newTop.Value.Object.Get("a")
	require.Equal(t, "x", newA.Str)

	origB, _ := origTop.Value.Object.Get("b")
	newB, _ := newTop.Value.Object.Get("b")
	require.Nil(t, origB.Object, "b is not object-valued; structural sharing check applies to the scalar itself")
	require.Nil(t, newB.Object)
	require.Equal(t, origB.Str, newB.Str, "b subtree diverged")
}

// Scenario F — module-set-id.
func TestScenarioFModuleSetID(t *testing.T) {
	got := ModuleSetID([]YangLibraryModule{
		{Name: "foo", Revision: "2020-01-01"},
		{Name: "bar", Revision: ""},
	})
	sum := sha1.Sum([]byte("bar@foo@2020-01-01"))
	require.Equal(t, hex.EncodeToString(sum[:]), got)
}
