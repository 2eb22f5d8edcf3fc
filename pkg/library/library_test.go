package library

import (
	"encoding/json"
	"testing"

	"github.com/kittclouds/gmgen/pkg/diag"
	"github.com/kittclouds/gmgen/pkg/errs"
	"github.com/kittclouds/gmgen/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testData() map[string]any {
	return map[string]any{
		"key": "testitem",
		"definitions": map[string]any{
			"def_a": "a",
			"def_b": "b",
		},
		"values": map[string]any{
			"string_val":          "solo string val",
			"inline_sel":          "{inline1|inline2|inline3}",
			"weighted_inline_sel": "{inline4:1|inline5:6|inline6:10|inline7}",
			"arr_sel":             []any{"arr1", "arr2"},
			"weighted_arr_sel":    []any{"arr3:8", "arr4:11", "arr5"},
			"nested_arr_sel":      []any{[]any{"nest1", 2}, []any{"nest2", 3}, []any{"nest3"}},
			"prop_sel": []any{
				map[string]any{"value": "prop1", "weight": 2},
				map[string]any{"value": "prop2", "weight": 3},
				map[string]any{"value": "prop3", "weight": 1},
			},
			"endless_loop": "loop %endless_loop%",
		},
		"templates": []any{
			"template1: {inline|test} {weighted:2|inline:3|test} @key{inline|key|assign}",
			"template2",
		},
	}
}

func keylessData() map[string]any {
	return map[string]any{
		"definitions": map[string]any{"test_a": "test a"},
		"values":      map[string]any{"test_b": "test b"},
		"templates":   []any{"test c"},
	}
}

// =============================================================================
// Convert
// =============================================================================

func TestConvertRejectsKeylessAndBadJSON(t *testing.T) {
	_, err := Convert(keylessData())
	assert.ErrorIs(t, err, errs.ErrMalformedInput)

	raw, err := json.Marshal(keylessData())
	require.NoError(t, err)
	_, err = Convert(raw)
	assert.ErrorIs(t, err, errs.ErrMalformedInput)

	_, err = Convert("bad json")
	assert.ErrorIs(t, err, errs.ErrMalformedInput)

	_, err = Convert(42)
	assert.ErrorIs(t, err, errs.ErrMalformedInput)
}

func TestConvertMapAndJSONAgree(t *testing.T) {
	fromMap, err := Convert(testData())
	require.NoError(t, err)

	raw, err := json.Marshal(testData())
	require.NoError(t, err)
	fromJSON, err := Convert(string(raw))
	require.NoError(t, err)

	assert.Equal(t, fromMap, fromJSON)
}

func TestConvertPreparesValues(t *testing.T) {
	d, err := Convert(testData())
	require.NoError(t, err)

	assert.Equal(t, "testitem", d.Key)
	assert.Equal(t, []value.Item{{Value: "solo string val", Weight: 1}}, d.Values["string_val"])
	assert.Equal(t, []int{8, 11, 1}, value.Weights(d.Values["weighted_arr_sel"]))
	assert.Equal(t, []int{2, 3, 1}, value.Weights(d.Values["nested_arr_sel"]))
	assert.Equal(t, []string{"prop1", "prop2", "prop3"}, value.Values(d.Values["prop_sel"]))
	assert.Len(t, d.Templates, 2)
	assert.Equal(t, "a", d.Definitions["def_a"])
}

func TestConvertDataRoundTrip(t *testing.T) {
	d, err := Convert(testData())
	require.NoError(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	again, err := Convert(raw)
	require.NoError(t, err)
	assert.Equal(t, d, again)

	copied, err := Convert(d)
	require.NoError(t, err)
	assert.Equal(t, d, copied)
	assert.NotSame(t, d, copied)
}

func TestConvertScalarDefinitions(t *testing.T) {
	d, err := Convert(map[string]any{
		"key":         "scalars",
		"definitions": map[string]any{"n": 3, "f": 1.5, "b": true},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"n": "3", "f": "1.5", "b": "true"}, d.Definitions)

	_, err = Convert(map[string]any{
		"key":         "bad",
		"definitions": map[string]any{"list": []any{"x"}},
	})
	assert.ErrorIs(t, err, errs.ErrMalformedInput)
}

// =============================================================================
// Data mutators
// =============================================================================

func TestDefinitions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	diag.SetDefault(diag.New(zap.New(core), diag.LevelWarning))
	t.Cleanup(func() { diag.SetDefault(nil) })

	d := NewData("ld")

	assert.True(t, d.Define("hello", "world"))
	assert.Equal(t, 0, logs.Len())
	assert.False(t, d.Define("hello", "again"))
	assert.Equal(t, "world", d.Definitions["hello"])

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessageSnippet("already exists")
	require.Equal(t, 1, warnings.Len())
	fields := warnings.All()[0].ContextMap()
	assert.Equal(t, "hello", fields["key"])
	assert.Equal(t, "again", fields["ignored"])

	require.NoError(t, d.ClearDefinition("hello"))
	assert.Empty(t, d.Definitions)

	assert.ErrorIs(t, d.ClearDefinition("foo"), errs.ErrNotFound)
}

func TestTemplates(t *testing.T) {
	d := NewData("ld")

	d.AddTemplate("foo", "bar")
	d.AddTemplate("baz", "buzz")
	assert.Len(t, d.Templates, 4)

	assert.ErrorIs(t, d.SetTemplate(999, "yuck"), errs.ErrIndexOutOfRange)
	assert.ErrorIs(t, d.SetTemplate(4, "yuck"), errs.ErrIndexOutOfRange)
	require.NoError(t, d.SetTemplate(0, "changed"))
	assert.Equal(t, "changed", d.Templates[0])

	assert.ErrorIs(t, d.RemoveTemplate(998), errs.ErrIndexOutOfRange)
	assert.ErrorIs(t, d.RemoveTemplate(-1), errs.ErrIndexOutOfRange)
	require.NoError(t, d.RemoveTemplate(1))
	assert.Equal(t, "baz", d.Templates[1])

	d.ClearTemplates()
	assert.Empty(t, d.Templates)
}

func TestValues(t *testing.T) {
	d := NewData("ld")

	require.NoError(t, d.AddValue("test", "first value"))
	require.Len(t, d.Values["test"], 1)
	assert.Equal(t, 1, d.Values["test"][0].Weight)

	require.NoError(t, d.AddValue("test", "second value:3"))
	require.Len(t, d.Values["test"], 2)
	assert.Equal(t, 3, d.Values["test"][1].Weight)

	items, err := d.GetValue("test")
	require.NoError(t, err)
	assert.Equal(t, "first value", items[0].Value)

	_, err = d.GetValue("gross")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, d.ClearValueWeights("test"))
	assert.Equal(t, []int{1, 1}, value.Weights(d.Values["test"]))

	require.NoError(t, d.SetValue("test", []string{"x:4"}))
	assert.Equal(t, []value.Item{{Value: "x", Weight: 4}}, d.Values["test"])

	require.NoError(t, d.ClearValue("test"))
	assert.Equal(t, []value.Item{{Value: "", Weight: 1}}, d.Values["test"])

	require.NoError(t, d.DeleteValue("test"))
	assert.NotContains(t, d.Values, "test")
	assert.ErrorIs(t, d.DeleteValue("test"), errs.ErrNotFound)
	assert.ErrorIs(t, d.ClearValue("test"), errs.ErrNotFound)
}

func TestValueItems(t *testing.T) {
	d := NewData("ld")
	require.NoError(t, d.SetValue("k", "a|b|c"))

	assert.ErrorIs(t, d.AddValueItem("missing", "x", 1), errs.ErrNotFound)
	require.NoError(t, d.AddValueItem("k", "d", 5))
	assert.Equal(t, []string{"a", "b", "c", "d"}, value.Values(d.Values["k"]))

	require.NoError(t, d.SetValueItem("k", 0, "A", 2))
	assert.Equal(t, value.Item{Value: "A", Weight: 2}, d.Values["k"][0])

	require.NoError(t, d.SetValueItemWeight("k", 1, 0))
	assert.Equal(t, 1, d.Values["k"][1].Weight)

	require.NoError(t, d.ClearValueItem("k", 3))
	assert.Equal(t, value.Item{Value: "", Weight: 1}, d.Values["k"][3])

	require.NoError(t, d.DeleteValueItem("k", 2))
	assert.Equal(t, []string{"A", "b", ""}, value.Values(d.Values["k"]))

	assert.ErrorIs(t, d.SetValueItem("k", 3, "x", 1), errs.ErrIndexOutOfRange)
	assert.ErrorIs(t, d.DeleteValueItem("k", -1), errs.ErrIndexOutOfRange)
	assert.ErrorIs(t, d.SetValueItemWeight("nope", 0, 1), errs.ErrNotFound)
}

// =============================================================================
// Library
// =============================================================================

func TestNewShapes(t *testing.T) {
	empty, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	single, err := New(testData())
	require.NoError(t, err)
	assert.Equal(t, 1, single.Len())

	list, err := New([]any{testData(), map[string]any{"key": "other"}})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Len())

	enclosed, err := New(map[string]any{
		"b": map[string]any{"key": "beta"},
		"a": map[string]any{"key": "alpha"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, enclosed.Len())
	assert.Equal(t, "alpha", enclosed.Content()[0].Key)

	_, err = New(map[string]any{"a": "not a bundle"})
	assert.ErrorIs(t, err, errs.ErrMalformedInput)

	_, err = New(3.14)
	assert.ErrorIs(t, err, errs.ErrMalformedInput)

	_, err = New([]any{keylessData()})
	assert.ErrorIs(t, err, errs.ErrMalformedInput)
}

func TestLookupAndDelete(t *testing.T) {
	l, err := New(testData())
	require.NoError(t, err)

	ok, err := l.Has("testitem")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Has(map[string]any{"key": "testitem"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = l.Has(12)
	assert.ErrorIs(t, err, errs.ErrMalformedInput)

	d, err := l.Get("testitem")
	require.NoError(t, err)
	assert.Equal(t, "testitem", d.Key)

	_, err = l.Get("nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, l.Delete(d))
	assert.Equal(t, 0, l.Len())
	assert.ErrorIs(t, l.Delete("testitem"), errs.ErrNotFound)
}

func TestAddDataMerges(t *testing.T) {
	l, err := New(testData())
	require.NoError(t, err)

	require.NoError(t, l.AddData(map[string]any{
		"key":         "testitem",
		"definitions": map[string]any{"def_a": "changed", "def_c": "c"},
		"values":      map[string]any{"arr_sel": []any{"arr9"}, "fresh": "new"},
		"templates":   []any{"template3"},
	}))

	require.Equal(t, 1, l.Len())
	d, err := l.Get("testitem")
	require.NoError(t, err)

	assert.Equal(t, "a", d.Definitions["def_a"])
	assert.Equal(t, "c", d.Definitions["def_c"])
	assert.Equal(t, []string{"arr1", "arr2", "arr9"}, value.Values(d.Values["arr_sel"]))
	assert.Equal(t, []string{"new"}, value.Values(d.Values["fresh"]))
	assert.Equal(t, []string{
		"template1: {inline|test} {weighted:2|inline:3|test} @key{inline|key|assign}",
		"template2",
		"template3",
	}, d.Templates)
}

func TestSetDataReplaces(t *testing.T) {
	l, err := New(testData())
	require.NoError(t, err)

	require.NoError(t, l.SetData(map[string]any{"key": "testitem", "templates": []any{"only"}}))
	d, err := l.Get("testitem")
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, d.Templates)
	assert.Empty(t, d.Values)
}
