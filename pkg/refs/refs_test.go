package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanForms(t *testing.T) {
	idx := Compile([]string{"color", "size", "shape", "color"})
	assert.Equal(t, []string{"color", "size", "shape"}, idx.Keys())

	refs := idx.Scan("a %color% %size|shape% @if:color=red{x}")
	require.Len(t, refs, 4)

	forms := map[string][]Form{}
	for _, r := range refs {
		forms[r.Key] = append(forms[r.Key], r.Form)
	}
	assert.ElementsMatch(t, []Form{FormSet, FormConditional}, forms["color"])
	assert.Equal(t, []Form{FormAlternative}, forms["size"])
	assert.Equal(t, []Form{FormAlternative}, forms["shape"])
}

func TestScanIsCaseSensitive(t *testing.T) {
	idx := Compile([]string{"Name"})
	assert.Empty(t, idx.Scan("%name%"))
	assert.Len(t, idx.Scan("%Name%"), 1)
}

func TestUnreferenced(t *testing.T) {
	idx := Compile([]string{"used", "unused", "pool", "cond"})

	got := idx.Unreferenced([]string{
		"%used% and @!if:cond%x%",
		"nothing here",
	}, map[string]bool{"pool": true})

	assert.Equal(t, []string{"unused"}, got)
}

func TestEmptyIndex(t *testing.T) {
	idx := Compile(nil)
	assert.Nil(t, idx.Scan("%a%"))
	assert.Empty(t, idx.Unreferenced([]string{"%a%"}, nil))
}
