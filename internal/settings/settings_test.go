package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	s := New()
	assert.Equal(t, CompleteColumn, s.CompleteStyle)
	assert.Equal(t, []string{"scry"}, s.SearchPath)
	assert.Empty(t, s.Aliases)
}

func TestSet_CompleteStyle(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("complete_style", "multi_column"))
	assert.Equal(t, CompleteMultiColumn, s.CompleteStyle)
}

func TestSet_CompleteStyle_Unknown(t *testing.T) {
	s := New()
	err := s.Set("complete_style", "bogus")
	assert.Error(t, err)
}

func TestSet_SearchPath(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("search_path", "a, b,c"))
	assert.Equal(t, []string{"a", "b", "c"}, s.SearchPath)
}

func TestSet_UnknownKey(t *testing.T) {
	s := New()
	err := s.Set("nonexistent", "1")
	assert.Error(t, err)
}

func TestAddAlias_NewAndIdempotent(t *testing.T) {
	s := New()
	require.NoError(t, s.AddAlias("a", true, "authors"))
	require.NoError(t, s.AddAlias("a", true, "authors")) // identical re-declaration is fine
	assert.Equal(t, Alias{Table: "authors", AsAlias: true}, s.Aliases["a"])
}

func TestAddAlias_Conflict(t *testing.T) {
	s := New()
	require.NoError(t, s.AddAlias("a", true, "authors"))
	err := s.AddAlias("a", true, "books")
	assert.Error(t, err)
}

func TestCoerce(t *testing.T) {
	isInt, n, str := Coerce(`"hello"`)
	assert.False(t, isInt)
	assert.Equal(t, "hello", str)

	isInt, n, str = Coerce("42")
	assert.True(t, isInt)
	assert.Equal(t, int64(42), n)

	isInt, n, str = Coerce("notanumber")
	assert.False(t, isInt)
	assert.Equal(t, "notanumber", str)
}
