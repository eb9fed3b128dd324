package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimplePath(t *testing.T) {
	q, err := Parse("authors")
	require.NoError(t, err)
	require.Len(t, q.Components, 1)
	path := q.Components[0].Path
	require.NotNil(t, path)
	assert.Equal(t, []PathElem{{Name: "authors"}}, path.Path)
	assert.Nil(t, path.Columns)
	assert.False(t, path.Terminator)
}

func TestParse_DottedChainWithAlias(t *testing.T) {
	q, err := Parse("authors.books@b")
	require.NoError(t, err)
	path := q.Components[0].Path
	require.Len(t, path.Path, 2)
	assert.Equal(t, "authors", path.Path[0].Name)
	assert.Equal(t, "books", path.Path[1].Name)
	assert.Equal(t, "b", path.Path[1].Alias)
}

func TestParse_ExplicitColumnsList(t *testing.T) {
	q, err := Parse("authors.name,birth_year")
	require.NoError(t, err)
	path := q.Components[0].Path
	assert.Equal(t, []string{"name", "birth_year"}, path.Columns)
}

func TestParse_StarColumn(t *testing.T) {
	q, err := Parse("authors.*")
	require.NoError(t, err)
	path := q.Components[0].Path
	assert.Equal(t, []string{"*"}, path.Columns)
}

func TestParse_TerminatorNoColumns(t *testing.T) {
	q, err := Parse("authors.,")
	require.NoError(t, err)
	path := q.Components[0].Path
	assert.True(t, path.Terminator)
	assert.Nil(t, path.Columns)
}

func TestParse_ShallowCondition(t *testing.T) {
	q, err := Parse("authors.birth_year > 1950")
	require.NoError(t, err)
	cond := q.Components[0].Cond
	require.NotNil(t, cond)
	assert.Equal(t, "birth_year", cond.Column)
	assert.Equal(t, ">", cond.Op)
	assert.Equal(t, ValueNumber, cond.Value.Kind)
	assert.Equal(t, "1950", cond.Value.Raw)
	assert.Empty(t, cond.Suffix)
}

func TestParse_DeepCondition(t *testing.T) {
	q, err := Parse("authors:books.published = 1965")
	require.NoError(t, err)
	cond := q.Components[0].Cond
	require.NotNil(t, cond)
	require.Len(t, cond.Prefix, 1)
	assert.Equal(t, "authors", cond.Prefix[0].Name)
	require.Len(t, cond.Suffix, 1)
	assert.Equal(t, "books", cond.Suffix[0].Name)
	assert.Equal(t, "published", cond.Column)
}

func TestParse_NullComparison(t *testing.T) {
	q, err := Parse("books.series_id = NULL")
	require.NoError(t, err)
	cond := q.Components[0].Cond
	require.NotNil(t, cond)
	assert.Equal(t, ValueNull, cond.Value.Kind)
}

func TestParse_StringLiteral(t *testing.T) {
	q, err := Parse(`authors.name = "Frank Herbert"`)
	require.NoError(t, err)
	cond := q.Components[0].Cond
	require.NotNil(t, cond)
	assert.Equal(t, ValueString, cond.Value.Kind)
	assert.Equal(t, "Frank Herbert", cond.Value.Str)
}

func TestParse_MultipleComponents(t *testing.T) {
	q, err := Parse("authors books.title")
	require.NoError(t, err)
	require.Len(t, q.Components, 2)
}

func TestParsePrefix_LongestValid(t *testing.T) {
	input := "authors.name,birth_year,"
	q, n, err := ParsePrefix(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "birth_year"}, q.Components[0].Path.Columns)
	assert.Less(t, n, len(input))
}

func TestParseLine_SetCommand(t *testing.T) {
	l, err := ParseLine(`\set search_path scry`)
	require.NoError(t, err)
	require.NotNil(t, l.Set)
	assert.Equal(t, "search_path", l.Set.Name)
	assert.Equal(t, "scry", l.Set.Value)
}

func TestParseLine_AliasCommand(t *testing.T) {
	l, err := ParseLine(`\alias a @ authors`)
	require.NoError(t, err)
	require.NotNil(t, l.Alias)
	assert.Equal(t, "a", l.Alias.Name)
	assert.True(t, l.Alias.HasAt)
	assert.Equal(t, "authors", l.Alias.Table)
}

func TestParseLine_UnknownCommand(t *testing.T) {
	_, err := ParseLine(`\bogus foo`)
	assert.Error(t, err)
}

func TestParseLine_Empty(t *testing.T) {
	l, err := ParseLine("   ")
	require.NoError(t, err)
	require.NotNil(t, l.Query)
	assert.Empty(t, l.Query.Components)
}
