package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edanaher/scry/internal/catalog"
	"github.com/edanaher/scry/internal/lang"
	"github.com/edanaher/scry/internal/scryerr"
	"github.com/edanaher/scry/internal/settings"
)

func testCatalog() *catalog.Catalog {
	c := catalog.New()
	c.AddColumn("scry", "authors", "id")
	c.AddColumn("scry", "authors", "name")
	c.AddColumn("scry", "authors", "birth_year")
	c.AddColumn("scry", "books", "id")
	c.AddColumn("scry", "books", "title")
	c.AddColumn("scry", "books", "author_id")
	c.AddColumn("scry", "books", "series_id")
	c.AddColumn("scry", "series", "id")
	c.AddColumn("scry", "series", "name")
	c.AddColumn("scry", "series_books", "book_id")
	c.AddColumn("scry", "series_books", "series_id")
	c.AddUniqueConstraint("scry", "authors", "authors_pkey", true, []string{"id"})
	c.AddUniqueConstraint("scry", "books", "books_pkey", true, []string{"id"})
	c.AddUniqueConstraint("scry", "series", "series_pkey", true, []string{"id"})
	c.AddForeignKey("scry", "books", "author_id", "scry", "authors", "id")
	c.AddForeignKey("scry", "books", "series_id", "scry", "series", "id")
	c.AddForeignKey("scry", "series_books", "book_id", "scry", "books", "id")
	c.AddForeignKey("scry", "series_books", "series_id", "scry", "series", "id")
	c.Finalize()
	return c
}

func buildQuery(t *testing.T, src string) *lang.Query {
	t.Helper()
	q, err := lang.Parse(src)
	require.NoError(t, err)
	return q
}

func TestBuild_SimpleJoin(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	q := buildQuery(t, "authors.books.title")

	tree, err := Build(cat, set, q)
	require.NoError(t, err)

	root := tree.Schemas["scry"]
	require.Equal(t, []string{"authors"}, root.ChildOrder)
	authorsNode := root.Children["authors"]
	require.Equal(t, []string{"books"}, authorsNode.ChildOrder)
	booksNode := authorsNode.Children["books"]
	assert.Equal(t, []string{"title"}, booksNode.Columns)
}

func TestBuild_MergesSameRootAcrossComponents(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	q := buildQuery(t, "authors.books.title books.series_id")

	tree, err := Build(cat, set, q)
	require.NoError(t, err)

	root := tree.Schemas["scry"]
	require.Len(t, root.ChildOrder, 1, "should merge into one authors root, not two")
	booksNode := root.Children["authors"].Children["books"]
	assert.Equal(t, []string{"title", "series_id"}, booksNode.Columns)
}

func TestBuild_ForwardAliasReference(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	// "a" is referenced before its declaring component appears.
	q := buildQuery(t, "a.name authors@a")

	tree, err := Build(cat, set, q)
	require.NoError(t, err)
	root := tree.Schemas["scry"]
	assert.Contains(t, root.ChildOrder, "a")
}

func TestBuild_AliasConflict(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	q := buildQuery(t, "authors@a books@a")

	_, err := Build(cat, set, q)
	require.Error(t, err)
	serr, ok := err.(*scryerr.Error)
	require.True(t, ok)
	assert.Equal(t, scryerr.KindAliasConflict, serr.Kind)
}

func TestBuild_UnknownIdentifier(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	q := buildQuery(t, "authors.nonexistent_column")

	_, err := Build(cat, set, q)
	require.Error(t, err)
	serr, ok := err.(*scryerr.Error)
	require.True(t, ok)
	assert.Equal(t, scryerr.KindUnknownIdentifier, serr.Kind)
}

func TestBuild_DeepConditionIsolatedScope(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	q := buildQuery(t, "authors.name authors:books.title = \"Dune\"")

	tree, err := Build(cat, set, q)
	require.NoError(t, err)

	authorsNode := tree.Schemas["scry"].Children["authors"]
	assert.Empty(t, authorsNode.ChildOrder, "deep condition must not attach to the main join tree")
	require.Len(t, authorsNode.ConditionRootOrder, 1)
	condRoot := authorsNode.ConditionRoots["books"]
	require.Len(t, condRoot.Conditions, 1)
	assert.Equal(t, "title", condRoot.Conditions[0].Column)
}

func TestBuild_NoJoinBetweenAdjacentTables(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	q := buildQuery(t, "authors.series")

	_, err := Build(cat, set, q)
	require.Error(t, err)
	serr, ok := err.(*scryerr.Error)
	require.True(t, ok)
	assert.Equal(t, scryerr.KindNoJoin, serr.Kind)
	assert.Contains(t, serr.Error(), "No known join of series to authors")
}

func TestBuild_AliasConflictImplicitPathLongForm(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	q := buildQuery(t, "authors.books.authors.name authors.name")

	_, err := Build(cat, set, q)
	require.Error(t, err)
	serr, ok := err.(*scryerr.Error)
	require.True(t, ok)
	assert.Equal(t, scryerr.KindAliasConflict, serr.Kind)
	assert.Equal(t, "Existing alias authors for table authors on path '' reused on 'authors.books'", serr.Error())
}

func TestBuild_AliasConflictExplicitShortForm(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	q := buildQuery(t, "authors.books@b b.series_books@b")

	_, err := Build(cat, set, q)
	require.Error(t, err)
	serr, ok := err.(*scryerr.Error)
	require.True(t, ok)
	assert.Equal(t, scryerr.KindAliasConflict, serr.Kind)
	assert.Equal(t, "Existing alias b for table books reused on series_books", serr.Error())
}

func TestBuild_ProcessWideAliasSeedsResolution(t *testing.T) {
	cat := testCatalog()
	set := settings.New()
	require.NoError(t, set.AddAlias("a", true, "authors"))

	q := buildQuery(t, "a.name")
	tree, err := Build(cat, set, q)
	require.NoError(t, err)

	root := tree.Schemas["scry"]
	require.Contains(t, root.ChildOrder, "a")
	assert.Equal(t, []string{"name"}, root.Children["a"].Columns)
}
