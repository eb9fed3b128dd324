package testdb

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edanaher/scry/internal/catalog"
	"github.com/edanaher/scry/internal/dispatch"
	"github.com/edanaher/scry/internal/settings"
)

func TestMain(m *testing.M) {
	code := m.Run()
	_ = ShutdownNow()
	os.Exit(code)
}

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, *Sandbox) {
	t.Helper()
	BootOnce(t)
	sbx := NewSandbox(t)

	cat, err := catalog.Load(context.Background(), sbx.DB, []string{sbx.Schema})
	require.NoError(t, err)

	set := settings.New()
	set.SearchPath = []string{sbx.Schema}

	return &dispatch.Dispatcher{
		Cat: cat,
		Set: set,
		DB:  sbx.DB,
		Log: zap.NewNop(),
	}, sbx
}

func TestDispatch_SimpleJoinQuery(t *testing.T) {
	d, _ := newDispatcher(t)
	var out bytes.Buffer

	err := d.Run(context.Background(), &out, "authors.books.title")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "title:")
}

func TestDispatch_SetAndAliasCommands(t *testing.T) {
	d, _ := newDispatcher(t)
	var out bytes.Buffer

	require.NoError(t, d.Run(context.Background(), &out, `\set complete_style multi_column`))
	assert.Equal(t, settings.CompleteMultiColumn, d.Set.CompleteStyle)

	require.NoError(t, d.Run(context.Background(), &out, `\alias a authors`))
	require.Contains(t, d.Set.Aliases, "a")

	out.Reset()
	require.NoError(t, d.Run(context.Background(), &out, "a.name"))
	assert.NotEmpty(t, out.String())
}

func TestDispatch_UnknownColumnErrors(t *testing.T) {
	d, _ := newDispatcher(t)
	var out bytes.Buffer

	err := d.Run(context.Background(), &out, "authors.nonexistent_column")
	assert.Error(t, err)
}
