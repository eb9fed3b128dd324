package scryerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_NoWrappedErr(t *testing.T) {
	e := New(KindParse, "bad input")
	assert.Equal(t, "bad input", e.Error())
	assert.Nil(t, e.Unwrap())
}

func TestWrap_MessageIncludesUnderlyingError(t *testing.T) {
	underlying := errors.New("connection refused")
	e := Wrap(KindDriver, underlying, "opening database")
	assert.Equal(t, "opening database: connection refused", e.Error())
	assert.Same(t, underlying, e.Unwrap())
}

func TestDriver_SurfacesDriverMessageVerbatim(t *testing.T) {
	underlying := errors.New("syntax error at or near \"SELCT\"")
	e := Driver(underlying)
	assert.Equal(t, KindDriver, e.Kind)
	assert.Equal(t, underlying.Error(), e.Error())
}

func TestNewf_FormatsMessage(t *testing.T) {
	e := Newf(KindUnknownIdentifier, "Unknown table or column: %s", "foo")
	assert.Equal(t, "Unknown table or column: foo", e.Error())
}
