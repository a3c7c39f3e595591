package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_CarriesMetadata(t *testing.T) {
	t.Parallel()

	base := NewStd("connection refused")
	err := New(base).
		Component("provider").
		Category(CategoryNetwork).
		Context("url", "https://api.deezer.com").
		Build()

	assert.Equal(t, "connection refused", err.Error())
	assert.Equal(t, "provider", err.Component)
	assert.Equal(t, CategoryNetwork, err.Category)
	assert.Equal(t, "https://api.deezer.com", err.GetContext()["url"])
	assert.False(t, err.Timestamp.IsZero())
	assert.ErrorIs(t, err, base, "enhancement must not break errors.Is on the wrapped error")
}

func TestBuilder_Defaults(t *testing.T) {
	t.Parallel()

	err := Newf("something went wrong").Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Nil(t, err.GetContext())
}

func TestHasCategory(t *testing.T) {
	t.Parallel()

	err := Newf("disk full").Category(CategoryFileIO).Build()
	assert.True(t, HasCategory(err, CategoryFileIO))
	assert.False(t, HasCategory(err, CategoryNetwork))
	assert.False(t, HasCategory(NewStd("plain"), CategoryFileIO))
	assert.False(t, HasCategory(nil, CategoryFileIO))
}

func TestNewf_SupportsWrapping(t *testing.T) {
	t.Parallel()

	base := NewStd("no such host")
	err := Newf("resolving release: %w", base).Category(CategoryNetwork).Build()

	require.ErrorIs(t, err, base)

	var ee *EnhancedError
	require.True(t, As(err, &ee))
	assert.Equal(t, CategoryNetwork, ee.Category)
}
