package templates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caldesign/internal/model"
)

func TestPresetsCoverEveryCategory(t *testing.T) {
	all := All()
	require.Len(t, all, 5)

	seen := map[string]bool{}
	for _, tpl := range all {
		assert.False(t, seen[tpl.ID], "duplicate id %s", tpl.ID)
		seen[tpl.ID] = true
		assert.NotEmpty(t, tpl.Name)
		for _, c := range model.Categories {
			assert.NotEmpty(t, tpl.EventColors[c], "%s/%s", tpl.ID, c)
		}
	}
}

func TestLookup(t *testing.T) {
	tpl, err := Lookup("pastel")
	require.NoError(t, err)
	assert.Equal(t, "Soft Pastel", tpl.Name)

	_, err = Lookup("neon")
	assert.True(t, errors.Is(err, ErrUnknownTemplate))

	assert.Equal(t, DefaultID, Default().ID)
}
