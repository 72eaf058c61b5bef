package typeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectIDIsUniqueAndValid(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := NewObjectID()
		require.NoError(t, Validate(id, PrefixObject))
		assert.False(t, seen[id], "id %s minted twice", id)
		seen[id] = true
	}
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	err := Validate(NewAssetID(), PrefixObject)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected prefix "obj"`)
}

func TestValidateRejectsGarbage(t *testing.T) {
	require.Error(t, Validate("not-an-id", PrefixObject))
}
