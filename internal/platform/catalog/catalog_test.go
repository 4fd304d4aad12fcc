package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformsAreUniqueAndOrdered(t *testing.T) {
	list := Platforms()
	require.Len(t, list, 20)
	assert.Equal(t, "doppus", list[0].ID)
	assert.Equal(t, "pagtrust", list[1].ID)

	seen := map[string]bool{}
	for _, p := range list {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Description)
		assert.Equal(t, "/logos/"+p.ID+".svg", p.Logo)
	}
}

func TestSlugIDs(t *testing.T) {
	for _, id := range []string{"perfectpay", "pagarme", "mercadopago", "pagseguro", "hotmart"} {
		assert.True(t, Exists(id), id)
	}
}

func TestFind(t *testing.T) {
	p, ok := Find("  DOPPUS ")
	require.True(t, ok)
	assert.Equal(t, "Doppus", p.Name)

	_, ok = Find("stripe")
	assert.False(t, ok)
}

func TestPlatformsReturnsCopy(t *testing.T) {
	list := Platforms()
	list[0].Name = "changed"
	p, _ := Find("doppus")
	assert.Equal(t, "Doppus", p.Name)
}
