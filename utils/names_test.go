package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameKeyCollapsesCosmeticDifferences(t *testing.T) {
	assert.Equal(t, NameKey("José  R."), NameKey("jose r"))
	assert.Equal(t, NameKey(" ALICE "), NameKey("alice"))
	assert.NotEqual(t, NameKey("Alice"), NameKey("Alicia"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Alice Smith", DisplayName("  alice   smith "))
	assert.Equal(t, "", DisplayName("   "))
}

func TestJoinCode(t *testing.T) {
	assert.Equal(t, "corner-table-3f2a", JoinCode("Corner Table", "3F2Ab910"))
	assert.Equal(t, "table-ab", JoinCode("  !!  ", "ab"))
}
