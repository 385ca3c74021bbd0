package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramValidate(t *testing.T) {
	base := uint64(1)

	principal := Program{ID: 1, Name: "Latam Pass", Kind: ProgramPrincipal}
	require.NoError(t, principal.Validate())
	assert.False(t, principal.IsLinked())

	linked := Program{ID: 2, Name: "Itaú Pontos", Kind: ProgramLinked, BaseProgramID: &base}
	require.NoError(t, linked.Validate())
	assert.True(t, linked.IsLinked())
}

func TestProgramValidateRejectsBadShapes(t *testing.T) {
	base := uint64(1)

	withBase := Program{Kind: ProgramPrincipal, BaseProgramID: &base}
	assert.Error(t, withBase.Validate())

	noBase := Program{Kind: ProgramLinked}
	assert.Error(t, noBase.Validate())

	self := uint64(3)
	selfLinked := Program{ID: 3, Kind: ProgramLinked, BaseProgramID: &self}
	assert.Error(t, selfLinked.Validate())

	unknown := Program{Kind: "CLUB"}
	assert.Error(t, unknown.Validate())
}

func TestTitularExactlyOneOwner(t *testing.T) {
	client := ClientTitular(7)
	require.NoError(t, client.Validate())
	assert.True(t, client.IsClient())

	managed := ManagedTitular(9)
	require.NoError(t, managed.Validate())
	assert.False(t, managed.IsClient())

	assert.ErrorIs(t, Titular{}.Validate(), ErrInvalidTitular)

	id := uint64(1)
	both := Titular{ClientID: &id, ManagedAccountID: &id}
	assert.ErrorIs(t, both.Validate(), ErrInvalidTitular)
}

func TestTitularEqual(t *testing.T) {
	assert.True(t, ClientTitular(7).Equal(ClientTitular(7)))
	assert.False(t, ClientTitular(7).Equal(ClientTitular(8)))
	assert.False(t, ClientTitular(7).Equal(ManagedTitular(7)))
	assert.True(t, ManagedTitular(4).Equal(ManagedTitular(4)))
}
