package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

func TestDescribeUnknownEntity(t *testing.T) {
	_, err := Default().Describe("rocket")
	assert.ErrorIs(t, err, queryerr.ErrUnknownEntity)
}

func TestDefaultCatalog(t *testing.T) {
	reg := Default()
	assert.Equal(t, []string{"comment", "game", "platform", "savedata", "tag", "user"}, reg.Entities())

	for _, name := range reg.Entities() {
		e, err := reg.Describe(name)
		require.NoError(t, err)
		assert.Equal(t, DefaultInternalIDField, e.InternalIDField, name)
		_, ok := e.Field(e.IdentityField)
		assert.True(t, ok, "%s: identity field must be declared", name)
	}
}

func TestLocalOnlyFieldsDerived(t *testing.T) {
	game, err := Default().Describe(EntityGame)
	require.NoError(t, err)

	assert.True(t, game.IsExternal())
	assert.True(t, game.IsLocalOnly("downloads"))
	assert.True(t, game.IsLocalOnly("id"))
	assert.False(t, game.IsLocalOnly("title"))
	assert.False(t, game.IsLocalOnly("platformID"))

	save, err := Default().Describe(EntitySaveData)
	require.NoError(t, err)
	assert.False(t, save.IsExternal())
	assert.Empty(t, save.LocalOnlyFields)
}

func TestFieldStoreName(t *testing.T) {
	game, err := Default().Describe(EntityGame)
	require.NoError(t, err)

	platform, ok := game.Field("platformID")
	require.True(t, ok)
	assert.Equal(t, "platformIDs", platform.Store())
	assert.Equal(t, "array<number>", platform.Type.String())
	assert.Equal(t, Number, platform.Type.Element())

	title, _ := game.Field("title")
	assert.Equal(t, "title", title.Store())
	ext, ok := title.External()
	assert.True(t, ok)
	assert.Equal(t, "name", ext)
}

func TestNewRejectsBrokenDescriptors(t *testing.T) {
	tests := []struct {
		name string
		in   []EntityDescriptor
	}{
		{
			name: "missing identity",
			in:   []EntityDescriptor{{Name: "a", IdentityField: "id", Fields: map[string]FieldDescriptor{}}},
		},
		{
			name: "duplicate",
			in: []EntityDescriptor{
				{Name: "a", IdentityField: "id", Fields: map[string]FieldDescriptor{"id": {Type: Number}}},
				{Name: "a", IdentityField: "id", Fields: map[string]FieldDescriptor{"id": {Type: Number}}},
			},
		},
		{
			name: "dangling relation",
			in: []EntityDescriptor{{
				Name: "a", IdentityField: "id",
				Fields:    map[string]FieldDescriptor{"id": {Type: Number}, "bID": {Type: Number}},
				Relations: map[string]Relation{"b": {ForeignKey: "bID"}},
			}},
		},
		{
			name: "unknown mutable field",
			in: []EntityDescriptor{{
				Name: "a", IdentityField: "id",
				Fields:        map[string]FieldDescriptor{"id": {Type: Number}},
				MutableFields: []string{"nope"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.in...)
			assert.Error(t, err)
		})
	}
}

func TestCyclicRelationsResolveByName(t *testing.T) {
	reg, err := New(
		EntityDescriptor{
			Name: "a", IdentityField: "id",
			Fields:    map[string]FieldDescriptor{"id": {Type: Number}, "bID": {Type: Number}},
			Relations: map[string]Relation{"b": {ForeignKey: "bID"}},
		},
		EntityDescriptor{
			Name: "b", IdentityField: "id",
			Fields:    map[string]FieldDescriptor{"id": {Type: Number}, "aID": {Type: Number}},
			Relations: map[string]Relation{"a": {ForeignKey: "aID"}},
		},
	)
	require.NoError(t, err)

	a, err := reg.Describe("a")
	require.NoError(t, err)
	rel, ok := a.Relation("b")
	require.True(t, ok)
	assert.Equal(t, "b", rel.Entity)
}

func TestDependents(t *testing.T) {
	deps := Default().Dependents(EntityUser)

	var owners []string
	for _, d := range deps {
		owners = append(owners, d.Owner)
		assert.True(t, d.Relation.Cascade)
	}
	assert.Equal(t, []string{"comment", "savedata"}, owners)
}
