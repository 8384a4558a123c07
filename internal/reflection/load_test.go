package reflection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func monsterSchema() *Schema {
	s := &Schema{FileIdent: "MONS", FileExt: "mon"}
	vec3 := s.AddStruct("Vec3",
		ScalarField("x", Float),
		ScalarField("y", Float),
		ScalarField("z", Float),
	)
	color := s.AddEnum("Color", UByte,
		&EnumVal{Name: "Red", Value: 1},
		&EnumVal{Name: "Green", Value: 2},
		&EnumVal{Name: "Blue", Value: 4},
	)
	weapon := s.AddTable("Weapon", StringField("name"), ScalarField("damage", Short))
	equip := s.AddUnion("Equipment", weapon)
	sel, val := s.UnionFields("equipped", equip)
	monster := s.AddTable("Monster",
		s.ObjectField("pos", vec3),
		ScalarField("hp", Short),
		StringField("name"),
		VectorField("inventory", UByte),
		s.EnumField("color", color),
		s.ObjectVectorField("weapons", weapon),
		sel,
		val,
	)
	monster.Fields[1].DefaultInteger = 100
	monster.Fields[2].Documentation = []string{" display name"}
	s.RootTable = monster
	return s
}

func TestBuildLoadRoundTrip(t *testing.T) {
	src := monsterSchema()
	buf := Build(src)
	require.True(t, HasIdentifier(buf))

	got, err := Load(buf)
	require.NoError(t, err)

	assert.Equal(t, "MONS", got.FileIdent)
	assert.Equal(t, "mon", got.FileExt)
	require.Len(t, got.Objects, len(src.Objects))
	require.Len(t, got.Enums, len(src.Enums))
	require.NotNil(t, got.RootTable)
	assert.Equal(t, "Monster", got.RootTable.Name)

	for i, want := range src.Objects {
		o := got.Objects[i]
		assert.Equal(t, want.Name, o.Name)
		assert.Equal(t, want.IsStruct, o.IsStruct)
		assert.Equal(t, want.ByteSize, o.ByteSize)
		assert.Equal(t, want.MinAlign, o.MinAlign)
		require.Len(t, o.Fields, len(want.Fields))
		for j, wf := range want.Fields {
			f := o.Fields[j]
			assert.Equal(t, wf.Name, f.Name)
			assert.Equal(t, wf.Type, f.Type, "%s.%s", o.Name, f.Name)
			assert.Equal(t, wf.Offset, f.Offset)
			assert.Equal(t, wf.DefaultInteger, f.DefaultInteger)
			assert.Equal(t, wf.Documentation, f.Documentation)
		}
	}

	color, ok := got.EnumByName("Color")
	require.True(t, ok)
	assert.Equal(t, "Blue", color.ValueByValue(4).Name)
	assert.Nil(t, color.ValueByValue(3))
}

func TestLoadSortsFieldsByID(t *testing.T) {
	s := &Schema{}
	o := s.AddTable("T", ScalarField("b", Int), ScalarField("a", Int))
	// flatc writes fields sorted by name.
	o.Fields[0], o.Fields[1] = o.Fields[1], o.Fields[0]
	s.RootTable = o

	got, err := Load(Build(s))
	require.NoError(t, err)
	require.Len(t, got.RootTable.Fields, 2)
	assert.Equal(t, "b", got.RootTable.Fields[0].Name)
	assert.Equal(t, "a", got.RootTable.Fields[1].Name)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load([]byte{1, 2, 3})
	assert.True(t, xerrors.Is(err, ErrMalformed))

	buf := Build(monsterSchema())
	_, err = Load(buf[:len(buf)/3])
	assert.True(t, xerrors.Is(err, ErrMalformed))
}

func TestLoadRejectsBadIndex(t *testing.T) {
	s := &Schema{}
	f := &Field{Name: "child", Type: Type{BaseType: Obj, Index: 7}}
	s.RootTable = s.AddTable("T", f)

	_, err := Load(Build(s))
	assert.True(t, xerrors.Is(err, ErrMalformed))
}

func TestStructLayout(t *testing.T) {
	s := &Schema{}
	inner := s.AddStruct("Inner", ScalarField("a", Byte), ScalarField("b", Int))
	outer := s.AddStruct("Outer", ScalarField("flag", Bool), s.ObjectField("in", inner), ScalarField("d", Double))

	assert.Equal(t, int32(8), inner.ByteSize)
	assert.Equal(t, uint16(4), inner.Fields[1].Offset)
	assert.Equal(t, int32(4), inner.MinAlign)

	assert.Equal(t, uint16(4), outer.Fields[1].Offset)
	assert.Equal(t, uint16(16), outer.Fields[2].Offset)
	assert.Equal(t, int32(24), outer.ByteSize)
	assert.Equal(t, int32(8), outer.MinAlign)
}

func TestLookups(t *testing.T) {
	s := monsterSchema()

	_, ok := s.ObjectByName("Dragon")
	assert.False(t, ok)

	m, ok := s.ObjectByName("Monster")
	require.True(t, ok)
	assert.Equal(t, []string{"Monster", "Weapon"}, s.Tables())
	assert.Equal(t, 8, m.NumSlots())

	val := m.FieldByName("equipped")
	require.NotNil(t, val)
	sel := m.UnionTypeField(val)
	require.NotNil(t, sel)
	assert.Equal(t, UType, sel.Type.BaseType)

	w, err := s.UnionObject(val, 1)
	require.NoError(t, err)
	assert.Equal(t, "Weapon", w.Name)

	_, err = s.UnionObject(val, 0)
	assert.True(t, xerrors.Is(err, ErrNoObject))
}

func TestBaseTypeSizes(t *testing.T) {
	tests := []struct {
		bt   BaseType
		size int
	}{
		{Bool, 1}, {Short, 2}, {UInt, 4}, {Long, 8}, {Float, 4}, {Double, 8}, {String, 4}, {Vector, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.size, tt.bt.Size(), tt.bt.String())
	}
	assert.True(t, UType.IsScalar())
	assert.False(t, String.IsScalar())
	assert.True(t, ULong.IsUnsigned())
	assert.False(t, Long.IsUnsigned())
}
