package reflection

import (
	"os"
	"sort"

	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/xerrors"
)

// FileIdentifier is the identifier flatc stamps on binary schema files.
const FileIdentifier = "BFBS"

// vtable offsets of the reflection.fbs tables.
const (
	schemaObjects   = 4
	schemaEnums     = 6
	schemaFileIdent = 8
	schemaFileExt   = 10
	schemaRootTable = 12

	objectName          = 4
	objectFields        = 6
	objectIsStruct      = 8
	objectMinAlign      = 10
	objectByteSize      = 12
	objectAttributes    = 14
	objectDocumentation = 16

	fieldName           = 4
	fieldType           = 6
	fieldID             = 8
	fieldOffset         = 10
	fieldDefaultInteger = 12
	fieldDefaultReal    = 14
	fieldDeprecated     = 16
	fieldRequired       = 18
	fieldKey            = 20
	fieldAttributes     = 22
	fieldDocumentation  = 24
	fieldOptional       = 26
	fieldPadding        = 28

	typeBaseType    = 4
	typeElement     = 6
	typeIndex       = 8
	typeFixedLength = 10
	typeBaseSize    = 12
	typeElementSize = 14

	enumName           = 4
	enumValues         = 6
	enumIsUnion        = 8
	enumUnderlyingType = 10
	enumAttributes     = 12
	enumDocumentation  = 14

	enumValName          = 4
	enumValValue         = 6
	enumValObject        = 8
	enumValUnionType     = 10
	enumValDocumentation = 12
	enumValAttributes    = 14

	keyValueKey   = 4
	keyValueValue = 6
)

// tab wraps a reflection table with the accessor shapes flatc generates.
type tab struct {
	flatbuffers.Table
}

func (t tab) str(slot flatbuffers.VOffsetT) string {
	o := flatbuffers.UOffsetT(t.Offset(slot))
	if o == 0 {
		return ""
	}
	return t.String(o + t.Pos)
}

func (t tab) sub(slot flatbuffers.VOffsetT) (tab, bool) {
	o := flatbuffers.UOffsetT(t.Offset(slot))
	if o == 0 {
		return tab{}, false
	}
	return tab{flatbuffers.Table{Bytes: t.Bytes, Pos: t.Indirect(o + t.Pos)}}, true
}

func (t tab) vecLen(slot flatbuffers.VOffsetT) int {
	o := flatbuffers.UOffsetT(t.Offset(slot))
	if o == 0 {
		return 0
	}
	return t.VectorLen(o)
}

func (t tab) vecTable(slot flatbuffers.VOffsetT, j int) tab {
	o := flatbuffers.UOffsetT(t.Offset(slot))
	x := t.Vector(o)
	x += flatbuffers.UOffsetT(j) * 4
	return tab{flatbuffers.Table{Bytes: t.Bytes, Pos: t.Indirect(x)}}
}

func (t tab) vecString(slot flatbuffers.VOffsetT, j int) string {
	o := flatbuffers.UOffsetT(t.Offset(slot))
	a := t.Vector(o)
	return string(t.ByteVector(a + flatbuffers.UOffsetT(j*4)))
}

func (t tab) strings(slot flatbuffers.VOffsetT) []string {
	n := t.vecLen(slot)
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for j := range out {
		out[j] = t.vecString(slot, j)
	}
	return out
}

func (t tab) keyValues(slot flatbuffers.VOffsetT) []KeyValue {
	n := t.vecLen(slot)
	if n == 0 {
		return nil
	}
	out := make([]KeyValue, n)
	for j := range out {
		kv := t.vecTable(slot, j)
		out[j] = KeyValue{Key: kv.str(keyValueKey), Value: kv.str(keyValueValue)}
	}
	return out
}

// HasIdentifier reports whether buf carries the BFBS file identifier.
func HasIdentifier(buf []byte) bool {
	return len(buf) >= 8 && string(buf[4:8]) == FileIdentifier
}

// LoadFile reads and parses a .bfbs file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("read schema: %w", err)
	}
	s, err := Load(data)
	if err != nil {
		return nil, xerrors.Errorf("load schema %s: %w", path, err)
	}
	return s, nil
}

// Load parses a binary schema. Fields of every object are returned in id
// order; objects and enums keep the file order so Type.Index stays valid.
func Load(buf []byte) (s *Schema, err error) {
	if len(buf) < 8 {
		return nil, xerrors.Errorf("%d bytes: %w", len(buf), ErrMalformed)
	}
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, xerrors.Errorf("%v: %w", r, ErrMalformed)
		}
	}()

	root := tab{flatbuffers.Table{Bytes: buf, Pos: flatbuffers.GetUOffsetT(buf)}}
	s = &Schema{
		FileIdent: root.str(schemaFileIdent),
		FileExt:   root.str(schemaFileExt),
	}

	byPos := make(map[flatbuffers.UOffsetT]int32)
	n := root.vecLen(schemaObjects)
	s.Objects = make([]*Object, n)
	for i := 0; i < n; i++ {
		t := root.vecTable(schemaObjects, i)
		byPos[t.Pos] = int32(i)
		s.Objects[i] = loadObject(t)
	}

	n = root.vecLen(schemaEnums)
	s.Enums = make([]*Enum, n)
	for i := 0; i < n; i++ {
		s.Enums[i] = loadEnum(root.vecTable(schemaEnums, i), byPos)
	}

	if rt, ok := root.sub(schemaRootTable); ok {
		idx, found := byPos[rt.Pos]
		if !found {
			return nil, xerrors.Errorf("root table outside object list: %w", ErrMalformed)
		}
		s.RootTable = s.Objects[idx]
	}

	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

func loadType(t tab) Type {
	return Type{
		BaseType:    BaseType(t.GetInt8Slot(typeBaseType, 0)),
		Element:     BaseType(t.GetInt8Slot(typeElement, 0)),
		Index:       t.GetInt32Slot(typeIndex, -1),
		FixedLength: t.GetUint16Slot(typeFixedLength, 0),
		BaseSize:    t.GetUint32Slot(typeBaseSize, 4),
		ElementSize: t.GetUint32Slot(typeElementSize, 0),
	}
}

func loadObject(t tab) *Object {
	o := &Object{
		Name:          t.str(objectName),
		IsStruct:      t.GetBoolSlot(objectIsStruct, false),
		MinAlign:      t.GetInt32Slot(objectMinAlign, 0),
		ByteSize:      t.GetInt32Slot(objectByteSize, 0),
		Attributes:    t.keyValues(objectAttributes),
		Documentation: t.strings(objectDocumentation),
	}
	n := t.vecLen(objectFields)
	o.Fields = make([]*Field, n)
	for i := 0; i < n; i++ {
		ft := t.vecTable(objectFields, i)
		f := &Field{
			Name:           ft.str(fieldName),
			ID:             ft.GetUint16Slot(fieldID, 0),
			Offset:         ft.GetUint16Slot(fieldOffset, 0),
			DefaultInteger: ft.GetInt64Slot(fieldDefaultInteger, 0),
			DefaultReal:    ft.GetFloat64Slot(fieldDefaultReal, 0),
			Deprecated:     ft.GetBoolSlot(fieldDeprecated, false),
			Required:       ft.GetBoolSlot(fieldRequired, false),
			Key:            ft.GetBoolSlot(fieldKey, false),
			Optional:       ft.GetBoolSlot(fieldOptional, false),
			Padding:        ft.GetUint16Slot(fieldPadding, 0),
			Attributes:     ft.keyValues(fieldAttributes),
			Documentation:  ft.strings(fieldDocumentation),
		}
		if tt, ok := ft.sub(fieldType); ok {
			f.Type = loadType(tt)
		}
		o.Fields[i] = f
	}
	sort.SliceStable(o.Fields, func(i, j int) bool { return o.Fields[i].ID < o.Fields[j].ID })
	return o
}

func loadEnum(t tab, byPos map[flatbuffers.UOffsetT]int32) *Enum {
	e := &Enum{
		Name:          t.str(enumName),
		IsUnion:       t.GetBoolSlot(enumIsUnion, false),
		Attributes:    t.keyValues(enumAttributes),
		Documentation: t.strings(enumDocumentation),
	}
	if ut, ok := t.sub(enumUnderlyingType); ok {
		e.UnderlyingType = loadType(ut)
	}
	n := t.vecLen(enumValues)
	e.Values = make([]*EnumVal, n)
	for i := 0; i < n; i++ {
		vt := t.vecTable(enumValues, i)
		ev := &EnumVal{
			Name:          vt.str(enumValName),
			Value:         vt.GetInt64Slot(enumValValue, 0),
			Documentation: vt.strings(enumValDocumentation),
			Attributes:    vt.keyValues(enumValAttributes),
		}
		if ut, ok := vt.sub(enumValUnionType); ok {
			typ := loadType(ut)
			ev.UnionType = &typ
		} else if ot, ok := vt.sub(enumValObject); ok {
			// Schemas from older flatc versions only carry the object.
			if idx, found := byPos[ot.Pos]; found {
				ev.UnionType = &Type{BaseType: Obj, Index: idx, BaseSize: 4}
			}
		}
		e.Values[i] = ev
	}
	return e
}

// check rejects schemas whose type indices point outside the object or enum
// lists, so later walks can index without bounds checks.
func (s *Schema) check() error {
	for _, o := range s.Objects {
		for _, f := range o.Fields {
			t := f.Type
			if t.BaseType < None || t.BaseType >= MaxBaseType {
				return xerrors.Errorf("%s.%s: base type %d: %w", o.Name, f.Name, t.BaseType, ErrMalformed)
			}
			needsObject := t.BaseType == Obj || ((t.BaseType == Vector || t.BaseType == Array) && t.Element == Obj)
			if needsObject && s.Object(t.Index) == nil {
				return xerrors.Errorf("%s.%s: object index %d: %w", o.Name, f.Name, t.Index, ErrMalformed)
			}
			if t.BaseType == Union && s.Enum(t.Index) == nil {
				return xerrors.Errorf("%s.%s: union index %d: %w", o.Name, f.Name, t.Index, ErrMalformed)
			}
			if !o.IsStruct && f.Offset < 4 {
				return xerrors.Errorf("%s.%s: vtable offset %d: %w", o.Name, f.Name, f.Offset, ErrMalformed)
			}
		}
	}
	return nil
}
