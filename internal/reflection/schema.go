// Package reflection holds an in-memory model of a FlatBuffers binary schema
// (the .bfbs format produced by `flatc --binary --schema`) and the helpers the
// editor needs to walk buffers generically.
package reflection

import (
	"sort"

	"golang.org/x/xerrors"
)

var (
	ErrMalformed = xerrors.New("reflection: malformed binary schema")
	ErrNoObject  = xerrors.New("reflection: no such object")
)

// Type describes the declared type of a field.
type Type struct {
	BaseType BaseType
	// Element is the element kind for vectors and arrays.
	Element BaseType
	// Index points into Schema.Objects for Obj (or vector of Obj), and into
	// Schema.Enums for enum scalars and unions. -1 when unused.
	Index       int32
	FixedLength uint16
	BaseSize    uint32
	ElementSize uint32
}

type KeyValue struct {
	Key   string
	Value string
}

type EnumVal struct {
	Name          string
	Value         int64
	UnionType     *Type
	Documentation []string
	Attributes    []KeyValue
}

type Enum struct {
	Name           string
	Values         []*EnumVal
	IsUnion        bool
	UnderlyingType Type
	Attributes     []KeyValue
	Documentation  []string
}

// ValueByValue returns the first declared member with value v.
func (e *Enum) ValueByValue(v int64) *EnumVal {
	for _, ev := range e.Values {
		if ev.Value == v {
			return ev
		}
	}
	return nil
}

func (e *Enum) ValueByName(name string) *EnumVal {
	for _, ev := range e.Values {
		if ev.Name == name {
			return ev
		}
	}
	return nil
}

type Field struct {
	Name string
	Type Type
	ID   uint16
	// Offset is the vtable offset for table fields and the byte offset from
	// the start of the struct for struct fields.
	Offset         uint16
	DefaultInteger int64
	DefaultReal    float64
	Deprecated     bool
	Required       bool
	Key            bool
	Optional       bool
	Padding        uint16
	Attributes     []KeyValue
	Documentation  []string
}

// Slot is the vtable slot index of a table field.
func (f *Field) Slot() int {
	return int(f.Offset-4) / 2
}

// VTableOffset returns the vtable offset for a table field with the given id.
func VTableOffset(id uint16) uint16 {
	return 4 + 2*id
}

type Object struct {
	Name string
	// Fields are kept in declaration (id) order.
	Fields        []*Field
	IsStruct      bool
	MinAlign      int32
	ByteSize      int32
	Attributes    []KeyValue
	Documentation []string
}

func (o *Object) FieldByName(name string) *Field {
	for _, f := range o.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// NumSlots is the vtable length, in slots, needed for every declared field.
func (o *Object) NumSlots() int {
	n := 0
	for _, f := range o.Fields {
		if s := f.Slot() + 1; s > n {
			n = s
		}
	}
	return n
}

type Schema struct {
	Objects   []*Object
	Enums     []*Enum
	FileIdent string
	FileExt   string
	RootTable *Object
}

// Object returns Objects[i], or nil when i is out of range.
func (s *Schema) Object(i int32) *Object {
	if i < 0 || int(i) >= len(s.Objects) {
		return nil
	}
	return s.Objects[i]
}

// Enum returns Enums[i], or nil when i is out of range.
func (s *Schema) Enum(i int32) *Enum {
	if i < 0 || int(i) >= len(s.Enums) {
		return nil
	}
	return s.Enums[i]
}

func (s *Schema) ObjectByName(name string) (*Object, bool) {
	for _, o := range s.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}

func (s *Schema) EnumByName(name string) (*Enum, bool) {
	for _, e := range s.Enums {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Tables returns the names of all non-struct objects, sorted.
func (s *Schema) Tables() []string {
	var names []string
	for _, o := range s.Objects {
		if !o.IsStruct {
			names = append(names, o.Name)
		}
	}
	sort.Strings(names)
	return names
}

// InlineSize is the number of bytes a value of type (bt, index) occupies in
// place: the struct size for structs, otherwise the base type size.
func (s *Schema) InlineSize(bt BaseType, index int32) int {
	if bt == Obj {
		if o := s.Object(index); o != nil && o.IsStruct {
			return int(o.ByteSize)
		}
	}
	return bt.Size()
}

// InlineAlign is the alignment of a value of type (bt, index).
func (s *Schema) InlineAlign(bt BaseType, index int32) int {
	if bt == Obj {
		if o := s.Object(index); o != nil && o.IsStruct {
			return int(o.MinAlign)
		}
	}
	return bt.Size()
}

// IsStructType reports whether t refers to a struct object.
func (s *Schema) IsStructType(bt BaseType, index int32) bool {
	if bt != Obj {
		return false
	}
	o := s.Object(index)
	return o != nil && o.IsStruct
}

// UnionTypeField returns the selector field ("<name>_type") of a union field.
func (o *Object) UnionTypeField(union *Field) *Field {
	return o.FieldByName(union.Name + "_type")
}

// UnionObject resolves the table stored in a union for selector value v.
func (s *Schema) UnionObject(union *Field, v int64) (*Object, error) {
	e := s.Enum(union.Type.Index)
	if e == nil {
		return nil, xerrors.Errorf("union %q: enum index %d: %w", union.Name, union.Type.Index, ErrNoObject)
	}
	ev := e.ValueByValue(v)
	if ev == nil || ev.UnionType == nil {
		return nil, xerrors.Errorf("union %q: type %d: %w", union.Name, v, ErrNoObject)
	}
	o := s.Object(ev.UnionType.Index)
	if o == nil {
		return nil, xerrors.Errorf("union %q: object %d: %w", union.Name, ev.UnionType.Index, ErrNoObject)
	}
	return o, nil
}
