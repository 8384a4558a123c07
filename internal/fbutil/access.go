// Package fbutil reads, writes, copies and resizes FlatBuffers buffers
// generically, guided by a reflection.Schema. Locations inside a buffer are
// byte positions; any position is invalidated by a resize that happens before
// it.
package fbutil

import (
	"math"
	"strconv"
	"strings"

	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/xerrors"

	"scenelab/internal/reflection"
)

var (
	ErrTruncated   = xerrors.New("fbutil: buffer truncated")
	ErrBadOffset   = xerrors.New("fbutil: offset out of range")
	ErrBadScalar   = xerrors.New("fbutil: invalid scalar text")
	ErrUnsupported = xerrors.New("fbutil: unsupported field kind")
)

func table(buf []byte, pos uint32) *flatbuffers.Table {
	return &flatbuffers.Table{Bytes: buf, Pos: flatbuffers.UOffsetT(pos)}
}

// RootPos is the position of the root table.
func RootPos(buf []byte) uint32 {
	return uint32(flatbuffers.GetUOffsetT(buf))
}

// FieldOffset returns the field's offset inside its table, 0 when absent.
func FieldOffset(buf []byte, tablePos uint32, f *reflection.Field) uint32 {
	return uint32(table(buf, tablePos).Offset(flatbuffers.VOffsetT(f.Offset)))
}

func HasField(buf []byte, tablePos uint32, f *reflection.Field) bool {
	return FieldOffset(buf, tablePos, f) != 0
}

// FieldPos is the absolute position of a field's inline data, 0 when absent.
func FieldPos(buf []byte, tablePos uint32, f *reflection.Field) uint32 {
	o := FieldOffset(buf, tablePos, f)
	if o == 0 {
		return 0
	}
	return tablePos + o
}

// Deref follows the uoffset stored at pos.
func Deref(buf []byte, pos uint32) uint32 {
	return uint32(table(buf, 0).Indirect(flatbuffers.UOffsetT(pos)))
}

// RefPos returns the position of the string, vector or table an offset field
// points to, 0 when the field is absent.
func RefPos(buf []byte, tablePos uint32, f *reflection.Field) uint32 {
	p := FieldPos(buf, tablePos, f)
	if p == 0 {
		return 0
	}
	return Deref(buf, p)
}

func GetString(buf []byte, strPos uint32) string {
	n := flatbuffers.GetUint32(buf[strPos:])
	return string(buf[strPos+4 : strPos+4+n])
}

func VectorLen(buf []byte, vecPos uint32) int {
	return int(flatbuffers.GetUint32(buf[vecPos:]))
}

// VectorElem is the position of element i of a vector with elemSize-byte
// elements.
func VectorElem(vecPos uint32, i, elemSize int) uint32 {
	return vecPos + 4 + uint32(i*elemSize)
}

// StructBytes returns the inline bytes of a struct at pos.
func StructBytes(buf []byte, pos uint32, o *reflection.Object) []byte {
	return buf[pos : pos+uint32(o.ByteSize)]
}

// UnionObject resolves the active table of union field f. It returns nil
// without error when the selector is NONE or absent.
func UnionObject(s *reflection.Schema, obj *reflection.Object, f *reflection.Field, buf []byte, tablePos uint32) (*reflection.Object, error) {
	sel := obj.UnionTypeField(f)
	if sel == nil {
		return nil, xerrors.Errorf("union %s.%s has no selector: %w", obj.Name, f.Name, ErrUnsupported)
	}
	v := int64(0)
	if p := FieldPos(buf, tablePos, sel); p != 0 {
		v = ReadInt(buf, reflection.UType, p)
	}
	if v == 0 {
		return nil, nil
	}
	return s.UnionObject(f, v)
}

// ReadInt reads an integer scalar widened to int64. ULong values above
// MaxInt64 wrap; floats are truncated.
func ReadInt(buf []byte, bt reflection.BaseType, pos uint32) int64 {
	b := buf[pos:]
	switch bt {
	case reflection.UType, reflection.Bool, reflection.UByte:
		return int64(flatbuffers.GetUint8(b))
	case reflection.Byte:
		return int64(flatbuffers.GetInt8(b))
	case reflection.Short:
		return int64(flatbuffers.GetInt16(b))
	case reflection.UShort:
		return int64(flatbuffers.GetUint16(b))
	case reflection.Int:
		return int64(flatbuffers.GetInt32(b))
	case reflection.UInt:
		return int64(flatbuffers.GetUint32(b))
	case reflection.Long:
		return flatbuffers.GetInt64(b)
	case reflection.ULong:
		return int64(flatbuffers.GetUint64(b))
	case reflection.Float:
		return int64(flatbuffers.GetFloat32(b))
	case reflection.Double:
		return int64(flatbuffers.GetFloat64(b))
	}
	return 0
}

func ReadFloat(buf []byte, bt reflection.BaseType, pos uint32) float64 {
	switch bt {
	case reflection.Float:
		return float64(flatbuffers.GetFloat32(buf[pos:]))
	case reflection.Double:
		return flatbuffers.GetFloat64(buf[pos:])
	case reflection.ULong:
		return float64(flatbuffers.GetUint64(buf[pos:]))
	}
	return float64(ReadInt(buf, bt, pos))
}

// WriteInt stores v truncated to the width of bt.
func WriteInt(buf []byte, bt reflection.BaseType, pos uint32, v int64) {
	b := buf[pos:]
	switch bt {
	case reflection.UType, reflection.Bool, reflection.UByte:
		flatbuffers.WriteUint8(b, uint8(v))
	case reflection.Byte:
		flatbuffers.WriteInt8(b, int8(v))
	case reflection.Short:
		flatbuffers.WriteInt16(b, int16(v))
	case reflection.UShort:
		flatbuffers.WriteUint16(b, uint16(v))
	case reflection.Int:
		flatbuffers.WriteInt32(b, int32(v))
	case reflection.UInt:
		flatbuffers.WriteUint32(b, uint32(v))
	case reflection.Long:
		flatbuffers.WriteInt64(b, v)
	case reflection.ULong:
		flatbuffers.WriteUint64(b, uint64(v))
	case reflection.Float:
		flatbuffers.WriteFloat32(b, float32(v))
	case reflection.Double:
		flatbuffers.WriteFloat64(b, float64(v))
	}
}

func WriteFloat(buf []byte, bt reflection.BaseType, pos uint32, v float64) {
	switch bt {
	case reflection.Float:
		flatbuffers.WriteFloat32(buf[pos:], float32(v))
	case reflection.Double:
		flatbuffers.WriteFloat64(buf[pos:], v)
	default:
		WriteInt(buf, bt, pos, int64(v))
	}
}

// FormatScalar renders the scalar at pos as text. Bools render as 0 or 1.
func FormatScalar(buf []byte, bt reflection.BaseType, pos uint32) string {
	switch {
	case bt == reflection.Float:
		return strconv.FormatFloat(ReadFloat(buf, bt, pos), 'g', -1, 32)
	case bt == reflection.Double:
		return strconv.FormatFloat(ReadFloat(buf, bt, pos), 'g', -1, 64)
	case bt == reflection.ULong:
		return strconv.FormatUint(flatbuffers.GetUint64(buf[pos:]), 10)
	case bt.IsInteger():
		return strconv.FormatInt(ReadInt(buf, bt, pos), 10)
	}
	return ""
}

// FormatDefault renders the schema default of a scalar field.
func FormatDefault(f *reflection.Field) string {
	bt := f.Type.BaseType
	switch {
	case bt == reflection.Float:
		return strconv.FormatFloat(f.DefaultReal, 'g', -1, 32)
	case bt == reflection.Double:
		return strconv.FormatFloat(f.DefaultReal, 'g', -1, 64)
	case bt == reflection.ULong:
		return strconv.FormatUint(uint64(f.DefaultInteger), 10)
	}
	return strconv.FormatInt(f.DefaultInteger, 10)
}

// GetFieldText returns a scalar field's text, or its default when absent.
func GetFieldText(buf []byte, tablePos uint32, f *reflection.Field) string {
	p := FieldPos(buf, tablePos, f)
	if p == 0 {
		return FormatDefault(f)
	}
	return FormatScalar(buf, f.Type.BaseType, p)
}

type scalar struct {
	i int64
	u uint64
	f float64
}

func bitSize(bt reflection.BaseType) int {
	return bt.Size() * 8
}

func parseScalar(bt reflection.BaseType, text string) (scalar, error) {
	text = strings.TrimSpace(text)
	var v scalar
	var err error
	switch {
	case bt == reflection.Bool:
		switch text {
		case "true", "1":
			v.u = 1
		case "false", "0":
		default:
			err = strconv.ErrSyntax
		}
	case bt.IsFloat():
		v.f, err = strconv.ParseFloat(text, bitSize(bt))
		if err == nil && bt == reflection.Float && math.Abs(v.f) > math.MaxFloat32 && !math.IsInf(v.f, 0) {
			err = strconv.ErrRange
		}
	case bt.IsUnsigned():
		v.u, err = strconv.ParseUint(text, 10, bitSize(bt))
	case bt.IsInteger():
		v.i, err = strconv.ParseInt(text, 10, bitSize(bt))
	default:
		return v, xerrors.Errorf("%s: %w", bt, ErrUnsupported)
	}
	if err != nil {
		return v, xerrors.Errorf("%q as %s: %w", text, bt, ErrBadScalar)
	}
	return v, nil
}

// ParseScalar checks that text is a valid value of type bt.
func ParseScalar(bt reflection.BaseType, text string) error {
	_, err := parseScalar(bt, text)
	return err
}

// SetScalar parses text and stores it at pos. The buffer is untouched when
// parsing fails.
func SetScalar(buf []byte, bt reflection.BaseType, pos uint32, text string) error {
	v, err := parseScalar(bt, text)
	if err != nil {
		return err
	}
	switch {
	case bt.IsFloat():
		WriteFloat(buf, bt, pos, v.f)
	case bt.IsUnsigned():
		WriteInt(buf, bt, pos, int64(v.u))
	default:
		WriteInt(buf, bt, pos, v.i)
	}
	return nil
}

// defaultBytes encodes the default of a scalar field little-endian.
func defaultBytes(f *reflection.Field) []byte {
	bt := f.Type.BaseType
	out := make([]byte, bt.Size())
	if bt.IsFloat() {
		WriteFloat(out, bt, 0, f.DefaultReal)
	} else {
		WriteInt(out, bt, 0, f.DefaultInteger)
	}
	return out
}
