package editor

import (
	"math/bits"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"scenelab/internal/fbutil"
	"scenelab/internal/reflection"
)

const (
	flagSeparator = " | "
	blankFlags    = "-blank-"
	unknownEnum   = "???"
)

// isBitFlags reports whether every declared value of e has at most one bit
// set.
func isBitFlags(e *reflection.Enum) bool {
	for _, ev := range e.Values {
		if bits.OnesCount64(uint64(ev.Value)) > 1 {
			return false
		}
	}
	return true
}

// ResolveEnum names value v of enum e. Exact matches return the member name.
// For bit flag enums the set bits are named in declaration order, joined by
// " | ", with " | ???" appended when bits are left over and "-blank-" for
// zero. Anything else resolves to "???".
func ResolveEnum(e *reflection.Enum, v int64) string {
	if ev := e.ValueByValue(v); ev != nil {
		return ev.Name
	}
	if !isBitFlags(e) {
		return unknownEnum
	}
	if v == 0 {
		return blankFlags
	}
	rest := uint64(v)
	var names []string
	for _, ev := range e.Values {
		bit := uint64(ev.Value)
		if bit != 0 && rest&bit != 0 {
			names = append(names, ev.Name)
			rest &^= bit
		}
	}
	if len(names) == 0 {
		return unknownEnum
	}
	if rest != 0 {
		names = append(names, unknownEnum)
	}
	return strings.Join(names, flagSeparator)
}

// ParseEnumValue reads text as a value of e stored as bt: an integer, a
// member name, or member names joined with '|'.
func ParseEnumValue(e *reflection.Enum, bt reflection.BaseType, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if err := fbutil.ParseScalar(bt, text); err == nil {
		if bt == reflection.ULong {
			u, _ := strconv.ParseUint(text, 10, 64)
			return int64(u), nil
		}
		return strconv.ParseInt(text, 10, 64)
	}
	var v int64
	for _, part := range strings.Split(text, "|") {
		name := strings.TrimSpace(part)
		ev := e.ValueByName(name)
		if ev == nil {
			return 0, xerrors.Errorf("%q is not a member of %s: %w", name, e.Name, fbutil.ErrBadScalar)
		}
		v |= ev.Value
	}
	if err := fbutil.ParseScalar(bt, formatInt(bt, v)); err != nil {
		return 0, err
	}
	return v, nil
}

func formatInt(bt reflection.BaseType, v int64) string {
	if bt == reflection.ULong {
		return strconv.FormatUint(uint64(v), 10)
	}
	return strconv.FormatInt(v, 10)
}

// enumAnnotation is the "(<names>)" hint drawn beside an enum scalar, empty
// when text is not a number.
func enumAnnotation(e *reflection.Enum, bt reflection.BaseType, text string) string {
	v, err := ParseEnumValue(e, bt, text)
	if err != nil {
		return ""
	}
	return "(" + ResolveEnum(e, v) + ")"
}
