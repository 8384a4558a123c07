package editor

import (
	"strings"

	"golang.org/x/xerrors"

	"scenelab/internal/fbutil"
	"scenelab/internal/reflection"
)

var ErrStructSyntax = xerrors.New("editor: malformed struct text")

func nestedStruct(s *reflection.Schema, f *reflection.Field) *reflection.Object {
	if f.Type.BaseType != reflection.Obj {
		return nil
	}
	return s.Object(f.Type.Index)
}

// FormatStruct renders the struct obj stored in data as
// "< v1, v2, < v3a, v3b >, v4 >", fields in declaration order.
func FormatStruct(s *reflection.Schema, obj *reflection.Object, data []byte) string {
	var sb strings.Builder
	writeStruct(&sb, s, obj, data, false)
	return sb.String()
}

// FormatStructFieldNames renders the field names of obj in the same shape
// FormatStruct renders its values.
func FormatStructFieldNames(s *reflection.Schema, obj *reflection.Object) string {
	var sb strings.Builder
	writeStruct(&sb, s, obj, nil, true)
	return sb.String()
}

func writeStruct(sb *strings.Builder, s *reflection.Schema, obj *reflection.Object, data []byte, names bool) {
	sb.WriteString("< ")
	for i, f := range obj.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch sub := nestedStruct(s, f); {
		case sub != nil:
			var sd []byte
			if data != nil {
				sd = data[f.Offset:]
			}
			writeStruct(sb, s, sub, sd, names)
		case names:
			sb.WriteString(f.Name)
		case f.Type.BaseType.IsScalar():
			sb.WriteString(fbutil.FormatScalar(data, f.Type.BaseType, uint32(f.Offset)))
		default:
			sb.WriteString("?")
		}
	}
	sb.WriteString(" >")
}

// ParseStruct parses text in the FormatStruct notation into dst, which must
// hold obj.ByteSize bytes. With a nil dst the text is only validated. The
// whole text is validated before anything is written, so dst is untouched on
// error.
func ParseStruct(s *reflection.Schema, obj *reflection.Object, text string, dst []byte) error {
	if err := parseStruct(s, obj, text, nil); err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	return parseStruct(s, obj, text, dst)
}

func parseStruct(s *reflection.Schema, obj *reflection.Object, text string, dst []byte) error {
	body, rest, err := splitSpan(text)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rest) != "" {
		return xerrors.Errorf("trailing %q after %s: %w", strings.TrimSpace(rest), obj.Name, ErrStructSyntax)
	}
	return parseFields(s, obj, body, dst)
}

// splitSpan finds the "<...>" span at the start of text and returns its
// inside and whatever follows the closing bracket.
func splitSpan(text string) (body, rest string, err error) {
	text = trimSpace(text)
	if !strings.HasPrefix(text, "<") {
		return "", "", xerrors.Errorf("expected '<' at %q: %w", text, ErrStructSyntax)
	}
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return text[1:i], text[i+1:], nil
			}
		}
	}
	return "", "", xerrors.Errorf("unbalanced brackets in %q: %w", text, ErrStructSyntax)
}

func trimSpace(s string) string {
	return strings.TrimLeft(s, " \t\r\n")
}

// tokenEnd is the length of the scalar token at the start of s.
func tokenEnd(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n', ',', '<', '>':
			return i
		}
	}
	return len(s)
}

func parseFields(s *reflection.Schema, obj *reflection.Object, body string, dst []byte) error {
	for i, f := range obj.Fields {
		body = trimSpace(body)
		if i > 0 && strings.HasPrefix(body, ",") {
			body = trimSpace(body[1:])
		}
		if body == "" {
			return xerrors.Errorf("%s.%s missing: %w", obj.Name, f.Name, ErrStructSyntax)
		}
		if sub := nestedStruct(s, f); sub != nil {
			inner, rest, err := splitSpan(body)
			if err != nil {
				return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
			}
			var sd []byte
			if dst != nil {
				sd = dst[f.Offset:]
			}
			if err := parseFields(s, sub, inner, sd); err != nil {
				return err
			}
			body = rest
			continue
		}
		bt := f.Type.BaseType
		if !bt.IsScalar() {
			return xerrors.Errorf("%s.%s: %s: %w", obj.Name, f.Name, bt, fbutil.ErrUnsupported)
		}
		n := tokenEnd(body)
		if n == 0 {
			return xerrors.Errorf("%s.%s: unexpected %q: %w", obj.Name, f.Name, body[:1], ErrStructSyntax)
		}
		tok := body[:n]
		var err error
		if dst != nil {
			err = fbutil.SetScalar(dst, bt, uint32(f.Offset), tok)
		} else {
			err = fbutil.ParseScalar(bt, tok)
		}
		if err != nil {
			return xerrors.Errorf("%s.%s: %w", obj.Name, f.Name, err)
		}
		body = body[n:]
	}
	body = trimSpace(body)
	if body != "" {
		return xerrors.Errorf("%s: extra values %q: %w", obj.Name, body, ErrStructSyntax)
	}
	return nil
}
