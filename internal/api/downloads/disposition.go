package downloads

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// attachmentDisposition builds an attachment Content-Disposition for the
// filename provided. Names that are not plain printable ASCII get an
// ASCII-folded 'filename' for older clients alongside an RFC 6266
// 'filename*' carrying the UTF-8 name percent-encoded.
func attachmentDisposition(filename string) string {
	filename = strings.ToValidUTF8(filename, string(utf8.RuneError))
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}

		return r
	}, filename)

	if fallback == filename {
		return fmt.Sprintf(`attachment; filename="%s"`, filename)
	}

	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, encodeExtValue(filename))
}

// encodeExtValue percent-encodes every byte outside the RFC 5987
// attr-char set.
func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			sb.WriteByte(c)
			continue
		}

		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}

	return sb.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}

	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
