package parse

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parses the text of a number token. The result is an int, a *big.Int, a
// float64 or a complex128.
func parseNumber(text string) (any, error) {
	text = strings.ReplaceAll(text, "_", "")
	lower := strings.ToLower(text)
	if len(lower) > 2 && lower[0] == '0' && strings.ContainsRune("xob", rune(lower[1])) {
		base := map[byte]int{'x': 16, 'o': 8, 'b': 2}[lower[1]]
		z, ok := new(big.Int).SetString(text[2:], base)
		if !ok {
			return nil, fmt.Errorf("invalid number literal %q", text)
		}
		return normalizeInt(z), nil
	}
	if strings.HasSuffix(lower, "j") {
		f, err := parseFloat(text[:len(text)-1])
		if err != nil {
			return nil, err
		}
		return complex(0, f), nil
	}
	if strings.ContainsAny(lower, ".e") {
		return parseFloat(text)
	}
	z, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("invalid number literal %q", text)
	}
	return normalizeInt(z), nil
}

func parseFloat(text string) (float64, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("invalid number literal %q", text)
	}
	// Out-of-range literals become infinity, as in the reference language.
	return f, nil
}

func normalizeInt(z *big.Int) any {
	if z.IsInt64() {
		if i := z.Int64(); int64(int(i)) == i {
			return int(i)
		}
	}
	return z
}

// Splits the text of a string token into its lowercased prefix and the body
// between the quotes, returned as offsets relative to the token.
func splitString(text string) (prefix string, bodyFrom, bodyTo int) {
	i := strings.IndexAny(text, `'"`)
	prefix = strings.ToLower(text[:i])
	q := 1
	if strings.HasPrefix(text[i:], strings.Repeat(text[i:i+1], 3)) && len(text)-i >= 6 {
		q = 3
	}
	return prefix, i + q, len(text) - q
}

// Decodes backslash escapes in the body of a non-raw string literal. When
// bytes is true, the escapes are those of bytes literals and the result holds
// raw bytes.
func decodeEscapes(s string, bytes bool) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			i++
			continue
		}
		e := s[i+1]
		i += 2
		switch e {
		case '\n':
		case '\r':
			if i < len(s) && s[i] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'a':
			sb.WriteByte(7)
		case 'b':
			sb.WriteByte(8)
		case 'f':
			sb.WriteByte(12)
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte(11)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i - 1
			for i < len(s) && i-j < 3 && '0' <= s[i] && s[i] <= '7' {
				i++
			}
			n, _ := strconv.ParseUint(s[j:i], 8, 32)
			if bytes {
				sb.WriteByte(byte(n))
			} else {
				sb.WriteRune(rune(n))
			}
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if e != 'x' && bytes {
				sb.WriteByte('\\')
				sb.WriteByte(e)
				continue
			}
			if i+width > len(s) || !allHex(s[i:i+width]) {
				return "", fmt.Errorf("(unicode error) truncated \\%c%s escape", e, strings.Repeat("X", width))
			}
			n, _ := strconv.ParseUint(s[i:i+width], 16, 32)
			i += width
			switch {
			case bytes:
				sb.WriteByte(byte(n))
			case n > utf8.MaxRune:
				return "", fmt.Errorf("(unicode error) illegal Unicode character")
			default:
				sb.WriteRune(rune(n))
			}
		case 'N':
			if bytes {
				sb.WriteString(`\N`)
				continue
			}
			return "", errors.New(`(unicode error) \N{...} escapes are not supported`)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String(), nil
}

func allHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}
