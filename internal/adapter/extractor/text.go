package extractor

import (
	"bytes"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// extractText reads a plain-text file, trying a fixed ordered list of
// encodings. The first one that decodes wins; latin-1 accepts any byte
// sequence and acts as the final fallback.
func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	if decoded, ok := decodeUTF16(data); ok {
		return decoded, nil
	}

	// Latin-1 maps every byte, so this cannot fail.
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func decodeUTF16(data []byte) (string, bool) {
	var endian unicode.Endianness
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		endian = unicode.LittleEndian
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		endian = unicode.BigEndian
	default:
		return "", false
	}

	decoder := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
	decoded, err := decoder.Bytes(data)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
