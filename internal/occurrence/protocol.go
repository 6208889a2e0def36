package occurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidProtocol indica protocolo fora do formato OCR-AAAA-NNN.
	ErrInvalidProtocol = errors.New("protocolo inválido")
)

const protocolPrefix = "OCR-"

// FormatProtocol monta o protocolo legível com sequência de pelo menos três dígitos.
func FormatProtocol(year int, seq int64) string {
	return fmt.Sprintf("%s%04d-%03d", protocolPrefix, year, seq)
}

// ParseProtocol extrai ano e sequência de um protocolo.
func ParseProtocol(protocol string) (int, int64, error) {
	rest, ok := strings.CutPrefix(protocol, protocolPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidProtocol, protocol)
	}
	yearPart, seqPart, ok := strings.Cut(rest, "-")
	if !ok || len(yearPart) != 4 || len(seqPart) < 3 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidProtocol, protocol)
	}
	if !digits(yearPart) || !digits(seqPart) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidProtocol, protocol)
	}
	year, _ := strconv.Atoi(yearPart)
	seq, err := strconv.ParseInt(seqPart, 10, 64)
	if err != nil || seq <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidProtocol, protocol)
	}
	return year, seq, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
