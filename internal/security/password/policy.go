package password

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

type Policy struct {
	MinLength     int
	MaxLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	// Blacklist de passwords comunes (lowercase).
	Blacklist map[string]struct{}
}

// DefaultPolicy: 8..128 caracteres sin requisitos de clase.
var DefaultPolicy = Policy{MinLength: 8, MaxLength: 128}

func (p Policy) Validate(s string) (ok bool, reasons []string) {
	n := len([]rune(s))
	if n < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		reasons = append(reasons, "too_long")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	if _, bad := p.Blacklist[strings.ToLower(strings.TrimSpace(s))]; bad {
		reasons = append(reasons, "too_common")
	}
	return len(reasons) == 0, reasons
}

// ReadBlacklist lee un password por línea; ignora vacías y comentarios '#'.
func ReadBlacklist(r io.Reader) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(strings.ToLower(sc.Text()))
		if s != "" && !strings.HasPrefix(s, "#") {
			out[s] = struct{}{}
		}
	}
	return out, sc.Err()
}
