package fixed

import (
	"strings"

	"github.com/pkg/errors"
)

const maxFracDigits = 9

// Parse reads a decimal literal such as "-12.375" without going through floating
// point. The fraction is rounded to the nearest 1/65536; digits past the ninth are ignored.
func Parse(s string) (Fixed, error) {
	text := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(text, "-") {
		neg = true
		text = text[1:]
	} else {
		text = strings.TrimPrefix(text, "+")
	}
	intPart, fracPart, _ := strings.Cut(text, ".")
	if intPart == "" && fracPart == "" {
		return Zero, errors.Wrapf(ErrSyntax, "%q", s)
	}

	var ip int64
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return Zero, errors.Wrapf(ErrSyntax, "%q", s)
		}
		if ip <= 1<<FracBits {
			ip = ip*10 + int64(c-'0')
		}
	}

	var num, den int64 = 0, 1
	for i, c := range fracPart {
		if c < '0' || c > '9' {
			return Zero, errors.Wrapf(ErrSyntax, "%q", s)
		}
		if i < maxFracDigits {
			num = num*10 + int64(c-'0')
			den *= 10
		}
	}

	raw := ip<<FracBits + (num<<FracBits+den/2)/den
	if neg {
		raw = -raw
	}
	return saturate(raw), nil
}

func MustParse(s string) Fixed {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (a Fixed) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Fixed) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	v, err := Parse(text)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
