package d2

import (
	"strconv"

	"go.uber.org/zap"
)

// applyEscape processes the body of an escape sequence `\x1b[key=value]`.
// key may be followed by one of + - * / to combine the value with the
// current one. Unknown keys and malformed values leave the scribe
// unchanged.
func (s *Scribe) applyEscape(seq string) bool {
	i := 0
	for i < len(seq) && (seq[i] == '_' || (seq[i] >= 'a' && seq[i] <= 'z')) {
		i++
	}
	key, rest := seq[:i], seq[i:]

	var op byte
	if len(rest) > 0 {
		switch rest[0] {
		case '+', '-', '*', '/':
			op, rest = rest[0], rest[1:]
		}
	}
	if len(rest) == 0 || rest[0] != '=' {
		Logger().Debug("malformed text escape", zap.String("sequence", seq))
		return false
	}
	value := rest[1:]

	switch key {
	case "color", "outline":
		if op != 0 {
			return false
		}
		c, ok := ParseHexColor(value)
		if !ok {
			Logger().Debug("invalid escape color", zap.String("sequence", seq))
			return false
		}
		if key == "color" {
			s.Color = c
		} else {
			s.Outline = c
		}
		return true
	}

	field := s.floatField(key)
	if field == nil {
		Logger().Debug("unknown text escape", zap.String("key", key))
		return false
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		Logger().Debug("invalid escape number", zap.String("sequence", seq), zap.Error(err))
		return false
	}
	v := float32(f)
	switch op {
	case '+':
		*field += v
	case '-':
		*field -= v
	case '*':
		*field *= v
	case '/':
		*field /= v
	default:
		*field = v
	}
	return true
}

func (s *Scribe) floatField(key string) *float32 {
	switch key {
	case "font_size":
		return &s.FontSize
	case "font_width_scale":
		return &s.FontWidthScale
	case "line_height":
		return &s.LineHeight
	case "baseline":
		return &s.Baseline
	case "x_pos":
		return &s.XPos
	case "letter_spacing":
		return &s.LetterSpacing
	case "top_skew":
		return &s.TopSkew
	}
	return nil
}

// ParseHexColor parses #V, #RGB, #RGBA, #RRGGBB or #RRGGBBAA. The leading
// '#' is optional; colors without an alpha component are opaque.
func ParseHexColor(s string) (Color, bool) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	var d [8]uint8
	if len(s) > len(d) {
		return Color{}, false
	}
	for i := 0; i < len(s); i++ {
		v, ok := hexDigit(s[i])
		if !ok {
			return Color{}, false
		}
		d[i] = v
	}
	switch len(s) {
	case 1:
		v := d[0] * 17
		return Color{v, v, v, 255}, true
	case 3:
		return Color{d[0] * 17, d[1] * 17, d[2] * 17, 255}, true
	case 4:
		return Color{d[0] * 17, d[1] * 17, d[2] * 17, d[3] * 17}, true
	case 6:
		return Color{d[0]<<4 | d[1], d[2]<<4 | d[3], d[4]<<4 | d[5], 255}, true
	case 8:
		return Color{d[0]<<4 | d[1], d[2]<<4 | d[3], d[4]<<4 | d[5], d[6]<<4 | d[7]}, true
	}
	return Color{}, false
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
