package d2

// UnitKind selects how a Unit value is interpreted.
type UnitKind uint8

const (
	// UnitAbs is an absolute size.
	UnitAbs UnitKind = iota
	// UnitPct is a percentage of the total size.
	UnitPct
	// UnitFr is a share of the space left after absolute and percentage
	// units.
	UnitFr
)

// Unit is a span size in a flex template. The zero Unit is an absolute
// size of 0.
type Unit struct {
	Kind  UnitKind
	Value float32
}

func Abs(v float32) Unit { return Unit{Kind: UnitAbs, Value: v} }
func Pct(v float32) Unit { return Unit{Kind: UnitPct, Value: v} }
func Fr(v float32) Unit  { return Unit{Kind: UnitFr, Value: v} }

// Justify distributes the space left over by a template that has no
// fractional units.
type Justify uint8

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

// Flip returns the other orientation.
func (o Orientation) Flip() Orientation {
	if o == Horizontal {
		return Vertical
	}
	return Horizontal
}

// Flex1D splits [start, end] into one span per template unit, separated by
// gap. Fractional units, including a fractional gap, share the remaining
// space and make justify irrelevant. It returns nil for an empty template
// or an inverted range.
func Flex1D(start, end float32, gap Unit, justify Justify, template []Unit) [][2]float32 {
	if len(template) == 0 || start > end {
		return nil
	}
	size := end - start
	n := len(template)

	var used, totalFr float32
	if gap.Kind == UnitFr {
		totalFr = gap.Value * float32(n-1)
	}
	for _, u := range template {
		switch u.Kind {
		case UnitAbs:
			used += u.Value
		case UnitPct:
			used += u.Value * 0.01 * size
		case UnitFr:
			totalFr += u.Value
		}
	}
	frSpace := size - used
	var perFr float32
	if totalFr != 0 {
		perFr = frSpace / totalFr
	}

	var gapSize float32
	if n > 1 {
		switch gap.Kind {
		case UnitAbs:
			gapSize = gap.Value
		case UnitPct:
			gapSize = gap.Value * 0.01 * size
		case UnitFr:
			gapSize = gap.Value * perFr
		}
	}
	if gap.Kind != UnitFr {
		frSpace -= gapSize * float32(n-1)
		if totalFr != 0 {
			perFr = frSpace / totalFr
		}
	}

	var free float32
	if totalFr == 0 {
		free = frSpace
	}
	var base, shift float32
	switch justify {
	case JustifyCenter:
		base = free * 0.5
	case JustifyEnd:
		base = free
	case JustifySpaceBetween:
		if n > 1 {
			shift = free / float32(n-1)
		}
	case JustifySpaceAround:
		shift = free / float32(n)
		base = shift * 0.5
	case JustifySpaceEvenly:
		shift = free / float32(n+1)
		base = shift
	}

	spans := make([][2]float32, n)
	pos := start
	for i, u := range template {
		var s float32
		switch u.Kind {
		case UnitAbs:
			s = u.Value
		case UnitPct:
			s = u.Value * 0.01 * size
		case UnitFr:
			s = u.Value * perFr
		}
		spans[i] = [2]float32{base + pos, base + pos + s}
		pos += s + gapSize
		base += shift
	}
	return spans
}

// Flex2D lays out template along one axis of b; each result spans the full
// extent of b on the other axis.
func Flex2D(b Bounds, o Orientation, gap Unit, justify Justify, template []Unit) []Bounds {
	axis := 0
	if o == Vertical {
		axis = 1
	}
	spans := Flex1D(b.Min[axis], b.Max[axis], gap, justify, template)
	if spans == nil {
		return nil
	}
	out := make([]Bounds, len(spans))
	for i, s := range spans {
		r := b
		r.Min[axis], r.Max[axis] = s[0], s[1]
		out[i] = r
	}
	return out
}
