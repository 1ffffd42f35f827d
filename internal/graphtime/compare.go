package graphtime

// Op selects the relation tested by Compare.
type Op string

const (
	OpLess           Op = "lt"
	OpLessOrEqual    Op = "le"
	OpGreater        Op = "gt"
	OpGreaterOrEqual Op = "ge"
)

// Compare orders two instants without ever failing on mixed zone-awareness.
//
// When exactly one operand is unzoned, its wall-clock fields are
// reinterpreted in the other operand's location before comparing. This is a
// deliberate approximation inherited from the upstream behavior: it keeps
// mixed input comparable at the cost of accuracy when the borrowed offset
// differs from the one the naive value was actually recorded in. An unknown
// op returns false.
func Compare(a, b Instant, op Op) bool {
	x, y := a.Time, b.Time
	if a.Zoned != b.Zoned {
		if a.Zoned {
			y = rezone(y, x.Location())
		} else {
			x = rezone(x, y.Location())
		}
	}

	switch op {
	case OpLess:
		return x.Before(y)
	case OpLessOrEqual:
		return x.Before(y) || x.Equal(y)
	case OpGreater:
		return x.After(y)
	case OpGreaterOrEqual:
		return x.After(y) || x.Equal(y)
	default:
		return false
	}
}
