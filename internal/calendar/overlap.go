package calendar

// Interval is the half-open range [Start, End) in epoch millis.
type Interval struct {
	Start int64
	End   int64
}

// NewInterval normalizes both endpoints with Millis.
func NewInterval(start, end any) Interval {
	return Interval{Start: Millis(start), End: Millis(end)}
}

// Valid reports whether both endpoints parsed, lie within
// [MinMillis, MaxMillis] and End is after Start.
func (i Interval) Valid() bool {
	return i.Start != 0 && i.End != 0 && i.End > i.Start && InRange(i.Start) && InRange(i.End)
}

// Overlaps reports whether the two intervals share at least one instant.
// Touching endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return max(i.Start, o.Start) < min(i.End, o.End)
}

// Overlap compares [aStart, aEnd) and [bStart, bEnd) given in any form
// Millis accepts.  Unparseable endpoints count as 0 and no error is
// raised; an interval whose start degenerates to 0 reaches back to the
// epoch, so callers validate with Interval.Valid first.
func Overlap(aStart, aEnd, bStart, bEnd any) bool {
	return NewInterval(aStart, aEnd).Overlaps(NewInterval(bStart, bEnd))
}
