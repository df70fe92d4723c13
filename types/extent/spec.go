package extent

import "github.com/gomlx/mpidist/types/mderr"

// Spec is a tagged union replacing the source's duck-typed constructor,
// which accepted slice-sequences, start/stop pairs, or "anything with
// start/stop". Build one with FromBounds, FromStartStop, or FromSlices, and
// pass it to New.
type Spec struct {
	kind specKind

	// used by specBounds and specStartStop
	start, stop []int

	// used by specSlices: one [2]int{beg, end} pair per axis
	slices [][2]int
}

type specKind int

const (
	specBounds specKind = iota
	specStartStop
	specSlices
)

// FromBounds builds a Spec from a shape vector, implicitly anchored at the
// origin (beg = 0 on every axis).
func FromBounds(shape []int) Spec {
	start := make([]int, len(shape))
	return Spec{kind: specBounds, start: start, stop: shape}
}

// FromStartStop builds a Spec from explicit per-axis start and stop vectors.
func FromStartStop(start, stop []int) Spec {
	return Spec{kind: specStartStop, start: start, stop: stop}
}

// FromSlices builds a Spec from a sequence of per-axis [beg, end) pairs.
func FromSlices(slices [][2]int) Spec {
	return Spec{kind: specSlices, slices: slices}
}

func (s Spec) resolve() (beg, end []int, err error) {
	switch s.kind {
	case specBounds, specStartStop:
		if len(s.start) != len(s.stop) {
			return nil, nil, mderr.Configurationf(
				"start and stop vectors must have the same length, got %d and %d",
				len(s.start), len(s.stop)).WithParam("spec")
		}
		return append([]int(nil), s.start...), append([]int(nil), s.stop...), nil
	case specSlices:
		beg = make([]int, len(s.slices))
		end = make([]int, len(s.slices))
		for i, pair := range s.slices {
			beg[i], end[i] = pair[0], pair[1]
		}
		return beg, end, nil
	default:
		return nil, nil, mderr.Internalf("unknown extent.Spec kind %d", int(s.kind))
	}
}
