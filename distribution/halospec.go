// Package distribution implements the distribution planner of spec.md §4.6:
// BlockPartition (and the degenerate Cloned/SingleLocale distributions),
// producing one locale.CartLocaleExtent per inter-locale rank from a global
// shape, a cartesian grid, and a halo specification.
package distribution

import "github.com/gomlx/mpidist/types/mderr"

// ResolveHalo normalises a halo specification into the ndim x 2 matrix form
// every constructor in types/locale expects. It accepts:
//
//   - nil: zero halo on every axis and side.
//   - int: a single uniform width applied symmetrically to every axis/side.
//   - []int: one width per axis, applied symmetrically to both sides.
//   - [][2]int: an explicit per-axis, per-side matrix.
//
// This is the Go-side counterpart of the original's duck-typed halo
// argument (spec.md §6 "halo: integer (uniform), per-axis sequence ...
// or ndim x 2 matrix"), re-architected per spec.md §9's tagged-constructor
// note instead of accepting bare `any` downstream of this one normalisation
// point.
func ResolveHalo(ndim int, spec any) ([][2]int, error) {
	switch v := spec.(type) {
	case nil:
		return make([][2]int, ndim), nil
	case int:
		if v < 0 {
			return nil, mderr.Configurationf("halo must be non-negative, got %d", v).WithParam("halo")
		}
		out := make([][2]int, ndim)
		for a := range out {
			out[a] = [2]int{v, v}
		}
		return out, nil
	case []int:
		if len(v) != ndim {
			return nil, mderr.Configurationf(
				"halo has %d entries, expected one per axis (%d)", len(v), ndim).WithParam("halo")
		}
		out := make([][2]int, ndim)
		for a, w := range v {
			if w < 0 {
				return nil, mderr.Configurationf("axis %d: halo must be non-negative, got %d", a, w).WithParam("halo")
			}
			out[a] = [2]int{w, w}
		}
		return out, nil
	case [][2]int:
		if len(v) != ndim {
			return nil, mderr.Configurationf(
				"halo matrix has %d rows, expected one per axis (%d)", len(v), ndim).WithParam("halo")
		}
		out := make([][2]int, ndim)
		for a, sides := range v {
			if sides[0] < 0 || sides[1] < 0 {
				return nil, mderr.Configurationf(
					"axis %d: halo widths must be non-negative, got %v", a, sides).WithParam("halo")
			}
			out[a] = sides
		}
		return out, nil
	default:
		return nil, mderr.Configurationf("unsupported halo specification type %T", spec).WithParam("halo")
	}
}
