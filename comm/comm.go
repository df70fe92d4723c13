// Package comm defines the MPI-like communicator abstraction the core
// topology and distribution packages consume (spec.md §6): an opaque handle
// providing rank/size/group queries, the split and collective operations
// needed to build a locale topology, and an explicit Null sentinel
// distinguishable from an absent value.
//
// This package never performs real inter-process communication -- it only
// describes the capability surface. comm.Local (local.go) is the in-process
// reference implementation used by tests and the demo CLI.
package comm

// Communicator is the capability surface the core requires of an MPI (or
// MPI-like) communicator. Implementations wrap a real MPI binding's world
// or sub-communicator; this module never duplicates or frees them -- per
// spec.md §5, ownership belongs to the caller.
type Communicator interface {
	// Rank returns this process's rank within the communicator.
	Rank() int
	// Size returns the number of processes in the communicator.
	Size() int
	// Group returns the process group backing this communicator, used for
	// rank translation between communicators.
	Group() Group

	// SplitShared splits the communicator by "processes that can share
	// memory" (MPI-3 MPI_Comm_split_type with MPI_COMM_TYPE_SHARED).
	SplitShared() (Communicator, error)

	// SplitColorKey splits the communicator, grouping ranks by color and
	// ordering within each group by key. A color of ColorUndefined excludes
	// the calling rank from the result, which receives Null.
	SplitColorKey(color, key int) (Communicator, error)

	// AllReduceSum performs an integer-sum all-reduce of local across every
	// rank in the communicator.
	AllReduceSum(local int) (int, error)

	// CartCreate creates a cartesian topology over this communicator with
	// the given per-axis dims. periods marks which axes wrap around
	// (always false in this module: periodic boundaries are a non-goal).
	// reorder allows the implementation to renumber ranks for locality.
	CartCreate(dims []int, periods []bool, reorder bool) (CartCommunicator, error)

	// BroadcastInts broadcasts values from root to every rank in the
	// communicator, returning the received slice (root's own values are
	// returned unchanged to root).
	BroadcastInts(root int, values []int) ([]int, error)
}

// CartCommunicator is a Communicator additionally arranged as a cartesian
// grid, providing coordinate <-> rank translation.
type CartCommunicator interface {
	Communicator
	// CoordToRank translates a cartesian coordinate to a rank in this
	// communicator.
	CoordToRank(coord []int) (int, error)
	// RankToCoord translates a rank in this communicator to its cartesian
	// coordinate.
	RankToCoord(rank int) ([]int, error)
	// Dims returns the (resolved, all-positive) per-axis grid shape.
	Dims() []int
}

// Group is a process group, used only for rank translation between two
// communicators (spec.md §6 "group-to-group rank translation").
type Group interface {
	// TranslateRanks translates each of ranks (rank numbers within the
	// group g belongs to) into the corresponding rank in target, or -1 for
	// a rank not present in target.
	TranslateRanks(ranks []int, target Group) ([]int, error)
}

// ColorUndefined is the color value that excludes a rank from the result of
// SplitColorKey -- it receives Null instead of a new communicator.
const ColorUndefined = -1

// Null is the sentinel communicator returned for ranks excluded from a
// split. It is explicitly distinguishable from "absent": a nil
// Communicator interface value is a programming error, never Null -- test
// for Null with IsNull, not with a nil comparison.
var Null Communicator = nullCommunicator{}

type nullCommunicator struct{}

func (nullCommunicator) Rank() int      { return -1 }
func (nullCommunicator) Size() int      { return 0 }
func (nullCommunicator) Group() Group   { return nullGroup{} }
func (nullCommunicator) SplitShared() (Communicator, error) {
	return Null, nil
}
func (nullCommunicator) SplitColorKey(int, int) (Communicator, error) {
	return Null, nil
}
func (nullCommunicator) AllReduceSum(int) (int, error) {
	return 0, nil
}
func (nullCommunicator) CartCreate([]int, []bool, bool) (CartCommunicator, error) {
	return nil, errNullOperation
}
func (nullCommunicator) BroadcastInts(int, []int) ([]int, error) {
	return nil, errNullOperation
}

type nullGroup struct{}

func (nullGroup) TranslateRanks(ranks []int, _ Group) ([]int, error) {
	out := make([]int, len(ranks))
	for i := range out {
		out[i] = -1
	}
	return out, nil
}

// IsNull reports whether c is the Null sentinel.
func IsNull(c Communicator) bool {
	_, ok := c.(nullCommunicator)
	return ok
}

var errNullOperation = nullOperationError{}

type nullOperationError struct{}

func (nullOperationError) Error() string {
	return "comm: operation not valid on the Null communicator"
}
