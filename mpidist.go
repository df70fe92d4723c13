// Package mpidist composes the topology, distribution, and halo-exchange
// planner packages into the two public entry points of spec.md §6/C8:
// CreateDistribution (general) and CreateBlockDistribution (the common
// "block" case pinned to distrib_type = block). Everything else in this
// module is reusable without going through here -- the factory exists to
// bind grid-shape resolution, rank-map broadcasting, and the LocaleType
// policy into one call.
package mpidist

import (
	"fmt"

	"github.com/gomlx/mpidist/comm"
	"github.com/gomlx/mpidist/distribution"
	"github.com/gomlx/mpidist/topology"
	"github.com/gomlx/mpidist/types/extent"
	"github.com/gomlx/mpidist/types/locale"
	"github.com/gomlx/mpidist/types/mderr"
	"github.com/pkg/errors"
)

// DistribType selects the partitioning strategy (spec.md §6 "distrib_type").
type DistribType int

const (
	// Block is the general cartesian partition: dims resolved across every
	// axis, one balanced block per locale.
	Block DistribType = iota
	// Slab forces dims[a] = 1 for every axis except Axis, which is
	// partitioned across all locales.
	Slab
)

// String implements fmt.Stringer in the hand-written switch-table idiom
// this module uses in place of the enumer generator (see DESIGN.md).
func (d DistribType) String() string {
	switch d {
	case Block:
		return "block"
	case Slab:
		return "slab"
	default:
		return fmt.Sprintf("DistribType(%d)", int(d))
	}
}

// LocaleType selects what counts as one locale (spec.md §6 "locale_type").
type LocaleType int

const (
	// Node groups processes that share memory into one locale (the usual
	// case: one locale per NUMA node / physical machine).
	Node LocaleType = iota
	// Process makes every process its own locale: the intra-locale
	// communicator degenerates to "self".
	Process
)

// String implements fmt.Stringer.
func (l LocaleType) String() string {
	switch l {
	case Node:
		return "node"
	case Process:
		return "process"
	default:
		return fmt.Sprintf("LocaleType(%d)", int(l))
	}
}

// Config gathers the options of spec.md §6: global shape, halo, grid shape,
// and the DistribType/LocaleType policy. Build one with the With* options
// below; Config itself is never mutated after CreateDistribution runs.
type Config struct {
	shape []int
	halo  any

	dims        []int
	distribType DistribType
	localeType  LocaleType
	slabAxis    int

	// StrictInternal makes mderr.Internal errors panic instead of being
	// returned, matching spec.md §7's "aborts with diagnostic" language for
	// internal-consistency failures. Library callers should leave this
	// false (the default); the demo CLI runs with it enabled.
	StrictInternal bool
}

// Option configures a Config via the functional-options idiom (spec.md §9's
// "duck-typed constructor" re-architecture note: Go has no keyword
// arguments, so a chain of Option values takes their place).
type Option func(*Config)

// WithDims sets the requested grid shape. Zero entries are resolved by
// ResolveDims; omit this option (or pass nil/empty) to resolve every axis
// automatically.
func WithDims(dims []int) Option {
	return func(c *Config) { c.dims = dims }
}

// WithHalo sets the halo spec, accepted by distribution.ResolveHalo
// (nil, a single int, a per-axis []int, or a full [][2]int).
func WithHalo(halo any) Option {
	return func(c *Config) { c.halo = halo }
}

// WithLocaleType sets the locale-grouping policy. Defaults to Node.
func WithLocaleType(lt LocaleType) Option {
	return func(c *Config) { c.localeType = lt }
}

// WithDistribType sets the partitioning strategy. Defaults to Block.
func WithDistribType(dt DistribType) Option {
	return func(c *Config) { c.distribType = dt }
}

// WithStrictInternal enables spec.md §7's strict mode: mderr.Internal
// errors panic instead of being returned. Defaults to false.
func WithStrictInternal(strict bool) Option {
	return func(c *Config) { c.StrictInternal = strict }
}

// WithSlabAxis sets which axis carries the full partition under
// DistribType Slab (every other axis gets dims[a] = 1). Defaults to 0.
func WithSlabAxis(axis int) Option {
	return func(c *Config) { c.slabAxis = axis }
}

// buildConfig applies opts over the zero-valued defaults (Block, Node, no
// halo, all-zero dims) and validates eagerly per spec.md §6's
// "Configuration error ... surfaced eagerly at construction" rule.
func buildConfig(shape []int, opts []Option) (*Config, error) {
	c := &Config{shape: shape}
	for _, opt := range opts {
		opt(c)
	}
	if len(shape) == 0 {
		return nil, mderr.Configurationf("shape must have at least one axis").WithParam("shape")
	}
	ndim := len(shape)
	if c.dims == nil {
		c.dims = make([]int, ndim)
	}
	if len(c.dims) != ndim {
		return nil, mderr.Configurationf(
			"dims has %d axes, shape has %d", len(c.dims), ndim).WithParam("dims")
	}
	if c.distribType != Block && c.distribType != Slab {
		return nil, mderr.Configurationf("unrecognised distrib_type %d", int(c.distribType)).
			WithParam("distrib_type").WithRecognized(Block.String(), Slab.String())
	}
	if c.localeType != Node && c.localeType != Process {
		return nil, mderr.Configurationf("unrecognised locale_type %d", int(c.localeType)).
			WithParam("locale_type").WithRecognized(Node.String(), Process.String())
	}
	if c.distribType == Slab {
		if c.slabAxis < 0 || c.slabAxis >= ndim {
			return nil, mderr.Configurationf(
				"slab axis %d out of range [0, %d)", c.slabAxis, ndim).WithParam("slab_axis")
		}
		for a := range c.dims {
			if a == c.slabAxis {
				continue
			}
			if c.dims[a] != 0 && c.dims[a] != 1 {
				return nil, mderr.Configurationf(
					"distrib_type slab requires dims[%d] == 1, got %d", a, c.dims[a]).WithParam("dims")
			}
			c.dims[a] = 1
		}
	}
	return c, nil
}

// buildLocaleComms runs spec.md §4.4's locale split, or its LocaleType
// Process override: every process becomes its own locale by splitting flat
// with a distinct color per rank, so the "intra-locale" communicator is
// just the calling process alone.
func buildLocaleComms(flat comm.Communicator, lt LocaleType) (*topology.LocaleComms, error) {
	if lt == Node {
		return topology.BuildLocaleComms(flat)
	}
	self, err := flat.SplitColorKey(flat.Rank(), 0)
	if err != nil {
		return nil, mderr.New(mderr.Topology, err).WithRank(flat.Rank()).WithParam("locale_type_process_split")
	}
	if self.Size() != 1 {
		return nil, mderr.Internalf(
			"locale_type process split produced a locale of size %d, expected 1", self.Size()).WithRank(flat.Rank())
	}
	isLeaderInt := 1
	numLocales, err := flat.AllReduceSum(isLeaderInt)
	if err != nil {
		return nil, mderr.New(mderr.Topology, err).WithRank(flat.Rank()).WithParam("num_locales_allreduce")
	}

	var inter comm.Communicator
	var flatRanks []int
	if numLocales > 1 {
		inter, err = flat.SplitColorKey(0, flat.Rank())
		if err != nil {
			return nil, mderr.New(mderr.Topology, err).WithRank(flat.Rank()).WithParam("leader_split")
		}
		ranks := make([]int, inter.Size())
		for i := range ranks {
			ranks[i] = i
		}
		flatRanks, err = inter.Group().TranslateRanks(ranks, flat.Group())
		if err != nil {
			return nil, mderr.New(mderr.Topology, err).WithRank(flat.Rank()).WithParam("rank_translation")
		}
	} else {
		// Single locale: bypass the leader split entirely, mirroring
		// topology.BuildLocaleComms's own single-locale branch.
		inter = comm.Null
		flatRanks = []int{flat.Rank()}
	}
	return &topology.LocaleComms{
		FlatComm:                  flat,
		IntraLocaleComm:           self,
		InterLocaleComm:           inter,
		NumLocales:                numLocales,
		InterLocaleRankToFlatRank: flatRanks,
	}, nil
}

// CreateDistribution runs the full construction pipeline of spec.md §6 on
// flat: split into locales (§4.4) honouring LocaleType, impose a cartesian
// topology (§4.5), and block-partition shape into a Distribution (§4.6).
// Every rank in flat must call this, in the same order as every other rank.
func CreateDistribution(flat comm.Communicator, shape []int, opts ...Option) (*distribution.Distribution, *topology.CartLocaleComms, error) {
	cfg, err := buildConfig(shape, opts)
	if err != nil {
		return nil, nil, err
	}

	lc, err := buildLocaleComms(flat, cfg.localeType)
	if err != nil {
		return nil, nil, PanicOnInternal(err, cfg.StrictInternal)
	}
	clc, err := topology.BuildCartLocaleComms(lc, cfg.dims)
	if err != nil {
		return nil, nil, PanicOnInternal(err, cfg.StrictInternal)
	}

	globaleSpec := extent.FromBounds(shape)
	globale, err := locale.NewGlobaleExtent(globaleSpec)
	if err != nil {
		return nil, nil, PanicOnInternal(err, cfg.StrictInternal)
	}

	dist, err := distribution.BlockPartition(globale, clc.Dims, clc.InterLocaleRankToCartCoord, cfg.halo, clc.InterLocaleRankToFlatRank)
	if err != nil {
		return nil, nil, PanicOnInternal(err, cfg.StrictInternal)
	}
	return dist, clc, nil
}

// CreateBlockDistribution is CreateDistribution pinned to DistribType Block,
// the common case named directly in spec.md C8
// ("create_block_distribution").
func CreateBlockDistribution(flat comm.Communicator, shape []int, opts ...Option) (*distribution.Distribution, *topology.CartLocaleComms, error) {
	opts = append(opts, WithDistribType(Block))
	return CreateDistribution(flat, shape, opts...)
}

// PanicOnInternal applies Config.StrictInternal to an error returned from
// the construction pipeline: if err is an mderr.Internal error and strict
// mode is on, it panics with the error instead of returning it (spec.md §7
// kind-4 "aborts with diagnostic" behaviour). Exported so cmd/mpidistctl can
// apply the same policy to errors it surfaces itself.
func PanicOnInternal(err error, strict bool) error {
	if err == nil || !strict {
		return err
	}
	if mderr.IsKind(err, mderr.Internal) {
		panic(errors.Wrap(err, "mpidist: internal error (strict_internal enabled)"))
	}
	return err
}
