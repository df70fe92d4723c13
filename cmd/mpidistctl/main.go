// Command mpidistctl builds a distribution and halo-exchange plan from
// flags and prints it. It simulates the requested number of ranks
// in-process with comm.Local -- there is no real MPI binding here -- so it
// doubles as a debugging surface and a live demo of the core packages.
//
// Usage:
//
//	mpidistctl -shape 12,12 -ranks 4 -halo 2
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gomlx/mpidist"
	"github.com/gomlx/mpidist/comm"
	"github.com/gomlx/mpidist/haloplan"
	"github.com/gomlx/mpidist/internal/obs"
	"github.com/gomlx/mpidist/types/locale"
	"github.com/rs/zerolog"
)

var (
	shapeFlag      = flag.String("shape", "", "Comma-separated global array shape, e.g. 12,12 (required)")
	ranksFlag      = flag.Int("ranks", 1, "Number of simulated flat ranks")
	ranksPerLocale = flag.Int("ranks-per-locale", 0, "Ranks per locale (<= 0: a single locale)")
	dimsFlag       = flag.String("dims", "", "Comma-separated grid shape, zero entries resolved automatically (default: all zero)")
	haloFlag       = flag.Int("halo", 0, "Symmetric halo width applied to every axis")
	distribFlag    = flag.String("distrib", "block", "Partitioning strategy: block or slab")
	slabAxisFlag   = flag.Int("slab-axis", 0, "Axis carrying the full partition under -distrib=slab")
	strictFlag     = flag.Bool("strict-internal", true, "Panic (instead of returning) on an internal-consistency error")
	verboseFlag    = flag.Bool("v", false, "Debug-level logging")
)

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *verboseFlag {
		level = zerolog.DebugLevel
	}
	log := obs.New(level)

	if *shapeFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: -shape is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	shape, err := parseInts(*shapeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -shape: %v\n", err)
		os.Exit(1)
	}
	var dims []int
	if *dimsFlag != "" {
		dims, err = parseInts(*dimsFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -dims: %v\n", err)
			os.Exit(1)
		}
	}
	distribType := mpidist.Block
	if *distribFlag == "slab" {
		distribType = mpidist.Slab
	} else if *distribFlag != "block" {
		fmt.Fprintf(os.Stderr, "Error: -distrib must be 'block' or 'slab', got %q\n", *distribFlag)
		os.Exit(1)
	}

	log.Info().Ints("shape", shape).Int("ranks", *ranksFlag).Msg("building distribution")

	comms, err := comm.NewLocal(*ranksFlag, *ranksPerLocale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := []mpidist.Option{
		mpidist.WithHalo(*haloFlag),
		mpidist.WithDistribType(distribType),
		mpidist.WithSlabAxis(*slabAxisFlag),
		mpidist.WithStrictInternal(*strictFlag),
	}
	if dims != nil {
		opts = append(opts, mpidist.WithDims(dims))
	}

	err = comm.RunSPMD(comms, func(c comm.Communicator) error {
		dist, clc, err := mpidist.CreateDistribution(c, shape, opts...)
		if err != nil {
			return err
		}
		if !clc.IsLeader() {
			return nil
		}
		interLocaleRank := c.Rank()
		if clc.InterLocaleRankToFlatRank != nil {
			for r, flatRank := range clc.InterLocaleRankToFlatRank {
				if flatRank == c.Rank() {
					interLocaleRank = r
					break
				}
			}
		}
		ext, err := dist.LocaleExtent(interLocaleRank)
		if err != nil {
			return err
		}
		plan, err := haloplan.Plan(dist, interLocaleRank, haloplan.Options{})
		if err != nil {
			return err
		}
		printLocale(c.Rank(), interLocaleRank, ext, plan)
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printLocale(flatRank, interLocaleRank int, ext *locale.CartLocaleExtent, plan map[haloplan.AxisSide][]haloplan.UpdateRecord) {
	fmt.Printf("rank %d (inter-locale %d) coord=%v interior=%v..%v\n",
		flatRank, interLocaleRank, ext.CartCoord, ext.StartN(), ext.StopN())
	for axisSide, recs := range plan {
		for _, rec := range recs {
			fmt.Printf("  halo axis=%d side=%v <- rank %d overlap=%v\n",
				axisSide.Axis, axisSide.Side, rec.Src.Rank, rec.Overlap.ToSlice())
		}
	}
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", p)
		}
		out[i] = v
	}
	return out, nil
}
