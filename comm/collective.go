package comm

import "sync"

// collective is a reusable SPMD rendezvous: every one of size participants
// calls Enter with its own input; once all size inputs have arrived, compute
// runs exactly once (on the goroutine of the last arriver) and its
// per-participant results are handed back to each caller. The barrier resets
// immediately afterwards, so the same collective can be used again for the
// next operation in program order -- which is exactly how spec.md §5
// describes the core's collectives: "every rank in the stated communicator
// must enter in the same order".
//
// There is no third-party rendezvous-barrier library in the example pack, so
// this is built directly on sync.Mutex/sync.Cond; the goroutine-per-rank
// harness that drives participants into these calls uses
// golang.org/x/sync/errgroup (see RunSPMD).
type collective struct {
	mu         sync.Mutex
	cond       *sync.Cond
	size       int
	arrived    int
	inputs     []any
	results    []any
	generation int
}

func newCollective(size int) *collective {
	c := &collective{size: size, inputs: make([]any, size)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Enter blocks until all `size` participants have called Enter for the
// current round, then returns results[rank] where results is whatever
// compute(inputs) returned -- inputs[i] is the value rank i passed in.
// compute runs exactly once per round.
func (c *collective) Enter(rank int, input any, compute func(inputs []any) []any) any {
	c.mu.Lock()
	myGeneration := c.generation
	c.inputs[rank] = input
	c.arrived++
	if c.arrived == c.size {
		results := compute(c.inputs)
		c.results = results
		c.inputs = make([]any, c.size)
		c.arrived = 0
		c.generation++
		c.cond.Broadcast()
		c.mu.Unlock()
		return results[rank]
	}
	for c.generation == myGeneration {
		c.cond.Wait()
	}
	result := c.results[rank]
	c.mu.Unlock()
	return result
}
