package arrange

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/abhipalit3/configur-mep/internal/monitoring"
)

// randomGene seeds one item onto a random tier face at a random offset.
func (o *Optimizer) randomGene(i int) Gene {
	gene := Gene{Tier: 1 + o.rng.Intn(len(o.spaces)), Edge: EdgeBottom}
	if o.rng.Float64() < 0.5 {
		gene.Edge = EdgeTop
	}
	if room := o.width - o.rects[i].w; room > 0 {
		gene.Offset = o.rng.Float64() * room
	}
	return gene
}

func (o *Optimizer) newGenome() *genome {
	g := &genome{genes: make([]Gene, len(o.rects))}
	for i := range g.genes {
		g.genes[i] = o.randomGene(i)
	}
	return g
}

// tournament returns a clone of the fittest of size random candidates.
func (o *Optimizer) tournament(pop []*genome, size int) *genome {
	best := pop[o.rng.Intn(len(pop))]
	for i := 1; i < size; i++ {
		if c := pop[o.rng.Intn(len(pop))]; c.fitness > best.fitness {
			best = c
		}
	}
	return best.clone()
}

// crossover mixes two parents at a single gene boundary. When the
// crossover rate misses, the children are plain copies.
func (o *Optimizer) crossover(p1, p2 *genome) (*genome, *genome) {
	n := len(p1.genes)
	if n < 2 || o.rng.Float64() > o.cfg.CrossoverRate {
		return p1.clone(), p2.clone()
	}
	cut := 1 + o.rng.Intn(n-1)
	c1 := &genome{genes: make([]Gene, n)}
	c2 := &genome{genes: make([]Gene, n)}
	copy(c1.genes, p1.genes[:cut])
	copy(c1.genes[cut:], p2.genes[cut:])
	copy(c2.genes, p2.genes[:cut])
	copy(c2.genes[cut:], p1.genes[cut:])
	return c1, c2
}

// mutate applies one of five strategies in place: move an item to a
// different tier, flip its edge, nudge its Z offset, swap two items, or
// reseed one gene entirely.
func (o *Optimizer) mutate(g *genome) {
	i := o.rng.Intn(len(g.genes))
	switch o.rng.Intn(5) {
	case 0:
		g.genes[i].Tier = 1 + o.rng.Intn(len(o.spaces))
	case 1:
		if g.genes[i].Edge == EdgeTop {
			g.genes[i].Edge = EdgeBottom
		} else {
			g.genes[i].Edge = EdgeTop
		}
	case 2:
		room := o.width - o.rects[i].w
		if room <= 0 {
			g.genes[i].Offset = 0
			return
		}
		delta := (o.rng.Float64()*2 - 1) * 0.3 * o.width
		g.genes[i].Offset = clamp(g.genes[i].Offset+delta, 0, room)
	case 3:
		j := o.rng.Intn(len(g.genes))
		g.genes[i], g.genes[j] = g.genes[j], g.genes[i]
	case 4:
		g.genes[i] = o.randomGene(i)
	}
}

// Run evolves the population and returns the best arrangement found.
// With the same Config (including a nonzero Seed) and the same inputs
// the result is reproducible.
func (o *Optimizer) Run() *Result {
	pop := make([]*genome, o.cfg.PopulationSize)
	for i := range pop {
		pop[i] = o.newGenome()
		o.evaluate(pop[i])
	}

	var best *genome
	history := make([]float64, 0, o.cfg.Generations)
	stagnation := 0

	byFitness := func(p []*genome) func(i, j int) bool {
		return func(i, j int) bool { return p[i].fitness > p[j].fitness }
	}

	for gen := 0; gen < o.cfg.Generations; gen++ {
		sort.SliceStable(pop, byFitness(pop))

		if best == nil || pop[0].fitness > best.fitness {
			best = pop[0].clone()
			stagnation = 0
		} else {
			stagnation++
		}
		history = append(history, best.fitness)

		if gen%50 == 0 {
			monitoring.Debugf("[arrange] generation %d: best fitness %.2f, stagnation %d", gen, best.fitness, stagnation)
		}

		rate := o.cfg.MutationRate
		if stagnation > 15 {
			rate = math.Min(0.8, rate*(1+float64(stagnation)/20))
		}

		next := make([]*genome, 0, o.cfg.PopulationSize)
		elites := int(float64(o.cfg.PopulationSize) * o.cfg.ElitismRate)
		for i := 0; i < elites && i < len(pop); i++ {
			next = append(next, pop[i].clone())
		}

		fresh := o.cfg.PopulationSize / 10
		if fresh < 1 {
			fresh = 1
		}
		for i := 0; i < fresh && len(next) < o.cfg.PopulationSize; i++ {
			g := o.newGenome()
			o.evaluate(g)
			next = append(next, g)
		}

		for len(next) < o.cfg.PopulationSize {
			var p1, p2 *genome
			if o.rng.Float64() < 0.25 {
				p1 = pop[o.rng.Intn(len(pop))].clone()
				p2 = pop[o.rng.Intn(len(pop))].clone()
			} else {
				size := 2 + o.rng.Intn(4)
				p1 = o.tournament(pop, size)
				p2 = o.tournament(pop, size)
			}

			c1, c2 := o.crossover(p1, p2)
			if o.rng.Float64() < rate {
				o.mutate(c1)
			}
			if o.rng.Float64() < rate {
				o.mutate(c2)
			}
			if stagnation > 25 && o.rng.Float64() < 0.3 {
				for n := 1 + o.rng.Intn(2); n > 0; n-- {
					o.mutate(c1)
					o.mutate(c2)
				}
			}

			o.evaluate(c1)
			o.evaluate(c2)
			next = append(next, c1)
			if len(next) < o.cfg.PopulationSize {
				next = append(next, c2)
			}
		}
		pop = next
	}

	sort.SliceStable(pop, byFitness(pop))
	if best == nil || pop[0].fitness > best.fitness {
		best = pop[0].clone()
	}

	return o.resultOf(best, pop, history)
}

func (o *Optimizer) resultOf(best *genome, pop []*genome, history []float64) *Result {
	d := o.evaluate(best)

	res := &Result{
		Fitness: best.fitness,
		History: history,
		Tiers:   o.tierReports(d),
		Seed:    o.cfg.Seed,
	}
	for i, r := range o.rects {
		if !d.placed[i] {
			res.Unplaced = append(res.Unplaced, r.baseID)
			continue
		}
		gene := best.genes[i]
		edge := EdgeBottom
		if gene.Edge == EdgeTop {
			edge = EdgeTop
		}
		offset := clamp(gene.Offset, 0, o.width-r.w)
		res.Placements = append(res.Placements, o.placementFor(i, gene.Tier, edge, offset))
	}

	fits := make([]float64, len(pop))
	for i, g := range pop {
		fits[i] = g.fitness
	}
	sort.Float64s(fits)
	res.Stats = Stats{Mean: stat.Mean(fits, nil), Median: stat.Quantile(0.5, stat.Empirical, fits, nil)}
	if len(fits) > 1 {
		res.Stats.StdDev = stat.StdDev(fits, nil)
	}
	return res
}
