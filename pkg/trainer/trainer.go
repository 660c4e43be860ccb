// Package trainer 在模拟时钟上跑无头对局，进化神经网络玩家
package trainer

import (
	"context"
	"math/rand"
	"runtime"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bombarena/pkg/ai"
	"bombarena/pkg/ai/neural"
	"bombarena/pkg/core"
)

const (
	DefaultPopulation      = 16
	DefaultTickStep        = 50 * time.Millisecond
	DefaultMaxTicks        = 6000
	DefaultStagnationLimit = 400
)

// Options 训练参数
type Options struct {
	Population int // 向上取整到 4 的倍数
	Structure  []int
	Match      core.Config
	TickStep   time.Duration // 每个 tick 推进的模拟时间
	MaxTicks   int           // 单局上限
	EliteRatio float64       // 直接保留到下一代的比例
	Workers    int
	Seed       int64
	Logger     logrus.FieldLogger
}

func (o Options) normalize() Options {
	if o.Population <= 0 {
		o.Population = DefaultPopulation
	}
	o.Population = (o.Population + core.MaxPlayers - 1) / core.MaxPlayers * core.MaxPlayers
	if len(o.Structure) == 0 {
		o.Structure = ai.DefaultStructure
	}
	if o.TickStep <= 0 {
		o.TickStep = DefaultTickStep
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	if o.Match.StagnationLimit <= 0 {
		o.Match.StagnationLimit = DefaultStagnationLimit
	}
	if o.EliteRatio <= 0 || o.EliteRatio >= 1 {
		o.EliteRatio = 0.25
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// GenerationStats 一代的统计
type GenerationStats struct {
	Generation int
	Best       float64
	Mean       float64
	Matches    int
	Ticks      uint64
}

type Trainer struct {
	opts       Options
	rng        *rand.Rand
	population []Genome
	generation int
	best       Genome
	log        logrus.FieldLogger
}

func New(opts Options) *Trainer {
	opts = opts.normalize()
	t := &Trainer{
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
		log:  opts.Logger,
	}
	t.population = make([]Genome, opts.Population)
	for i := range t.population {
		t.population[i] = Genome{Net: neural.NewNetwork(opts.Structure, t.rng)}
	}
	return t
}

// Seed 用已有个体替换种群的第一个成员
func (t *Trainer) Seed(g Genome) {
	if g.Net != nil && slices.Equal(g.Net.Structure, t.opts.Structure) {
		t.population[0] = Genome{Net: g.Net.Clone()}
	}
}

// Best 迄今为止适应度最高的个体
func (t *Trainer) Best() Genome {
	return t.best
}

// Population 当前种群（只读）
func (t *Trainer) Population() []Genome {
	return t.population
}

type matchJob struct {
	members []int // 种群下标，按槽位排列
	seed    int64
}

type matchResult struct {
	members []int
	scores  []int
	ticks   uint64
}

// RunGeneration 评估当前种群并繁殖下一代
func (t *Trainer) RunGeneration(ctx context.Context) (GenerationStats, error) {
	order := t.rng.Perm(len(t.population))
	jobs := make([]matchJob, 0, len(order)/core.MaxPlayers)
	for i := 0; i+core.MaxPlayers <= len(order); i += core.MaxPlayers {
		jobs = append(jobs, matchJob{members: order[i : i+core.MaxPlayers], seed: t.rng.Int63()})
	}

	results, err := t.evaluate(ctx, jobs)
	if err != nil {
		return GenerationStats{}, err
	}

	for i := range t.population {
		t.population[i].Fitness = 0
		t.population[i].Generation = t.generation
	}
	stats := GenerationStats{Generation: t.generation, Matches: len(results)}
	for _, r := range results {
		stats.Ticks += r.ticks
		for slot, idx := range r.members {
			t.population[idx].Fitness += float64(r.scores[slot])
		}
	}

	sort.SliceStable(t.population, func(i, j int) bool {
		return t.population[i].Fitness > t.population[j].Fitness
	})
	sum := 0.0
	for _, g := range t.population {
		sum += g.Fitness
	}
	stats.Best = t.population[0].Fitness
	stats.Mean = sum / float64(len(t.population))
	if t.best.Net == nil || stats.Best > t.best.Fitness {
		t.best = Genome{Net: t.population[0].Net.Clone(), Fitness: stats.Best, Generation: t.generation}
	}

	t.log.WithFields(logrus.Fields{
		"generation": stats.Generation,
		"best":       stats.Best,
		"mean":       stats.Mean,
		"ticks":      stats.Ticks,
	}).Info("一代训练完成")

	t.breed()
	t.generation++
	return stats, nil
}

// breed 保留精英，其余由精英交叉再变异产生
func (t *Trainer) breed() {
	elite := int(float64(len(t.population)) * t.opts.EliteRatio)
	if elite < 1 {
		elite = 1
	}
	next := make([]Genome, len(t.population))
	for i := 0; i < elite; i++ {
		next[i] = Genome{Net: t.population[i].Net.Clone()}
	}
	for i := elite; i < len(next); i++ {
		a := t.population[t.rng.Intn(elite)].Net
		b := t.population[t.rng.Intn(elite)].Net
		child := a.Cross(b, t.rng)
		child.Mutate(t.rng)
		next[i] = Genome{Net: child}
	}
	t.population = next
}

// evaluate 用 Workers 个协程并行跑对局；每局有独立随机源，结果与调度无关
func (t *Trainer) evaluate(ctx context.Context, jobs []matchJob) ([]matchResult, error) {
	results := make([]matchResult, len(jobs))
	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < t.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = t.play(jobs[i])
			}
		}()
	}

	var err error
feed:
	for i := range jobs {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()
	return results, err
}

// play 跑一局无头对局，直到终局或 MaxTicks
func (t *Trainer) play(job matchJob) matchResult {
	quiet := logrus.New()
	quiet.SetLevel(logrus.WarnLevel)
	if l, ok := t.log.(*logrus.Logger); ok {
		quiet.SetOutput(l.Out)
	}

	g := core.NewGame(t.opts.Match,
		core.WithRand(rand.New(rand.NewSource(job.seed))),
		core.WithLogger(quiet),
	)
	agents := make([]*ai.NeuralAgent, len(job.members))
	for slot, member := range job.members {
		g.Link(slot)
		agents[slot] = ai.NewNeuralAgent(slot, t.population[member].Net)
	}

	now := time.Unix(0, 0)
	g.Start(now)
	for i := 0; i < t.opts.MaxTicks && !g.IsOver(); i++ {
		for _, a := range agents {
			if act, ok := a.Decide(g); ok {
				g.EnqueueAction(a.Slot(), act)
			}
		}
		now = now.Add(t.opts.TickStep)
		g.Tick(now)
		g.Drain()
	}
	return matchResult{members: job.members, scores: g.Scores(), ticks: g.Ticks()}
}

// Run 训练 generations 代，返回最好的个体
func (t *Trainer) Run(ctx context.Context, generations int) (Genome, error) {
	for i := 0; i < generations; i++ {
		if _, err := t.RunGeneration(ctx); err != nil {
			return t.best, err
		}
	}
	return t.best, nil
}
