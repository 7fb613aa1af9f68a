package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	ripple "github.com/ripplefn/ripple"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	cpuProfileKey = "cpuprofile"
	itersKey      = "iters"
	repeatsKey    = "repeats"
	propagateKey  = "propagate"
	layeredKey    = "layered"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Benchmark ripple propagation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to this file",
			},
			&cli.IntFlag{
				Name:  itersKey,
				Usage: "Writes per propagate grid cell",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  repeatsKey,
				Usage: "Repeats per layered config, best run wins",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  propagateKey,
				Usage: "Run the width x height propagate grid",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  layeredKey,
				Usage: "Run the layered graph suite",
				Value: true,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(cpuProfileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()
	log.Print("Starting ripple benchmark, please wait...")
	defer func() {
		log.Printf("Finished ripple benchmark in %v", time.Since(start))
	}()

	if cmd.Bool(propagateKey) {
		benchmarkPropagate(int(cmd.Int(itersKey)))
	}
	if cmd.Bool(layeredKey) {
		benchmarkLayered(int(cmd.Int(repeatsKey)))
	}
	return nil
}

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100, 1_000}
)

// benchmarkPropagate builds w independent chains of h computeds off a single
// source, each chain terminated by an effect, then times repeated writes to
// the source.
func benchmarkPropagate(iters int) {
	tbl := table.NewWriter()
	tbl.SetTitle("Ripple Signals")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := ripple.NewRuntime(ripple.WithOnFault(func(err error) {
				log.Panic(err)
			}))
			src := ripple.NewSignal(rt, 1)
			for i := 0; i < w; i++ {
				last := ripple.NewComputed(rt, func() int {
					return src.Read() + 1
				})
				for j := 1; j < h; j++ {
					prev := last
					last = ripple.NewComputed(rt, func() int {
						return prev.Read() + 1
					})
				}

				ripple.NewEffect(rt, func() error {
					last.Read()
					return nil
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Write(src.Peek() + 1)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
}

// The layered suite stresses wide, deep and dynamically wired graphs that
// resemble real component trees rather than straight chains.

type layeredTestConfig struct {
	name           string  // friendly name for the test, should be unique
	width          int     // width of dependency graph to construct
	totalLayers    int     // depth of dependency graph to construct
	staticFraction float64 // fraction of nodes with a fixed source set
	nSources       int     // number of sources feeding each node
	readFraction   float64 // fraction of leaves read back per iteration
	iterations     int
}

func benchmarkLayered(repeats int) {
	cfgs := []layeredTestConfig{
		{
			name:           "simple component",
			width:          10,
			totalLayers:    5,
			staticFraction: 1,
			nSources:       2,
			readFraction:   0.2,
			iterations:     600000,
		},
		{
			name:           "dynamic component",
			width:          10,
			totalLayers:    10,
			staticFraction: 0.75,
			nSources:       6,
			readFraction:   0.2,
			iterations:     15000,
		},
		{
			name:           "large web app",
			width:          1000,
			totalLayers:    12,
			staticFraction: 0.95,
			nSources:       4,
			readFraction:   1,
			iterations:     7000,
		},
		{
			name:           "wide dense",
			width:          1000,
			totalLayers:    5,
			staticFraction: 1,
			nSources:       25,
			readFraction:   1,
			iterations:     3000,
		},
		{
			name:           "deep",
			width:          5,
			totalLayers:    500,
			staticFraction: 1,
			nSources:       3,
			readFraction:   1,
			iterations:     500,
		},
		{
			name:           "very dynamic",
			width:          100,
			totalLayers:    15,
			staticFraction: 0.5,
			nSources:       6,
			readFraction:   1,
			iterations:     2000,
		},
	}

	type result struct {
		sum      int
		count    int64
		duration time.Duration
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{
		"framework", "size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "updateRate", "title",
	})

	for _, cfg := range cfgs {
		log.Printf("Running '%s' config", cfg.name)
		counter := new(int64)
		rt := ripple.NewRuntime()
		graph := makeLayeredGraph(rt, counter, cfg)

		runOnce := func() int {
			return runLayeredGraph(rt, graph, cfg.iterations, cfg.readFraction)
		}
		// warm up
		runOnce()

		best := result{duration: time.Hour}
		for i := 0; i < repeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d", cfg.name, i+1, repeats)
			*counter = 0
			start := time.Now()
			sum := runOnce()
			duration := time.Since(start)

			if duration < best.duration {
				best = result{sum: sum, count: *counter, duration: duration}
			}
		}

		makeTitle := func() string {
			sb := strings.Builder{}
			sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
			if cfg.staticFraction < 1 {
				sb.WriteString(" dynamic")
			}
			if cfg.readFraction < 1 {
				sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
			}
			return sb.String()
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))

		tbl.Append([]string{
			"ripple",
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(int64(cfg.iterations)),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(int64(updateRate)),
			makeTitle(),
		})
	}
	tbl.Render()
}

type layeredGraph struct {
	sources []*ripple.Signal[int]
	layers  [][]*ripple.Computed[int]
}

func makeLayeredGraph(rt *ripple.Runtime, counter *int64, cfg layeredTestConfig) *layeredGraph {
	sources := make([]*ripple.Signal[int], cfg.width)
	for i := range sources {
		sources[i] = ripple.NewSignal(rt, i)
	}

	random := rand.New(rand.NewSource(0))
	readSource := func(row []*ripple.Computed[int], i int) int {
		if row == nil {
			return sources[i].Read()
		}
		return row[i].Read()
	}

	layers := make([][]*ripple.Computed[int], cfg.totalLayers-1)
	var prevRow []*ripple.Computed[int]
	for l := range layers {
		row := make([]*ripple.Computed[int], cfg.width)
		for myDex := range row {
			prev := prevRow
			mySources := make([]int, 0, cfg.nSources)
			for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
				mySources = append(mySources, (myDex+sourceDex)%cfg.width)
			}

			static := random.Float64() < cfg.staticFraction
			if static {
				// static node, always reads every source
				row[myDex] = ripple.NewComputed(rt, func() int {
					*counter++
					sum := 0
					for _, src := range mySources {
						sum += readSource(prev, src)
					}
					return sum
				})
			} else {
				// dynamic node, drops one source depending on the first
				first := mySources[0]
				tail := mySources[1:]
				row[myDex] = ripple.NewComputed(rt, func() int {
					*counter++
					sum := readSource(prev, first)
					shouldDrop := sum&0x1 > 0
					dropDex := sum % len(tail)

					for i, src := range tail {
						if shouldDrop && i == dropDex {
							continue
						}
						sum += readSource(prev, src)
					}
					return sum
				})
			}
		}
		layers[l] = row
		prevRow = row
	}

	return &layeredGraph{sources: sources, layers: layers}
}

// runLayeredGraph writes one source and reads a sampled set of leaves per
// iteration, returning the final leaf sum.
func runLayeredGraph(rt *ripple.Runtime, graph *layeredGraph, iterations int, readFraction float64) int {
	random := rand.New(rand.NewSource(0))
	leaves := graph.layers[len(graph.layers)-1]
	skipCount := int(math.Round(float64(len(leaves)) * (1 - readFraction)))
	readLeaves := removeElems(leaves, skipCount, random)

	for i := 0; i < iterations; i++ {
		sourceDex := i % len(graph.sources)
		graph.sources[sourceDex].Write(i + sourceDex)

		for _, leaf := range readLeaves {
			leaf.Read()
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		sum += leaf.Read()
	}
	return sum
}

func removeElems[T any](src []T, rmCount int, random *rand.Rand) []T {
	copyWithRemovals := make([]T, len(src))
	copy(copyWithRemovals, src)
	for i := 0; i < rmCount; i++ {
		rmDex := random.Intn(len(copyWithRemovals))
		copyWithRemovals[rmDex] = copyWithRemovals[len(copyWithRemovals)-1]
		copyWithRemovals = copyWithRemovals[:len(copyWithRemovals)-1]
	}
	return copyWithRemovals
}
