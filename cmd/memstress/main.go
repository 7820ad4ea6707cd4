// memstress exercises the memkit containers the way a host task system
// would: many workers appending to a pre-sized list through parallel
// writers, single-writer map churn, and deferred disposal gated on
// in-flight work. It finishes with a leak-tracking report.
package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/container"
	"github.com/joshuapare/memkit/internal/config"
	"github.com/joshuapare/memkit/sched"
)

var (
	items   int64
	workers int
	rounds  int
	usePage bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "memstress",
	Short: "Stress unmanaged containers with parallel appends and map churn",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().Int64Var(&items, "items", 1_000_000, "elements appended per round")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = configured default)")
	rootCmd.Flags().IntVar(&rounds, "rounds", 3, "stress rounds")
	rootCmd.Flags().BoolVar(&usePage, "page", false, "use the page allocator instead of the heap")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose progress output")
}

func run() error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !verbose {
		log = log.Level(zerolog.WarnLevel)
	}

	config.SetLeak(config.LeakOn)
	if workers <= 0 {
		workers = config.Workers()
	}
	h := alloc.Heap
	if usePage {
		h = alloc.Page
	}

	ex := sched.NewExecutor(workers)
	defer ex.Close()

	for round := 0; round < rounds; round++ {
		start := time.Now()
		if err := stressRound(h, ex, log); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		log.Info().Int("round", round).Dur("took", time.Since(start)).Msg("round done")
	}

	if n := alloc.CheckLeaks(); n != 0 {
		return fmt.Errorf("leak check: %d live allocations", n)
	}
	fmt.Println("ok: no leaks")
	return nil
}

func stressRound(h alloc.Handle, ex *sched.Executor, log zerolog.Logger) error {
	list, err := container.NewList[int64](items, h)
	if err != nil {
		return err
	}

	// Phase 1: every worker appends through the parallel writer.
	w := list.ParallelWriter()
	per := items / int64(workers)
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for id := 0; id < workers; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := int64(0); i < per; i++ {
				if err := w.AddNoResize(id*per + i); err != nil {
					errs <- err
					return
				}
			}
		}(int64(id))
	}
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		list.Dispose()
		return err
	}
	if got := list.Len(); got != per*int64(workers) {
		list.Dispose()
		return fmt.Errorf("length %d after %d reservations", got, per*int64(workers))
	}

	// Phase 2: map churn against the appended data.
	m, err := container.NewMap[int64, int64](1024, h)
	if err != nil {
		list.Dispose()
		return err
	}
	for i := int64(0); i < list.Len(); i += 7 {
		if err := m.Set(list.Get(i), i); err != nil {
			list.Dispose()
			m.Dispose()
			return err
		}
	}
	removed := 0
	for i := int64(0); i < list.Len(); i += 14 {
		if m.Remove(list.Get(i)) {
			removed++
		}
	}
	log.Debug().Int64("count", m.Count()).Int("removed", removed).Msg("map churn")

	// Phase 3: deferred teardown behind simulated in-flight readers. The
	// read view snapshots the storage before disposal is requested.
	r := list.ParallelReader()
	reader := ex.Run(func() {
		_ = r.Contains(42)
	})
	freedList := list.DisposeAfter(reader, ex)
	freedMap := m.DisposeAfter(reader, ex)
	ex.Combine(freedList, freedMap).Wait()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
