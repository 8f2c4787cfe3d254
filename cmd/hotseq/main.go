// Command hotseq runs a live demo of the hotseq transports: a counter is
// produced in the background and printed by one or more consumers.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/baxromumarov/hotseq"
	"github.com/baxromumarov/hotseq/hotmetrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "hotseq",
		Short:         "Produce a counter in the background and consume it live",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, cmd.Flags())
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg, log, cmd.OutOrStdout())
		},
	}
	bindFlags(cmd.Flags())
	return cmd
}

// counter pushes 0..n-1, sleeping interval before each value.
func counter(n int, interval time.Duration) hotseq.Source[int] {
	return func(yield func(int) hotseq.Signal) {
		for i := range n {
			if interval > 0 {
				time.Sleep(interval)
			}
			if yield(i) == hotseq.Stop {
				return
			}
		}
	}
}

func run(ctx context.Context, cfg Config, log *zap.Logger, out io.Writer) (err error) {
	sched, closeSched := newScheduler(ctx, cfg, log)
	defer func() { err = multierr.Append(err, closeSched()) }()

	reg := prometheus.NewRegistry()
	if p, ok := sched.(*hotseq.PoolScheduler); ok {
		reg.MustRegister(hotmetrics.NewPoolCollector("demo", p))
	}
	if cfg.Metrics {
		defer func() { err = multierr.Append(err, printMetrics(reg, out)) }()
	}

	src := counter(cfg.Count, cfg.Interval)
	opts := []hotseq.Option{hotseq.WithLogger(log), hotseq.WithName(cfg.Mode)}
	if cfg.Lazy {
		opts = append(opts, hotseq.WithLazyStart())
	}

	var mu sync.Mutex
	printer := func(who string) func(int) {
		return func(v int) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "%s: %d\n", who, v)
		}
	}

	log.Info("starting demo",
		zap.String("mode", cfg.Mode),
		zap.String("backend", cfg.Backend),
		zap.Int("count", cfg.Count),
	)

	switch cfg.Mode {
	case "async":
		seq := hotseq.ToAsync(sched, src, opts...)
		if err := seq.Consume(ctx, printer("async")); err != nil {
			return err
		}
		return seq.Join(ctx)

	case "channel":
		return hotseq.ToChannel(sched, src, opts...).Consume(ctx, printer("channel"))

	case "parallel":
		p := printer("parallel")
		return hotseq.ForEachParallel(ctx, sched, src, func(v int) error {
			p(v)
			return nil
		})

	case "shared":
		sh, err := hotseq.ToShared(sched, cfg.Capacity, src, opts...)
		if err != nil {
			return err
		}
		reg.MustRegister(hotmetrics.NewSharedCollector(cfg.Mode, sh))
		readers := make([]*hotseq.Task, 0, cfg.Readers)
		for i := range cfg.Readers {
			readers = append(readers, sh.Subscribe(ctx, printer(fmt.Sprintf("reader-%d", i))))
		}
		return waitAll(ctx, append(readers, sh.Start()))

	case "state":
		st, err := hotseq.ToState(sched, src, opts...)
		if err != nil {
			return err
		}
		readers := make([]*hotseq.Task, 0, cfg.Readers)
		for i := range cfg.Readers {
			readers = append(readers, st.Subscribe(ctx, printer(fmt.Sprintf("reader-%d", i))))
		}
		return waitAll(ctx, append(readers, st.Start()))
	}
	return fmt.Errorf("unknown mode %q", cfg.Mode)
}

func waitAll(ctx context.Context, tasks []*hotseq.Task) error {
	return hotseq.AllOf(tasks...).Wait(ctx)
}

func printMetrics(reg *prometheus.Registry, out io.Writer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			}
			fmt.Fprintf(out, "%s %g\n", mf.GetName(), value)
		}
	}
	return nil
}
