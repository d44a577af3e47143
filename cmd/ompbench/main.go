package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/gops/agent"
	"github.com/zeromicro/go-zero/core/logx"

	"go-parallel-notes/config"
	"go-parallel-notes/experiment"
)

var (
	configFile = flag.String("f", "etc/ompbench.yaml", "the config file")
	runList    = flag.String("run", "", "comma separated experiments to run, all if empty")
	listOnly   = flag.Bool("list", false, "list the experiments and exit")
)

func main() {
	flag.Parse()

	if *listOnly {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, e := range experiment.All() {
			fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Title)
		}
		w.Flush()
		return
	}

	if err := run(); err != nil {
		logx.Error(err)
		logx.Close()
		os.Exit(1)
	}
}

func run() error {
	c, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load %s: %w", *configFile, err)
	}
	logx.MustSetup(c.Log)
	defer logx.Close()

	exps, err := experiment.Lookup(strings.Split(*runList, ",")...)
	if err != nil {
		return err
	}
	if len(exps) == 0 {
		exps = experiment.All()
	}

	if c.Diagnostics.Gops {
		if err := agent.Listen(agent.Options{Addr: c.Diagnostics.GopsAddr}); err != nil {
			logx.Errorf("gops agent: %v", err)
		} else {
			defer agent.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := newSink(ctx, c.Output, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logx.Errorf("close sinks: %v", err)
		}
	}()

	env := experiment.NewEnv(c, sink)
	logx.Infow("ompbench started", logx.Field("runId", env.RunID), logx.Field("experiments", len(exps)))
	return experiment.RunAll(ctx, env, exps)
}
