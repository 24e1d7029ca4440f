// Command refview demonstrates and inspects reference-counted handles.
//
// Without flags it runs a scripted walk through intrusive, shared and weak
// handles. With -i it opens an interactive inspector where handles can be
// created, cloned, dropped, observed and upgraded by hand while the
// registry's entries are shown live.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/refptr/intrusive"
	"github.com/wippyai/refptr/metrics"
	"github.com/wippyai/refptr/modcache"
	"github.com/wippyai/refptr/registry"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to registry config (YAML)")
		wasmFile    = flag.String("wasm", "", "Compile a module through the shared module cache")
		pinned      = flag.Int("pinned", 0, "Modules the cache keeps compiled while unused")
		metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address after the demo")
		verbose     = flag.Bool("v", false, "Log handle lifecycle to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg := registry.DefaultConfig()
	if *configFile != "" {
		loaded, err := registry.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	reg := registry.New(cfg.Options(log)...)

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		s := newSession(reg)
		err := runInteractive(s)
		if cerr := s.close(); cerr != nil {
			log.Warn("registry closed with live entries", zap.Error(cerr))
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(reg, *wasmFile, *pinned, *metricsAddr, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(reg *registry.Registry, wasmFile string, pinned int, metricsAddr string, log *zap.Logger) error {
	ctx := context.Background()

	if err := runDemo(os.Stdout, reg); err != nil {
		return err
	}

	if wasmFile != "" {
		if err := runModules(ctx, os.Stdout, reg, wasmFile, pinned); err != nil {
			return err
		}
	}

	if metricsAddr != "" {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(metrics.NewCollector(reg))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		log.Info("serving metrics", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			return fmt.Errorf("serve metrics: %w", err)
		}
	}

	return reg.Close()
}

// newLogger returns a development logger when verbose is set and a no-op
// logger otherwise, and installs it as the package logger everywhere.
func newLogger(verbose bool) (*zap.Logger, error) {
	log := zap.NewNop()
	if verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}
	intrusive.SetLogger(log.Named("intrusive"))
	registry.SetLogger(log.Named("registry"))
	modcache.SetLogger(log.Named("modcache"))
	return log, nil
}
