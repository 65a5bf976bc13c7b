package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opsaudit/runreport/internal/config"
	"github.com/opsaudit/runreport/internal/facts"
	"github.com/opsaudit/runreport/internal/render"
	"github.com/opsaudit/runreport/internal/report"
	"github.com/opsaudit/runreport/internal/timeline"
	"github.com/opsaudit/runreport/internal/trace"
	"github.com/opsaudit/runreport/internal/watch"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to optional YAML config")
	watchMode := flag.Bool("watch", false, "regenerate the report when inputs change")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("runreport %s\n", version)
		return
	}

	args := flag.Args()
	if len(args) < 3 {
		printUsage()
		os.Exit(2)
	}
	tracePath, factsPath, reportDir := args[0], args[1], args[2]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	gen := func() error { return generate(cfg, tracePath, factsPath, reportDir) }

	if err := gen(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *watchMode {
		paths := []string{tracePath}
		if factsPath != "" && factsPath != facts.AbsentSentinel {
			paths = append(paths, factsPath)
		}
		w := watch.New(paths, time.Duration(cfg.Watcher.DebounceMs)*time.Millisecond, gen)
		if err := w.Run(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: runreport [flags] <playbook-json> <facts-json|none> <report-dir>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "flags:")
	flag.PrintDefaults()
}

// generate runs the full pipeline once: trace in, two artifacts out. A trace
// that cannot be loaded aborts before anything is written; a facts problem
// degrades to defaults inside the resolver.
func generate(cfg config.Config, tracePath, factsPath, reportDir string) error {
	tr, err := trace.Load(tracePath)
	if err != nil {
		return err
	}

	res := facts.Resolve(factsPath, tr, os.Stdout)
	results := timeline.Extract(tr)
	rep := report.Assemble(res.Info, results, time.Now())

	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	jsonPath := filepath.Join(reportDir, cfg.Report.JSONFileName)
	if err := rep.WriteJSON(jsonPath); err != nil {
		return err
	}
	fmt.Printf("Unified JSON Report: %s\n", jsonPath)

	pdfPath := filepath.Join(reportDir, cfg.Report.PDFFileName)
	if err := render.New(cfg.Report.Title).WriteFile(rep, pdfPath); err != nil {
		// The JSON artifact is already on disk; say so rather than hiding
		// the partial completion.
		return fmt.Errorf("pdf rendering failed after JSON artifact was written: %w", err)
	}
	fmt.Printf("PDF Report Generated: %s\n", pdfPath)
	return nil
}
