package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/kballard/go-shellquote"

	"svddoc/internal/dump"
	"svddoc/internal/memmap"
	"svddoc/internal/pages"
	"svddoc/internal/sysdec"
)

const usageString = `svddoc converts a CMSIS-SVD description into HTML register documentation.

Usage:

	%s [flags] [input.svd]

Flags are also read from the SVDDOC_FLAGS environment variable, before
the command line.

`

type config struct {
	input       string
	output      string
	dump        bool
	width       int
	graph       bool
	strict      bool
	jobs        int
	placeholder string
	verbose     bool
}

var cfg config

func init() {
	flag.StringVar(&cfg.input, "i", "", "input SVD file")
	flag.StringVar(&cfg.input, "input", "", "input SVD file")
	flag.StringVar(&cfg.output, "o", "output", "output directory")
	flag.StringVar(&cfg.output, "output", "output", "output directory")
	flag.BoolVar(&cfg.dump, "d", false, "also dump a human readable version of the registers to stdout")
	flag.BoolVar(&cfg.dump, "dump", false, "also dump a human readable version of the registers to stdout")
	flag.IntVar(&cfg.width, "width", 0, "dump line width (0 asks the terminal)")
	flag.BoolVar(&cfg.graph, "g", false, "also write device.dot, a graph of the peripherals")
	flag.BoolVar(&cfg.graph, "graph", false, "also write device.dot, a graph of the peripherals")
	flag.BoolVar(&cfg.strict, "strict", false, "fail on overlapping or out of range fields")
	flag.IntVar(&cfg.jobs, "j", runtime.NumCPU(), "pages rendered in parallel")
	flag.StringVar(&cfg.placeholder, "placeholder", pages.DefaultPlaceholder, "index placeholder in array register names")
	flag.BoolVar(&cfg.verbose, "v", false, "log progress")
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), usageString, filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

// withEnvFlags puts the shell split words of env in front of args, so
// that the command line has the last word.
func withEnvFlags(env string, args []string) ([]string, error) {
	words, err := shellquote.Split(env)
	if err != nil {
		return nil, fmt.Errorf("SVDDOC_FLAGS: %w", err)
	}
	return append(words, args...), nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("svddoc: ")
	flag.Usage = usage

	args, err := withEnvFlags(os.Getenv("SVDDOC_FLAGS"), os.Args[1:])
	if err != nil {
		log.Print(err)
		os.Exit(2)
	}
	flag.CommandLine.Parse(args)
	if cfg.input == "" && flag.NArg() > 0 {
		cfg.input = flag.Arg(0)
	}
	if cfg.input == "" || flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg, os.Stdout)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config, stdout io.Writer) error {
	dev, err := sysdec.ParseFile(cfg.input)
	if err != nil {
		return err
	}
	if cfg.verbose {
		log.Printf("read %d peripherals of %s from %s", len(dev.Peripheral), dev.Name, cfg.input)
	}

	renderer, err := pages.NewTemplateRenderer()
	if err != nil {
		return err
	}
	gen := pages.NewGenerator(renderer,
		pages.WithJobs(cfg.jobs),
		pages.WithPlaceholder(cfg.placeholder),
		pages.Strict(cfg.strict),
		pages.Verbose(cfg.verbose))
	if err := gen.Generate(ctx, dev, cfg.output); err != nil {
		return err
	}

	if cfg.graph {
		path := filepath.Join(cfg.output, "device.dot")
		if err := os.WriteFile(path, []byte(memmap.DOT(dev)), 0644); err != nil {
			return fmt.Errorf("write graph: %w", err)
		}
		if cfg.verbose {
			log.Printf("wrote %s", path)
		}
	}

	if cfg.dump {
		width := cfg.width
		if width <= 0 {
			width = dump.TerminalWidth()
		}
		if err := dump.Write(stdout, dev, width, cfg.placeholder); err != nil {
			return fmt.Errorf("dump: %w", err)
		}
	}
	return nil
}
