package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"platereader/internal/batch"
	"platereader/internal/logger"
)

type flagParameter struct {
	endpoint   string
	out        string
	interval   time.Duration
	noCompress bool
	verbose    bool
}

func main() {
	var fp flagParameter
	flag.StringVar(&fp.endpoint, "endpoint", "http://localhost:8080/api/plate-reader", "proxy endpoint to upload images to")
	flag.StringVar(&fp.out, "out", batch.DefaultCSVName, "CSV file to write the plate list to")
	flag.DurationVar(&fp.interval, "interval", batch.DefaultInterval, "minimum spacing between uploads")
	flag.BoolVar(&fp.noCompress, "no-compress", false, "upload files without downsizing them")
	flag.BoolVar(&fp.verbose, "v", false, "log each skipped file as JSON on stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] image...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, fp, flag.Args()))
}

func run(ctx context.Context, fp flagParameter, paths []string) int {
	log := zap.NewNop()
	if fp.verbose {
		log = logger.New(time.Local)
		defer func() { _ = log.Sync() }()
	}

	opt := batch.DefaultRunnerOptions
	opt.SkipCompression = fp.noCompress
	runner := batch.NewRunner(batch.NewProxyClient(fp.endpoint, nil), batch.NewThrottle(fp.interval), opt, log)
	session := batch.NewSession(runner)

	var files []batch.File
	for _, p := range paths {
		f, err := batch.FileFromPath(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			continue
		}
		files = append(files, f)
	}

	rep, err := session.Submit(ctx, files)
	for _, w := range rep.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	for _, p := range session.State().Plates() {
		fmt.Println(p)
	}

	code := 0
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch stopped: %v\n", err)
		code = 1
	}

	if err := session.ExportFile(fp.out); err != nil {
		if errors.Is(err, batch.ErrNothingToExport) {
			fmt.Fprintln(os.Stderr, "no plates found, nothing exported")
			return code
		}
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "%d plate(s) written to %s\n", session.State().Len(), fp.out)
	return code
}
