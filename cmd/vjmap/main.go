// vjmap is a command line client for the vjmap CAD map service.
//
// Usage:
//
//	vjmap [global flags] <command> [args] [flags]
//
// Commands:
//
//	md5 <file>                          print the upload digest of a file
//	uploaded <file>                     check whether a file is already stored
//	upload <file>                       upload a map file
//	open <mapid>                        open a map
//	list <mapid> <version>              list map versions and styles
//	bounds <mapid> <version>            print the data bounds of a map
//	metadata <mapid> <version>          print map metadata
//	close <mapid> <version>             close an open map
//	query <mapid> <version>             query features
//	tile <mapid> <version> <style> <z> <x> <y> -o file
//	thumbnail <mapid> <version> -o file
//
// The token and base URL are read from --token/--base-url, then
// VJMAP_TOKEN/VJMAP_BASE_URL, then the YAML file named by --config or
// VJMAP_CONFIG.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamwoolhether/vjmap"
	"github.com/adamwoolhether/vjmap/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/pflag"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

// env bundles what a command needs to run.
type env struct {
	cfg    Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer

	clientOpts []client.Option
}

func (e *env) client() (*vjmap.Client, error) {
	opts := append([]client.Option{}, e.clientOpts...)
	if e.cfg.Timeout > 0 {
		opts = append(opts, client.WithTimeout(e.cfg.Timeout))
	}
	if e.cfg.Rate > 0 && e.cfg.Burst > 0 {
		opts = append(opts, client.WithThrottle(e.cfg.Rate, e.cfg.Burst))
	}
	opts = append(opts, client.WithUserAgent("vjmap-cli"))

	return vjmap.New(e.cfg.Token,
		vjmap.WithBaseURL(e.cfg.BaseURL),
		vjmap.WithLogger(e.logger),
		vjmap.WithClientOptions(opts...),
	)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	var g globalFlags

	fs := pflag.NewFlagSet("vjmap", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	g.register(fs)
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "%v\n\n", err)
		printUsage(stderr, fs)
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr, fs)
		return exitUsage
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", rest[0])
		printUsage(stderr, fs)
		return exitUsage
	}

	cfg, err := loadConfig(fs, g, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	e := &env{
		cfg:    cfg,
		logger: newLogger(cfg.Log, stderr),
		stdout: stdout,
		stderr: stderr,
	}

	var reg *prometheus.Registry
	if g.metrics {
		reg = prometheus.NewRegistry()
		e.clientOpts = append(e.clientOpts, client.WithMetrics(reg))
	}

	err = cmd.run(ctx, e, rest[1:])

	if reg != nil {
		if merr := writeMetrics(stderr, reg); merr != nil {
			e.logger.Error("writing metrics", "error", merr)
		}
	}

	var uerr *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "usage: vjmap %s %s\n%v\n", rest[0], cmd.usage, err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
}

func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}

	return nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: vjmap [global flags] <command> [args] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fmt.Fprint(w, fs.FlagUsages())
}
