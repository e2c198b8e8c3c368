// Command spill soaks up its inputs before writing them out, like sponge, keeping
// each input in memory until it outgrows its share of the memory budget and then
// spilling it to an anonymous temp file. The output is only opened once every
// input has been read, so it may safely be one of the inputs.
//
//	spill [-o output] [-max-memory bytes] [-dir dir] [-prefix name] [-config file.yaml] [-v] [file ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/lanrat/spillover"
	"golang.org/x/sync/errgroup"
)

type options struct {
	output     string
	maxMemory  int64
	dir        string
	prefix     string
	configPath string
	verbose    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.output, "o", "", "output file, stdout if empty")
	flag.Int64Var(&opts.maxMemory, "max-memory", -1, "total bytes kept in memory, split across inputs (default from config)")
	flag.StringVar(&opts.dir, "dir", "", "directory for spill files")
	flag.StringVar(&opts.prefix, "prefix", fmt.Sprintf("spill_%d_", os.Getpid()), "spill file name pattern")
	flag.StringVar(&opts.configPath, "config", "", "YAML config file")
	flag.BoolVar(&opts.verbose, "v", false, "debug logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, flag.Args(), os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "spill: %s\n", err)
		os.Exit(1)
	}
}

// run reads every input into its own stream concurrently, then writes the streams to
// the output in argument order.
func run(ctx context.Context, opts options, inputs []string, stdin io.Reader, stdout, stderr io.Writer) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	config := spillover.DefaultConfig()
	if opts.configPath != "" {
		var err error
		config, err = spillover.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
	}
	config.Logger = logger

	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	if opts.maxMemory >= 0 {
		config.MaxInMemorySize = opts.maxMemory
	}
	config.MaxInMemorySize /= int64(len(inputs))

	// soaked receives one value per input once it is finalized; turns[i] is closed
	// when input i has been written out
	soaked := make(chan struct{}, len(inputs))
	ready := make(chan io.Writer)
	turns := make([]chan struct{}, len(inputs))
	for i := range turns {
		turns[i] = make(chan struct{})
	}

	streams := make([]*spillover.Stream, len(inputs))
	for i := range inputs {
		var err error
		streams[i], err = spillover.New(opts.prefix, opts.dir, config)
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range inputs {
		g.Go(func() error {
			return streams[i].Open(func(s *spillover.Stream) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := soak(s, name, stdin); err != nil {
					return err
				}
				logger.Debug("input read", "input", name, "stream", s.ID(), "size", s.Size(), "in_memory", s.InMemory())
				soaked <- struct{}{}

				var out io.Writer
				select {
				case out = <-ready:
				case <-ctx.Done():
					return ctx.Err()
				}
				if i > 0 {
					select {
					case <-turns[i-1]:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				defer close(turns[i])
				_, err := s.WriteTo(out)
				return err
			})
		})
	}

	g.Go(func() error {
		for range inputs {
			select {
			case <-soaked:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		out, closeOut, err := openOutput(opts.output, stdout)
		if err != nil {
			return err
		}
		for range inputs {
			select {
			case ready <- out:
			case <-ctx.Done():
				_ = closeOut()
				return ctx.Err()
			}
		}
		select {
		case <-turns[len(turns)-1]:
		case <-ctx.Done():
			_ = closeOut()
			return ctx.Err()
		}
		return closeOut()
	})

	return g.Wait()
}

// soak copies one input into s and finalizes it. "-" is stdin.
func soak(s *spillover.Stream, name string, stdin io.Reader) error {
	var src io.Reader = stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}
	if _, err := io.Copy(s, src); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return s.Finalize()
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
