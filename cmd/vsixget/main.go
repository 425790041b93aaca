// Command vsixget downloads VS Code extension packages from the
// marketplace and warns when a package changes between runs.
//
//	vsixget ms-python.python
//	vsixget --query golang.go
//	vsixget verify ms-python.python.vsix
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/adamwoolhether/vsixget"
	"github.com/adamwoolhether/vsixget/client/download"
	"github.com/adamwoolhether/vsixget/config"
	"github.com/adamwoolhether/vsixget/integrity"
)

var (
	errNoIdentifier = errors.New("no extension identifier given")
	errNotRecorded  = errors.New("no recorded hash")
	errHashMismatch = errors.New("hash does not match record")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.LookupEnv, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// flags holds command-line overrides. Only flags the user set are
// applied on top of the loaded config.
type flags struct {
	configPath  string
	dir         string
	baseURL     string
	query       bool
	noProgress  bool
	strictNames bool
	sha256      string
	store       string
	verbose     bool
}

func run(ctx context.Context, args []string, lookupEnv func(string) (string, bool), stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(lookupEnv, stdin, stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	return 0
}

func newRootCmd(lookupEnv func(string) (string, bool), stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "vsixget [publisher.extension]",
		Short:         "vsixget - download VS Code extensions from the marketplace",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := f.load(c, lookupEnv)
			if err != nil {
				return err
			}

			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				id, err = prompt(stdin, stdout)
				if err != nil {
					return err
				}
			}

			logger := newLogger(stderr, f.verbose)

			fetcher, closeStore, err := vsixget.NewFetcher(cfg, logger, progressWriter(stderr))
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					logger.Error("failed to close integrity store", "error", err)
				}
			}()

			res, err := fetcher.Fetch(c.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintln(stdout, "Downloaded", res.Descriptor.FileName)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "TOML config file (or set "+config.EnvConfigFile+")")
	pf.StringVarP(&f.dir, "dir", "d", "", "directory to write packages and the hash record to")
	pf.StringVar(&f.store, "store", "", "integrity backend: json, bolt or memory")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")

	fl := cmd.Flags()
	fl.StringVar(&f.baseURL, "base-url", "", "marketplace base URL")
	fl.BoolVar(&f.query, "query", false, "resolve through the extension query API instead of the direct URL")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable progress reporting")
	fl.BoolVar(&f.strictNames, "strict-names", false, "reject file names that would need sanitizing")
	fl.StringVar(&f.sha256, "sha256", "", "expected SHA-256 of the package")

	cmd.AddCommand(newVerifyCmd(&f, lookupEnv, stdout))

	return cmd
}

func newVerifyCmd(f *flags, lookupEnv func(string) (string, bool), stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "re-hash a downloaded package and compare it with the record",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := f.load(c, lookupEnv)
			if err != nil {
				return err
			}

			path := args[0]
			sum, err := download.HashFile(path)
			if err != nil {
				return err
			}

			store, err := integrity.Open(integrity.Backend(cfg.Integrity.Backend), cfg.Integrity.Path, cfg.Download.Dir)
			if err != nil {
				return fmt.Errorf("opening integrity store: %w", err)
			}
			defer store.Close()

			name := filepath.Base(path)
			recorded, ok, err := store.Get(c.Context(), name)
			switch {
			case err != nil:
				return err
			case !ok:
				return fmt.Errorf("%w for %s", errNotRecorded, name)
			case recorded != sum:
				return fmt.Errorf("%s: %w: recorded %s, got %s", name, errHashMismatch, recorded, sum)
			}

			fmt.Fprintln(stdout, "OK", name, sum)
			return nil
		},
	}
}

// load reads the config file named by --config or VSIXGET_CONFIG,
// applies the environment, then the flags the user set.
func (f *flags) load(c *cobra.Command, lookupEnv func(string) (string, bool)) (*config.Config, error) {
	path := f.configPath
	if path == "" {
		path, _ = lookupEnv(config.EnvConfigFile)
	}

	cfg, err := config.Load(path, lookupEnv)
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		fl := c.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("dir") {
		cfg.Download.Dir = f.dir
	}
	if changed("store") {
		cfg.Integrity.Backend = f.store
	}
	if changed("base-url") {
		cfg.Marketplace.BaseURL = f.baseURL
	}
	if changed("query") && f.query {
		cfg.Marketplace.Mode = "query"
	}
	if changed("no-progress") && f.noProgress {
		cfg.Download.Progress = false
	}
	if changed("strict-names") {
		cfg.Download.StrictNames = f.strictNames
	}
	if changed("sha256") {
		cfg.Download.SHA256 = f.sha256
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// prompt asks for an identifier on stdin.
func prompt(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Enter the extension ID (publisher.extension): ")

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading identifier: %w", err)
	}

	id := strings.TrimSpace(line)
	if id == "" {
		return "", errNoIdentifier
	}

	return id, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// progressWriter returns w when it is a terminal, so a progress bar can
// redraw in place. Otherwise progress goes to the log.
func progressWriter(w io.Writer) io.Writer {
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return f
	}

	return nil
}
