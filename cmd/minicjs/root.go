package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/go-errors/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/relationsone/minicjs"
	"github.com/relationsone/minicjs/host"
)

// rootCmd passes every argument through to the hosted script; only the
// host flags below are interpreted, wherever they appear.
var rootCmd = &cobra.Command{
	Use:   "minicjs [arguments...]",
	Short: "Run the main script of a module store",
	Long: `minicjs loads a zip-packed module store, reads its manifest and runs
its main script with CommonJS style require().

The store is taken from the "pak" setting of minicjs.yaml (or the file named
by MINICJS_CONFIG), overridden by MINICJS_PAK.

Host flags:
  --host-version   print the store version and exit
  --host-about     print name, version and description of the store and exit`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(afero.NewOsFs(), cmd.OutOrStdout(), args)
	},
}

// Execute runs the root command and terminates the process with the status
// a script exited with.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *minicjs.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fs afero.Fs, stdout io.Writer, args []string) error {
	cfg, err := LoadConfig(fs, "")
	if err != nil {
		return err
	}
	setupLogging(cfg.Debug)

	store, err := minicjs.OpenZipStore(fs, cfg.Pak)
	if err != nil {
		return err
	}
	if err := mount(fs, store, cfg.Mounts); err != nil {
		return err
	}

	scriptArgs := append([]string{os.Args[0]}, args...)
	kernel, err := minicjs.NewKernel(minicjs.KernelConfig{
		Host: host.NewFsHost(host.Config{
			Filesystem: fs,
			Args:       scriptArgs,
			Platform:   cfg.Platform,
			Stdout:     stdout,
		}),
		Store:        store,
		ManifestFile: cfg.Manifest,
		SearchPaths:  cfg.Paths,
	})
	if err != nil {
		return err
	}

	switch hostAction(args) {
	case "--host-version":
		fmt.Fprintln(stdout, kernel.HostVersion())
		return nil
	case "--host-about":
		fmt.Fprintln(stdout, kernel.HostAbout())
		return nil
	}

	return kernel.Start()
}

// mount serves each configured host directory below its store path.
func mount(fs afero.Fs, store *minicjs.Store, mounts map[string]string) error {
	storePaths := make([]string, 0, len(mounts))
	for storePath := range mounts {
		storePaths = append(storePaths, storePath)
	}
	sort.Strings(storePaths)

	for _, storePath := range storePaths {
		dir := mounts[storePath]
		if ok, _ := afero.DirExists(fs, dir); !ok {
			return errors.Errorf("mount %s: %s is not a directory", storePath, dir)
		}
		if err := store.Mount(storePath, afero.NewBasePathFs(fs, dir)); err != nil {
			return err
		}
	}
	return nil
}

// hostAction returns the first host flag found in args.
func hostAction(args []string) string {
	for _, arg := range args {
		if arg == "--host-version" || arg == "--host-about" {
			return arg
		}
	}
	return ""
}

func setupLogging(debug bool) {
	log.SetHandler(cli.New(os.Stderr))
	log.SetLevel(log.WarnLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
}
