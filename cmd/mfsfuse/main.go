package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/namedfork/mfsfuse-go/internal/config"
	"github.com/namedfork/mfsfuse-go/internal/fuse"
	"github.com/namedfork/mfsfuse-go/internal/logger"
	"github.com/namedfork/mfsfuse-go/internal/mfs"
	"github.com/namedfork/mfsfuse-go/internal/source"
)

var version = "0.1.0-dev"

// exitError carries the process exit status out of a command
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// splitArgs separates mount-helper options from the arguments cobra parses.
// Flags defined on known (and help) stay with cobra; every other option is
// handed to the mount unchanged.
func splitArgs(known *pflag.FlagSet, args []string) (cli, mount []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return append(cli, args[i:]...), mount
		case arg == "-" || !strings.HasPrefix(arg, "-"):
			cli = append(cli, arg)
		case arg == "-o":
			mount = append(mount, arg)
			if i+1 < len(args) {
				i++
				mount = append(mount, args[i])
			}
		case arg == "-h" || arg == "--help":
			cli = append(cli, arg)
		default:
			f := lookupFlag(known, arg)
			if f == nil {
				mount = append(mount, arg)
				continue
			}
			cli = append(cli, arg)
			// a value-taking flag given without "=value" consumes the next argument
			if f.NoOptDefVal == "" && !strings.Contains(arg, "=") && (strings.HasPrefix(arg, "--") || len(arg) == 2) && i+1 < len(args) {
				i++
				cli = append(cli, args[i])
			}
		}
	}
	return cli, mount
}

func lookupFlag(known *pflag.FlagSet, arg string) *pflag.Flag {
	if strings.HasPrefix(arg, "--") {
		name, _, _ := strings.Cut(arg[2:], "=")
		return known.Lookup(name)
	}
	return known.ShorthandLookup(arg[1:2])
}

func run(args []string, stdout, stderr io.Writer) int {
	var mountArgs []string
	cmd := newRootCommand(&mountArgs)
	var cliArgs []string
	cliArgs, mountArgs = splitArgs(cmd.Flags(), args)
	cmd.SetArgs(cliArgs)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.msg != "" {
			fmt.Fprintln(stderr, ee.msg)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func newRootCommand(mountArgs *[]string) *cobra.Command {
	var (
		showVersion bool
		cfgFile     string
	)

	cmd := &cobra.Command{
		Use:   "mfsfuse [--folders] [fuse options] device mountpoint",
		Short: "Mount a Macintosh File System volume read-only",
		Long: `mfsfuse mounts an MFS (400K floppy era) volume image read-only through FUSE.

Every file appears with its data fork under its own name and with its
resource fork and Finder info as an AppleDouble companion named "._name".
With --folders the folder hierarchy kept by the Finder in the Desktop file
is reconstructed; otherwise all files are listed under the root.

FUSE options such as -o allow_other, -d, -s and -f are passed to the mount.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "mfsfuse %s\n", version)
				return &exitError{code: 1}
			}
			if len(args) == 0 {
				return &exitError{code: 1, msg: "invalid volume"}
			}
			if len(args) < 2 {
				cmd.Usage()
				return &exitError{code: 1, msg: "missing mountpoint"}
			}
			if len(args) > 2 {
				return &exitError{code: 1, msg: fmt.Sprintf("unexpected argument %q", args[2])}
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return mount(cmd.Context(), cfg, args[0], args[1], *mountArgs)
		},
	}

	flags := cmd.Flags()
	flags.Bool("folders", false, "emulate folders from the Desktop file")
	flags.BoolVarP(&showVersion, "version", "V", false, "print version and exit")
	flags.StringVar(&cfgFile, "config", "", "config file (default mfsfuse.yaml in ., ~/.config/mfsfuse, /etc/mfsfuse)")
	flags.String("source", "file", "image source: file, s3, postgres or mongodb")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("log-format", "human", "log format: human or json")
	flags.String("log-file", "", "also write logs to this file")
	return cmd
}

func mount(ctx context.Context, cfg *config.Config, device, mountpoint string, mountArgs []string) error {
	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return err
	}
	defer log.Sync()

	mountOpts := fuse.DefaultMountOptions()
	mountOpts.AllowOther = cfg.Mount.AllowOther
	if cfg.Mount.FSName != "" {
		mountOpts.FSName = cfg.Mount.FSName
	}
	if err := fuse.ParseMountArgs(mountArgs, &mountOpts); err != nil {
		return err
	}
	mountOpts.Logger = log
	if len(mountOpts.Ignored) > 0 {
		log.Warn("ignoring mount options", zap.Strings("options", mountOpts.Ignored))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := source.Open(ctx, cfg, device, log)
	if err != nil {
		log.Error("failed to open image", zap.String("device", device), zap.Error(err))
		return &exitError{code: 1, msg: "invalid volume"}
	}
	defer src.Backend.Close()

	var flags mfs.Flags
	if cfg.Folders {
		flags |= mfs.FlagFolders
	}
	vol, err := src.Volume(flags)
	if err != nil {
		src.Image.Close()
		log.Error("failed to open volume", zap.String("device", device), zap.Error(err))
		return &exitError{code: 1, msg: "invalid volume"}
	}

	fsOpts := fuse.DefaultOptions()
	fsOpts.Folders = cfg.Folders
	fsOpts.Serialize = mountOpts.Serialize
	fsOpts.Logger = log
	filesystem := fuse.NewFilesystem(fuse.NewVolume(vol), fsOpts)
	err = fuse.Mount(ctx, mountpoint, filesystem, mountOpts)
	stats := src.Image.CacheStats()
	log.Debug("image cache",
		zap.Int64("hits", stats.Hits),
		zap.Int64("misses", stats.Misses),
		zap.Int64("fetches", stats.Fetches))
	if err != nil {
		log.Error("mount failed", zap.String("mountpoint", mountpoint), zap.Error(err))
		return &exitError{code: 1}
	}
	return nil
}
