package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/namedfork/mfsfuse-go/internal/config"
	"github.com/namedfork/mfsfuse-go/internal/fuse"
	"github.com/namedfork/mfsfuse-go/internal/source"
)

// errUnrecognized makes the process exit 1 without a message
var errUnrecognized = errors.New("unrecognized volume")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errUnrecognized) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "mfsutil",
		Short:         "Inspect Macintosh File System volume images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	root.PersistentFlags().String("source", "file", "image source: file, s3, postgres or mongodb")

	probe := &cobra.Command{
		Use:   "probe device",
		Short: "Print the volume name and image digest; exit 1 if not an MFS volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return probeVolume(cmd, cfg, args[0])
		},
	}

	verify := &cobra.Command{
		Use:   "verify device",
		Short: "Check volume consistency",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "No verification done")
		},
	}

	root.AddCommand(probe, verify)
	return root
}

func probeVolume(cmd *cobra.Command, cfg *config.Config, device string) error {
	src, err := source.Open(cmd.Context(), cfg, device, zap.NewNop())
	if err != nil {
		return err
	}
	defer src.Close()

	vol, err := src.Volume(0)
	if err != nil {
		return errUnrecognized
	}
	name, err := fuse.DecodeName(vol.Name())
	if err != nil {
		return err
	}

	h := blake3.New()
	if _, err := io.Copy(h, io.NewSectionReader(src.Image, 0, src.Image.Size())); err != nil {
		return fmt.Errorf("hashing image: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, name)
	fmt.Fprintf(out, "blake3:%s\n", hex.EncodeToString(h.Sum(nil)))
	return nil
}
