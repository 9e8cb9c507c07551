package fuse

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// MountOptions configure the kernel mount
type MountOptions struct {
	FSName             string
	Subtype            string
	AllowOther         bool
	DefaultPermissions bool
	MaxReadahead       uint32

	// Debug routes the FUSE protocol trace into Logger (-d)
	Debug bool
	// Serialize forces one fork operation at a time (-s)
	Serialize bool

	// Ignored holds options the mount does not understand
	Ignored []string

	// Logger receives diagnostic messages. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// DefaultMountOptions returns the options used when none are given
func DefaultMountOptions() MountOptions {
	return MountOptions{
		FSName:  "mfs",
		Subtype: "mfsfuse",
	}
}

// ParseMountArgs applies mount-helper style arguments to opts: "-o a,b=c"
// (or "-oa,b=c"), "-d", "-s" and "-f". Anything else lands in Ignored.
func ParseMountArgs(args []string, opts *MountOptions) error {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-o":
			if i+1 >= len(args) {
				return fmt.Errorf("option -o requires an argument")
			}
			i++
			if err := opts.applyList(args[i]); err != nil {
				return err
			}
		case strings.HasPrefix(arg, "-o"):
			if err := opts.applyList(arg[2:]); err != nil {
				return err
			}
		case arg == "-d":
			opts.Debug = true
		case arg == "-s":
			opts.Serialize = true
		case arg == "-f":
			// always in the foreground
		default:
			opts.Ignored = append(opts.Ignored, arg)
		}
	}
	return nil
}

func (o *MountOptions) applyList(list string) error {
	for _, opt := range strings.Split(list, ",") {
		if opt == "" {
			continue
		}
		key, value, _ := strings.Cut(opt, "=")
		switch key {
		case "allow_other":
			o.AllowOther = true
		case "default_permissions":
			o.DefaultPermissions = true
		case "fsname":
			o.FSName = value
		case "subtype":
			o.Subtype = value
		case "max_readahead":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return fmt.Errorf("max_readahead=%q: %w", value, err)
			}
			o.MaxReadahead = uint32(n)
		case "ro":
			// the mount is always read-only
		case "debug":
			o.Debug = true
		default:
			o.Ignored = append(o.Ignored, "-o"+opt)
		}
	}
	return nil
}
