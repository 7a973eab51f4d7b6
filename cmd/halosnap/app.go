package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"halosnap/coloransi"
	"halosnap/config"
	"halosnap/engine"
	"halosnap/memory"
	"halosnap/process"
	"halosnap/process/memory_map"
	"halosnap/report"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func App() *cli.App {
	return &cli.App{
		Name:    "halosnap",
		Usage:   "Reconstruct Halo engine state from an emulator's guest memory",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			watchCommand(),
			snapshotCommand(),
			captureCommand(),
			inspectCommand(),
			dumpCommand(),
			setPositionCommand(),
			locateCommand(),
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				coloransi.SetEnabled(false)
			}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "TOML config file with target and engine addresses",
			EnvVars: []string{"HALOSNAP_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, yaml (default from config)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Show free slots and full validation errors",
		},
		&cli.BoolFlag{
			Name:    "no-color",
			Usage:   "Disable ANSI colors",
			EnvVars: []string{"NO_COLOR"},
		},
	}
}

// targetFlags select the live emulator process
func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "pid",
			Aliases: []string{"p"},
			Usage:   "Emulator process ID",
			EnvVars: []string{"HALOSNAP_PID"},
		},
		&cli.StringFlag{
			Name:    "va",
			Usage:   "Host address of guest physical address 0, in hex (xemu monitor: gpa2hva 0x0)",
			EnvVars: []string{"HALOSNAP_VA"},
		},
		&cli.Uint64Flag{
			Name:  "size",
			Usage: "Size of the captured window in bytes (default from config)",
		},
	}
}

// loadConfig reads --config and applies command line overrides
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("pid") {
		cfg.Target.PID = c.Int("pid")
	}
	if c.IsSet("va") {
		va, err := process.ParseAddress(c.String("va"))
		if err != nil {
			return nil, fmt.Errorf("--va: %w", err)
		}
		cfg.Target.VirtualAddress = uint64(va)
	}
	if c.IsSet("size") {
		cfg.Target.WindowSize = c.Uint64("size")
	}
	if c.IsSet("output") {
		cfg.Output.Format = c.String("output")
	}
	if c.IsSet("interval") {
		cfg.Sampler.Interval = c.Duration("interval")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// attach opens the target process and wraps its guest window in an image.
// The caller closes the returned process.
func attach(cfg *config.Config) (process.Process, *memory.Image, error) {
	if cfg.Target.PID <= 0 {
		return nil, nil, fmt.Errorf("a target process is required: set --pid or target.pid")
	}
	if cfg.Target.VirtualAddress == 0 {
		return nil, nil, fmt.Errorf("the guest window address is required: set --va or target.virtual_address")
	}

	proc, err := getProcess(cfg.Target.PID)
	if err != nil {
		return nil, nil, fmt.Errorf("attach to process %d: %w", cfg.Target.PID, err)
	}

	va := process.ProcessMemoryAddress(cfg.Target.VirtualAddress)
	if !proc.IsValidAddress(va) {
		proc.Close()
		return nil, nil, guestWindowError(proc, va, cfg.Target.WindowSize)
	}

	img := memory.NewImage(proc, va, process.ProcessMemorySize(cfg.Target.WindowSize))
	return proc, img, nil
}

// guestWindowError explains an unmapped --va and lists the mappings large
// enough to hold guest RAM
func guestWindowError(proc process.Process, va process.ProcessMemoryAddress, size uint64) error {
	mm, err := proc.GetMemoryMap()
	if err != nil {
		return fmt.Errorf("guest window %s is not mapped: %w", va.ToString(), err)
	}

	candidates := memory_map.GuestCandidates(mm, size)
	if len(candidates) == 0 {
		return fmt.Errorf("guest window %s is not mapped and no mapping of %d bytes was found", va.ToString(), size)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "guest window %s is not mapped; mappings large enough for guest RAM:", va.ToString())
	for _, c := range candidates {
		fmt.Fprintf(&b, "\n  %s", c)
	}
	return errors.New(b.String())
}

func render(w io.Writer, c *cli.Context, cfg *config.Config, s *engine.Snapshot) error {
	switch cfg.Output.Format {
	case "yaml":
		return report.WriteYAML(w, s, c.Bool("verbose"))
	default:
		return report.WriteTable(w, s, report.ObjectTableOptions{
			OnlyOccupied: !c.Bool("verbose"),
			Selected:     -1,
		})
	}
}

// describeFailure explains why no snapshot could be built
func describeFailure(c *cli.Context, err error) string {
	var verr *engine.ValidationError
	if !c.Bool("verbose") && errors.As(err, &verr) {
		return fmt.Sprintf("game state not ready (%s)", verr.Global)
	}
	return err.Error()
}

func printFailure(c *cli.Context, err error) {
	fmt.Fprintln(os.Stderr, coloransi.Foreground(coloransi.Red, describeFailure(c, err)))
}
