package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/urfave/cli/v2"

	"halosnap/capture"
	"halosnap/config"
	"halosnap/engine"
	"halosnap/memory"
	"halosnap/report"
	"halosnap/sampler"
	"halosnap/search"
)

var log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "halosnap"))

const clearScreen = "\033[H\033[2J"

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Sample the target continuously and redraw the object table",
		Flags: append(targetFlags(),
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Time between samples (default from config)",
			},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			proc, img, err := attach(cfg)
			if err != nil {
				return err
			}
			defer proc.Close()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			s := sampler.New(img, cfg.Addresses, cfg.Sampler.Interval)
			s.OnSample = func(snapshot *engine.Snapshot, err error) {
				fmt.Fprint(c.App.Writer, clearScreen)
				fmt.Fprintf(c.App.Writer, "pid %d  window %s  %s\n\n", cfg.Target.PID, img.VirtualAddress().ToString(), time.Now().Format(time.TimeOnly))
				if err != nil {
					printFailure(c, err)
					return
				}
				if err := render(c.App.Writer, c, cfg, snapshot); err != nil {
					log.Infoln("Render failed:", err)
				}
			}

			if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Capture the target once and print the reconstructed state",
		Flags: targetFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			proc, img, err := attach(cfg)
			if err != nil {
				return err
			}
			defer proc.Close()

			snapshot, err := sampler.New(img, cfg.Addresses, cfg.Sampler.Interval).Sample()
			if err != nil {
				return errors.New(describeFailure(c, err))
			}
			return render(c.App.Writer, c, cfg, snapshot)
		},
	}
}

func captureCommand() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Save the guest window to a capture directory for offline inspection",
		Flags: append(targetFlags(),
			&cli.StringFlag{
				Name:     "out",
				Usage:    "Capture directory to create",
				Required: true,
			},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			proc, img, err := attach(cfg)
			if err != nil {
				return err
			}
			defer proc.Close()

			if err := img.Refresh(); err != nil {
				return err
			}

			// a capture of a half-loaded map is still useful, only note it
			if _, err := engine.BuildSnapshot(img, cfg.Addresses); err != nil {
				log.Infoln("Captured window does not hold a complete snapshot:", err)
			}

			cp := capture.FromImage(proc.GetPID(), img)
			if err := cp.Save(c.String("out")); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, cp.ID.String())
			return nil
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the state held in a capture directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "from",
				Usage:    "Capture directory",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			cp, err := capture.Load(c.String("from"))
			if err != nil {
				return err
			}

			snapshot, err := engine.BuildSnapshot(cp.Image(), cfg.Addresses)
			if err != nil {
				return errors.New(describeFailure(c, err))
			}

			fmt.Fprintf(c.App.Writer, "capture %s  pid %d  %s\n\n", cp.ID, cp.PID, cp.CapturedAt.Format(time.RFC3339))
			return render(c.App.Writer, c, cfg, snapshot)
		},
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Hex dump an object's list header and body",
		Flags: append(targetFlags(),
			&cli.StringFlag{
				Name:  "from",
				Usage: "Capture directory; the live target is used when omitted",
			},
			&cli.IntFlag{
				Name:     "index",
				Usage:    "Object pool slot",
				Required: true,
			},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			source, done, err := openWindow(c, cfg)
			if err != nil {
				return err
			}
			defer done()

			snapshot, err := engine.BuildSnapshot(source, cfg.Addresses)
			if err != nil {
				return errors.New(describeFailure(c, err))
			}
			return report.WriteObjectDump(c.App.Writer, source, snapshot, c.Int("index"))
		},
	}
}

func setPositionCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-position",
		Usage: "Move an object by writing its position into the target",
		Flags: append(targetFlags(),
			&cli.IntFlag{Name: "index", Usage: "Object pool slot", Required: true},
			&cli.Float64Flag{Name: "x", Required: true},
			&cli.Float64Flag{Name: "y", Required: true},
			&cli.Float64Flag{Name: "z", Required: true},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			proc, img, err := attach(cfg)
			if err != nil {
				return err
			}
			defer proc.Close()

			if err := img.Refresh(); err != nil {
				return err
			}
			snapshot, err := engine.BuildSnapshot(img, cfg.Addresses)
			if err != nil {
				return errors.New(describeFailure(c, err))
			}

			index := c.Int("index")
			position := [3]float32{float32(c.Float64("x")), float32(c.Float64("y")), float32(c.Float64("z"))}
			if err := snapshot.SetObjectPosition(img, index, position); err != nil {
				return err
			}

			log.Infoln("Moved object", snapshot.ObjectHandle(index).String(), "to", position)
			return nil
		},
	}
}

// openWindow returns the capture named by --from, or a fresh read of the live
// target when --from is empty
func openWindow(c *cli.Context, cfg *config.Config) (*memory.Image, func(), error) {
	if from := c.String("from"); from != "" {
		cp, err := capture.Load(from)
		if err != nil {
			return nil, nil, err
		}
		return cp.Image(), func() {}, nil
	}

	proc, img, err := attach(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := img.Refresh(); err != nil {
		proc.Close()
		return nil, nil, err
	}
	return img, func() { proc.Close() }, nil
}

func locateCommand() *cli.Command {
	return &cli.Command{
		Name:  "locate",
		Usage: "Scan the guest window for pool and tag headers and suggest engine addresses",
		Flags: append(targetFlags(),
			&cli.StringFlag{
				Name:  "from",
				Usage: "Capture directory; the live target is used when omitted",
			},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			img, done, err := openWindow(c, cfg)
			if err != nil {
				return err
			}
			defer done()

			data := img.Bytes()
			w := c.App.Writer
			for _, m := range search.FindPools(img, data) {
				h := m.Header
				fmt.Fprintf(w, "pool %-20q at %s  max %d  sizeof %d  valid %d  data %s\n",
					h.NameString(), m.Address, h.MaxEntries, h.DataSizeof, h.Valid, h.DataBegin)
			}
			for _, m := range search.FindTagHeaders(img, data) {
				fmt.Fprintf(w, "tag header at %s  tags %d  array %s\n", m.Address, m.Header.TagCount, m.Header.TagArray)
			}

			suggested, changed := search.SuggestAddresses(img, data, cfg.Addresses)
			if !changed {
				log.Infoln("Configured addresses already match everything found")
			}
			fmt.Fprintln(w)
			return writeAddresses(w, suggested)
		},
	}
}

// writeAddresses prints an [addresses] table that can be pasted into the config
func writeAddresses(w io.Writer, addrs engine.Addresses) error {
	fmt.Fprintln(w, "# engine addresses; globals without a signature keep their configured values")
	return toml.NewEncoder(w).Encode(struct {
		Addresses engine.Addresses `toml:"addresses"`
	}{addrs})
}
