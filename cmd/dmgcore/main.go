package main

import (
	"errors"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/coderidge/dmgcore"
	"github.com/coderidge/dmgcore/cartridge"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Description = "A headless DMG emulator core runner"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run",
			Value: 60,
		},
		cli.StringFlag{
			Name:  "save",
			Usage: "Path to a battery save file to restore before running and write back after",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("--frames must be a positive value")
	}

	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	data, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("failed to read ROM file: %w", err)
	}

	cart, err := cartridge.Open(data)
	if err != nil {
		return err
	}
	slog.Info("Loaded cartridge",
		"title", cart.Header.Title,
		"rom_size", cart.Header.ROMSize,
		"ram_size", cart.Header.RAMSize,
		"battery", cart.Header.HasBattery)

	emu := dmgcore.New(cart)

	savePath := c.String("save")
	if savePath != "" {
		if err := restoreSave(emu, savePath); err != nil {
			return err
		}
	}

	var checksum uint32
	for i := 0; i < frames; i++ {
		fb, err := emu.StepFrame(dmgcore.JoypadState{})
		if err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		checksum = crc32.ChecksumIEEE(fb.Pixels())
		slog.Debug("Completed frame", "frame", i+1, "checksum", fmt.Sprintf("%08x", checksum))
	}

	slog.Info("Finished", "frames", frames, "framebuffer_checksum", fmt.Sprintf("%08x", checksum))

	if savePath != "" {
		if err := writeSave(emu, savePath); err != nil {
			return err
		}
	}
	return nil
}

// restoreSave loads a battery save file into the emulator, if one exists.
// A missing file is not an error (first run of a battery-backed game).
func restoreSave(emu *dmgcore.Emulator, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No save file found", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read save file: %w", err)
	}
	if err := emu.RestoreBatteryRAM(data); err != nil {
		return fmt.Errorf("failed to restore save file: %w", err)
	}
	slog.Info("Restored battery RAM", "path", path, "size", len(data))
	return nil
}

// writeSave persists the emulator's battery RAM, if the cartridge has any.
func writeSave(emu *dmgcore.Emulator, path string) error {
	ram, ok := emu.BatteryRAM()
	if !ok {
		slog.Debug("Cartridge has no battery RAM to save")
		return nil
	}
	if err := os.WriteFile(path, ram, 0644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	slog.Info("Wrote battery RAM", "path", path, "size", len(ram))
	return nil
}
