// Package loader sequences a complete flashing session: board detection,
// ISP handshake, flash agent install and boot, baud switch, flash writes
// and reboot. Every stage is tracked by a job.Tracker.
package loader

import (
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/janch32/kendryte-flash/firmware"
	"github.com/janch32/kendryte-flash/flashmode"
	"github.com/janch32/kendryte-flash/isp"
	"github.com/janch32/kendryte-flash/job"
)

// Settle time the ROM needs to hand execution over to the flash agent
const bootSettle = 2 * time.Second

// Loader - One flashing session on one serial line
type Loader struct {
	cfg   Config
	isp   *isp.Instance
	agent *flashmode.Agent
	jobs  *job.Tracker
	board isp.Board
}

// New opens device at the ROM line rate. The caller must Close the Loader.
func New(device string, opts ...Option) (*Loader, error) {
	cfg := newConfig(opts)

	inst, err := isp.New(isp.Config{
		Device:      device,
		BaudRate:    isp.InitialBaudRate,
		ReadTimeout: cfg.ReadTimeout,
		Attempts:    cfg.Retries,
		Open:        cfg.Open,
		Sleep:       cfg.Sleep,
	})
	if err != nil {
		return nil, err
	}

	return &Loader{
		cfg:   cfg,
		isp:   inst,
		agent: flashmode.New(inst),
		jobs:  job.NewTracker(cfg.Sink),
		board: isp.Unknown,
	}, nil
}

// Close - Release the serial line
func (l *Loader) Close() error {
	return l.isp.Close()
}

// Board - Board committed by DetectBoard, Unknown before or without one
func (l *Loader) Board() isp.Board {
	return l.board
}

// Jobs - Stage statuses of this session
func (l *Loader) Jobs() *job.Tracker {
	return l.jobs
}

// DetectBoard wakes and greets every board variant in priority order and
// commits the first one that answers. A variant that stays silent is
// absent. When none answers the stage still finishes, with board Unknown.
func (l *Loader) DetectBoard() error {
	return l.jobs.Run(job.DetectBoard, func(report func(float64)) error {
		l.board = isp.Unknown
		candidates := isp.DetectionOrder[:len(isp.DetectionOrder)-1]

		for i, board := range candidates {
			err := l.probe(board)
			if err == nil {
				l.board = board
				glog.Infof("Detected board %v", board)
				return nil
			}

			if !isp.IsTimeout(err) {
				return errors.Wrapf(err, "detect %v", board)
			}

			glog.Warningf("No answer with %v reset sequence", board)
			report(float64(i+1) / float64(len(candidates)))
		}

		glog.Warning("No board answered, board is Unknown")
		return nil
	})
}

func (l *Loader) probe(board isp.Board) error {
	if err := l.isp.Wake(board); err != nil {
		return err
	}
	return l.isp.Greeting()
}

// BootToISPMode - Reset the detected board into the ROM bootloader
func (l *Loader) BootToISPMode() error {
	return l.jobs.Run(job.BootToISPMode, func(func(float64)) error {
		return l.isp.Wake(l.board)
	})
}

// Greeting - ROM greeting, failure is fatal
func (l *Loader) Greeting() error {
	return l.jobs.Run(job.Greeting, func(func(float64)) error {
		return l.isp.Greeting()
	})
}

// InstallFlashBootloader writes the flash agent to SRAM. With no image
// the configured bootloader Asset is loaded.
func (l *Loader) InstallFlashBootloader(image []byte) error {
	return l.jobs.Run(job.InstallFlashBootloader, func(report func(float64)) error {
		if len(image) == 0 {
			if l.cfg.Bootloader == nil {
				return &ConfigurationError{Field: "bootloader", Reason: "no image given and no default configured"}
			}

			var err error
			if image, err = l.cfg.Bootloader.Load(); err != nil {
				return err
			}
			if len(image) == 0 {
				return &ConfigurationError{Field: "bootloader", Reason: "image is empty"}
			}
		}

		total := float64(len(image))
		glog.Infof("Installing flash bootloader, %d bytes", len(image))

		return l.isp.WriteMemory(isp.MemoryBase, image, func(written int) {
			report(float64(written) / total)
		})
	})
}

// FlashGreeting jumps to the installed agent, waits for it to start and
// greets it.
func (l *Loader) FlashGreeting() error {
	return l.jobs.Run(job.FlashGreeting, func(report func(float64)) error {
		if err := l.isp.BootMemory(isp.MemoryBase); err != nil {
			return errors.Wrap(err, "boot flash bootloader")
		}

		report(0.5)
		l.cfg.Sleep(bootSettle)

		if err := l.isp.FlushInput(); err != nil {
			return err
		}

		return l.agent.Greeting()
	})
}

// ChangeBaudRate - Switch device and host to the configured line rate
func (l *Loader) ChangeBaudRate() error {
	return l.jobs.Run(job.ChangeBaudRate, func(func(float64)) error {
		glog.Infof("Changing baud rate to %d", l.cfg.BaudRate)
		return l.agent.ChangeBaudRate(l.cfg.BaudRate)
	})
}

// InitializeFlash - Select the flash chip profile
func (l *Loader) InitializeFlash(chip uint32) error {
	return l.jobs.Run(job.InitializeFlash, func(func(float64)) error {
		return l.agent.InitializeFlash(chip)
	})
}

// FlashFirmware prepares and writes every chunk, in order. Progress spans
// all chunks by bytes.
func (l *Loader) FlashFirmware(chunks ...firmware.Chunk) error {
	return l.jobs.Run(job.FlashFirmware, func(report func(float64)) error {
		if len(chunks) == 0 {
			return &ConfigurationError{Field: "firmware", Reason: "nothing to flash"}
		}

		glog.Infof("Flashing %d chunks, %d bytes of firmware", len(chunks), firmware.Size(chunks))

		packs := make([][]byte, len(chunks))
		total := 0

		for i, c := range chunks {
			pack, err := firmware.Prepare(c)
			if err != nil {
				return errors.Wrapf(err, "prepare chunk at 0x%08X", c.Address)
			}

			packs[i] = pack
			total += len(pack)
		}

		done := 0
		for i, c := range chunks {
			glog.Infof("Writing %d bytes at 0x%08X", len(packs[i]), c.Address)

			err := l.agent.WriteFlash(c.Address, packs[i], func(written int) {
				report(float64(done+written) / float64(total))
			})
			if err != nil {
				return err
			}

			done += len(packs[i])
		}

		return nil
	})
}

// Reboot - Reset the board into the flashed application
func (l *Loader) Reboot() error {
	return l.jobs.Run(job.Reboot, func(func(float64)) error {
		return l.isp.Reboot(l.board)
	})
}
