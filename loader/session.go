package loader

import (
	"context"

	"github.com/golang/glog"
)

// Run flashes req in a fresh session. Options override the request's
// settings where both are given. The context is only checked between
// stages. The serial line is closed on every exit path.
func Run(ctx context.Context, req Request, opts ...Option) error {
	if err := req.Validate(); err != nil {
		return err
	}

	opts = append(req.options(), opts...)
	cfg := newConfig(opts)

	if cfg.Bootloader == nil {
		return &ConfigurationError{Field: "bootloader", Reason: "no flash bootloader image configured"}
	}

	bootloader, err := cfg.Bootloader.Load()
	if err != nil {
		return err
	}
	if len(bootloader) == 0 {
		return &ConfigurationError{Field: "bootloader", Reason: "image is empty"}
	}

	chunks, err := req.Chunks()
	if err != nil {
		return err
	}

	l, err := New(req.Device, opts...)
	if err != nil {
		return err
	}
	defer l.Close()

	stages := []func() error{
		l.DetectBoard,
		l.BootToISPMode,
		l.Greeting,
		func() error { return l.InstallFlashBootloader(bootloader) },
		l.FlashGreeting,
		l.ChangeBaudRate,
		func() error { return l.InitializeFlash(l.cfg.ChipID) },
		func() error { return l.FlashFirmware(chunks...) },
		l.Reboot,
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := stage(); err != nil {
			if item, ok := l.jobs.Current(); ok {
				glog.Errorf("%v failed: %v", item, err)
			}
			return err
		}
	}

	glog.Infof("Flashed %s on %v board", req.Firmware, l.board)
	return nil
}
