package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/janch32/kendryte-flash/job"
	"github.com/janch32/kendryte-flash/loader"
)

// Bar resolution, progress is a fraction
const barMax = 1000

type flashSettings struct {
	Port       string
	BaudRate   int
	Firmware   string
	Bootloader string
	Chip       uint32
	Retries    int
	Timeout    time.Duration
}

// chipID checks that a -chip value fits the 32-bit address field.
func chipID(v uint) (uint32, error) {
	if uint64(v) > math.MaxUint32 {
		return 0, errors.Errorf("chip %d out of range, maximum is %d", v, uint32(math.MaxUint32))
	}
	return uint32(v), nil
}

// Flash runs a flashing session and renders one progress bar per stage.
// Interrupting stops the session before the next stage.
func Flash(s flashSettings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	feed := &job.Feed{}
	rendered := make(chan struct{})

	go func() {
		defer close(rendered)
		render(feed.Subscribe(16))
	}()

	start := time.Now()
	fmt.Println("Flashing...")

	err := loader.Run(ctx, loader.Request{
		Device:     s.Port,
		BaudRate:   s.BaudRate,
		Firmware:   s.Firmware,
		Bootloader: s.Bootloader,
		ChipID:     s.Chip,
	},
		loader.WithRetries(s.Retries),
		loader.WithReadTimeout(s.Timeout),
		loader.WithSink(feed),
	)

	feed.Close()
	<-rendered

	if err != nil {
		return err
	}

	fmt.Printf("Flash completed in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// render draws updates until the channel is closed.
func render(updates <-chan job.Update) {
	var bar *progressbar.ProgressBar
	current := job.JobItemType(-1)

	for u := range updates {
		if u.Item != current {
			current = u.Item
			bar = progressbar.NewOptions(barMax,
				progressbar.OptionSetDescription(fmt.Sprintf("%-24s", u.Item)),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetWidth(30),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
			)
		}

		if !u.Status.Done() {
			bar.Set(int(u.Status.Progress * barMax))
			continue
		}

		if u.Status.RunningStatus == job.Finished {
			bar.Finish()
		} else {
			fmt.Fprintln(os.Stderr)
			glog.Errorf("%v failed at %.0f%%", u.Item, u.Status.Progress*100)
		}
	}
}
