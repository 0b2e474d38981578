package loader

import (
	"time"

	"github.com/janch32/kendryte-flash/flashmode"
	"github.com/janch32/kendryte-flash/isp"
	"github.com/janch32/kendryte-flash/job"
)

// Config - Session settings, see the With* options
type Config struct {
	BaudRate    int    // Line rate used once the flash agent runs
	ChipID      uint32 // Flash chip profile for InitializeFlash
	ReadTimeout time.Duration
	Retries     int // Sends per rejected chunk
	Sink        job.Sink
	Bootloader  Asset
	Open        isp.Opener
	Sleep       func(time.Duration)
}

// Option - Functional option of New and Run
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		BaudRate:    isp.InitialBaudRate,
		ChipID:      flashmode.DefaultChip,
		ReadTimeout: isp.DefaultReadTimeout,
		Retries:     isp.DefaultAttempts,
		Open:        isp.OpenSerial,
		Sleep:       time.Sleep,
	}
}

func newConfig(opts []Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithBaudRate - Line rate to switch to in ChangeBaudRate
func WithBaudRate(rate int) Option {
	return func(c *Config) {
		c.BaudRate = rate
	}
}

// WithChipID - Flash chip profile
func WithChipID(chip uint32) Option {
	return func(c *Config) {
		c.ChipID = chip
	}
}

// WithReadTimeout - Serial read timeout, also the board absence signal
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = d
	}
}

// WithRetries - Maximum sends of a rejected chunk
func WithRetries(n int) Option {
	return func(c *Config) {
		c.Retries = n
	}
}

// WithSink - Receiver of every stage update
func WithSink(s job.Sink) Option {
	return func(c *Config) {
		c.Sink = s
	}
}

// WithBootloader - Flash agent image installed when none is passed
func WithBootloader(a Asset) Option {
	return func(c *Config) {
		c.Bootloader = a
	}
}

// WithOpener - Replace the serial port implementation
func WithOpener(o isp.Opener) Option {
	return func(c *Config) {
		c.Open = o
	}
}

// WithSleep - Replace time.Sleep for the settle delays
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Config) {
		c.Sleep = sleep
	}
}
