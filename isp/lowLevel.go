package isp

import (
	"time"

	"github.com/albenik/go-serial/v2"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/janch32/kendryte-flash/slip"
)

// Port - Serial line as used by Instance
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetDTR(level bool) error
	SetRTS(level bool) error
	ResetInputBuffer() error
}

// Opener opens device at baudRate. A Read that sees no data within
// readTimeout must return 0 bytes and no error.
type Opener func(device string, baudRate int, readTimeout time.Duration) (Port, error)

// OpenSerial - Opener for a real serial port, 8N1
//
// readTimeout bounds the wait for the first byte of a Read only, so a Read
// returns as soon as anything arrived instead of waiting to fill the buffer.
func OpenSerial(device string, baudRate int, readTimeout time.Duration) (Port, error) {
	conn, err := serial.Open(
		device,
		serial.WithBaudrate(baudRate),
		serial.WithDataBits(8),
		serial.WithParity(serial.NoParity),
		serial.WithStopBits(serial.OneStopBit),
	)

	if err != nil {
		return nil, err
	}

	if err := conn.SetFirstByteReadTimeout(uint32(readTimeout / time.Millisecond)); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "set read timeout")
	}

	return conn, nil
}

// Config - Transport settings of an Instance
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
	Attempts    int // Sends per packet when the device rejects it
	Open        Opener
	Sleep       func(time.Duration)
}

// Instance - Connection to the ROM bootloader (and later the flash agent)
// over one serial line. One request/response exchange at a time.
type Instance struct {
	conn  Port
	cfg   Config
	rxBuf []byte
	rxPos int
	rxLen int
}

// New opens the serial line and returns a ready Instance.
func New(cfg Config) (*Instance, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = InitialBaudRate
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Open == nil {
		cfg.Open = OpenSerial
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}

	conn, err := cfg.Open(cfg.Device, cfg.BaudRate, cfg.ReadTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Device)
	}

	b := &Instance{
		conn:  conn,
		cfg:   cfg,
		rxBuf: make([]byte, 256),
	}

	if err := b.FlushInput(); err != nil {
		conn.Close()
		return nil, err
	}

	return b, nil
}

// Close - Release the serial line
func (b *Instance) Close() error {
	if b.conn == nil {
		return nil
	}

	err := b.conn.Close()
	b.conn = nil
	return err
}

// BaudRate - Current line rate
func (b *Instance) BaudRate() int {
	return b.cfg.BaudRate
}

// Write frames body and sends it.
func (b *Instance) Write(body []byte) error {
	if b.conn == nil {
		return errors.New("serial port is closed")
	}

	frame := slip.Encode(body)
	glog.V(2).Infof("tx % X", frame)

	_, err := b.conn.Write(frame)
	return errors.Wrap(err, "serial write")
}

// ReadByte returns the next received byte or a *TimeoutError.
func (b *Instance) ReadByte() (byte, error) {
	if b.rxPos == b.rxLen {
		if b.conn == nil {
			return 0, errors.New("serial port is closed")
		}

		n, err := b.conn.Read(b.rxBuf)
		if err != nil {
			return 0, errors.Wrap(err, "serial read")
		}

		if n == 0 {
			return 0, &TimeoutError{After: b.cfg.ReadTimeout}
		}

		b.rxPos = 0
		b.rxLen = n
	}

	c := b.rxBuf[b.rxPos]
	b.rxPos++
	return c, nil
}

// Receive reads one frame and returns its unstuffed body.
func (b *Instance) Receive() ([]byte, error) {
	body, err := slip.Decode(b, func(c byte) {
		glog.Warningf("Unexpected byte before frame: 0x%02X %q", c, c)
	})

	if err != nil {
		return nil, err
	}

	glog.V(2).Infof("rx % X", body)
	return body, nil
}

// Exchange sends body and decodes the single response frame.
func (b *Instance) Exchange(body []byte) (*Response, error) {
	if err := b.Write(body); err != nil {
		return nil, err
	}

	frame, err := b.Receive()
	if err != nil {
		return nil, err
	}

	return ParseResponse(frame)
}

// Send transmits p without waiting for a response.
func (b *Instance) Send(p Packet) error {
	glog.V(1).Infof("%v addr=0x%08X len=%d (no response)", p.Operation, p.Address, len(p.Payload))
	return b.Write(p.Bytes())
}

// Request sends p once and fails with *RejectionError unless the device
// accepts it.
func (b *Instance) Request(p Packet) (*Response, error) {
	resp, err := b.Exchange(p.Bytes())
	if err != nil {
		return nil, err
	}

	if !resp.Code.Success() {
		return nil, &RejectionError{Operation: p.Operation, Code: resp.Code, Attempts: 1}
	}

	return resp, nil
}

// Transact sends p and resends the identical bytes while the device
// rejects it, up to the configured number of attempts. Transport and
// framing failures are never retried.
func (b *Instance) Transact(p Packet) (*Response, error) {
	raw := p.Bytes()
	code := RetDefault

	for attempt := 1; attempt <= b.cfg.Attempts; attempt++ {
		glog.V(1).Infof("%v addr=0x%08X len=%d attempt=%d", p.Operation, p.Address, len(p.Payload), attempt)

		resp, err := b.Exchange(raw)
		if err != nil {
			return nil, err
		}

		if resp.Code.Success() {
			return resp, nil
		}

		code = resp.Code
		glog.Warningf("%v at 0x%08X rejected (%v), attempt %d/%d", p.Operation, p.Address, code, attempt, b.cfg.Attempts)
	}

	return nil, &RejectionError{Operation: p.Operation, Code: code, Attempts: b.cfg.Attempts}
}

// FlushInput - Drop everything received so far
func (b *Instance) FlushInput() error {
	b.rxPos = 0
	b.rxLen = 0

	if b.conn == nil {
		return nil
	}
	return errors.Wrap(b.conn.ResetInputBuffer(), "flush input")
}

// SetBaudRate closes the port and reopens it at rate after a short settle
// delay. The device must already be switching to the same rate.
func (b *Instance) SetBaudRate(rate int) error {
	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			return errors.Wrap(err, "close before baud rate change")
		}
		b.conn = nil
	}

	b.cfg.Sleep(baudRateSettle)

	conn, err := b.cfg.Open(b.cfg.Device, rate, b.cfg.ReadTimeout)
	if err != nil {
		return errors.Wrapf(err, "reopen %s at %d baud", b.cfg.Device, rate)
	}

	b.conn = conn
	b.cfg.BaudRate = rate
	b.rxPos = 0
	b.rxLen = 0

	glog.V(1).Infof("Line rate switched to %d baud", rate)
	return nil
}

func (b *Instance) runSequence(steps []step) error {
	if b.conn == nil {
		return errors.New("serial port is closed")
	}

	for _, s := range steps {
		var err error

		switch s.pin {
		case pinDTR:
			err = b.conn.SetDTR(s.level)
		case pinRTS:
			err = b.conn.SetRTS(s.level)
		default:
			b.cfg.Sleep(s.hold)
		}

		if err != nil {
			return errors.Wrap(err, "set modem line")
		}
	}

	return nil
}

// Wake pulses the board's BOOT/RESET lines so the SoC restarts into the
// ROM ISP bootloader.
func (b *Instance) Wake(board Board) error {
	seq, ok := wakeSequences[board]
	if !ok {
		return &UnsupportedBoardError{Board: board}
	}

	glog.V(1).Infof("Entering ISP mode, %v sequence", board)
	if err := b.runSequence(seq); err != nil {
		return err
	}

	return b.FlushInput()
}

// Reboot pulses the board's RESET line so the flashed application starts.
// Nothing is expected back.
func (b *Instance) Reboot(board Board) error {
	seq, ok := rebootSequences[board]
	if !ok {
		return &UnsupportedBoardError{Board: board}
	}

	glog.V(1).Infof("Rebooting, %v sequence", board)
	return b.runSequence(seq)
}
