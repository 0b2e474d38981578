// Package terminal relays a console between the user and a board's UART.
package terminal

import (
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// DefaultBaudRate - Console rate of the K210 SDK applications
const DefaultBaudRate = 115200

// Open connects to port and relays stdin/stdout style streams until in
// ends.
func Open(port string, baudRate int, in io.Reader, out io.Writer) error {
	conn, err := serial.Open(port, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})

	if err != nil {
		return errors.Wrapf(err, "open terminal on %s", port)
	}

	glog.Infof("Terminal on %s at %d baud", port, baudRate)
	return Relay(conn, in, out)
}

// Relay copies device output to out and in to the device. When in reaches
// EOF conn is closed and Relay returns once the device side has stopped.
func Relay(conn io.ReadWriteCloser, in io.Reader, out io.Writer) error {
	done := make(chan struct{})

	go func() {
		defer close(done)
		readSerial(conn, out)
	}()

	err := writeSerial(conn, in)
	conn.Close()
	<-done

	return err
}

// Device output to out, until the port is closed
func readSerial(conn io.Reader, out io.Writer) {
	buffer := make([]byte, 100)

	for {
		n, err := conn.Read(buffer)
		if n > 0 {
			out.Write(buffer[:n])
		}

		if err != nil {
			if err != io.EOF {
				glog.V(1).Infof("Terminal read stopped: %v", err)
			}
			return
		}

		if n == 0 {
			return
		}
	}
}

// Input to the device, until EOF
func writeSerial(conn io.Writer, in io.Reader) error {
	buffer := make([]byte, 100)

	for {
		n, err := in.Read(buffer)
		if n > 0 {
			if _, werr := conn.Write(buffer[:n]); werr != nil {
				return errors.Wrap(werr, "terminal write")
			}
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "terminal input")
		}
	}
}
