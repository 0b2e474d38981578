package isp

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// TimeoutError - No byte arrived within the read timeout
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("serial read timeout after %v", e.After)
}

// Timeout lets net-style callers test for timeouts.
func (e *TimeoutError) Timeout() bool {
	return true
}

// IsTimeout reports whether err was caused by a read timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// RejectionError - The device answered with a non-success error code
type RejectionError struct {
	Operation Operation
	Code      ErrorCode
	Attempts  int
}

func (e *RejectionError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%v rejected: %v (0x%02X) after %d attempts", e.Operation, e.Code, byte(e.Code), e.Attempts)
	}
	return fmt.Sprintf("%v rejected: %v (0x%02X)", e.Operation, e.Code, byte(e.Code))
}

// ShortResponseError - Response frame too short to carry operation and status
type ShortResponseError struct {
	Length int
}

func (e *ShortResponseError) Error() string {
	return fmt.Sprintf("response too short: got %d bytes, minimum is 2", e.Length)
}

// UnsupportedBoardError - No pulse sequence exists for the board
type UnsupportedBoardError struct {
	Board Board
}

func (e *UnsupportedBoardError) Error() string {
	return fmt.Sprintf("unsupported board %v: no reset sequence", e.Board)
}
