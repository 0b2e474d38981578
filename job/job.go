// Package job tracks the lifecycle and progress of the stages of a
// flashing session and publishes every change as an immutable Update.
package job

import "fmt"

// JobItemType - Stage of a flashing session
type JobItemType int

const (
	DetectBoard JobItemType = iota
	BootToISPMode
	Greeting
	InstallFlashBootloader
	FlashGreeting
	ChangeBaudRate
	InitializeFlash
	FlashFirmware
	Reboot

	itemCount int = iota
)

var itemNames = [...]string{
	DetectBoard:            "DetectBoard",
	BootToISPMode:          "BootToISPMode",
	Greeting:               "Greeting",
	InstallFlashBootloader: "InstallFlashBootloader",
	FlashGreeting:          "FlashGreeting",
	ChangeBaudRate:         "ChangeBaudRate",
	InitializeFlash:        "InitializeFlash",
	FlashFirmware:          "FlashFirmware",
	Reboot:                 "Reboot",
}

func (t JobItemType) String() string {
	if t < 0 || int(t) >= itemCount {
		return fmt.Sprintf("JobItemType(%d)", int(t))
	}
	return itemNames[t]
}

// Types - Every stage in session order
func Types() []JobItemType {
	types := make([]JobItemType, itemCount)
	for i := range types {
		types[i] = JobItemType(i)
	}
	return types
}

// RunningStatus - Lifecycle state of a stage
type RunningStatus int

const (
	NotStarted RunningStatus = iota
	Running
	Finished
	Error
)

func (s RunningStatus) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Finished:
		return "Finished"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("RunningStatus(%d)", int(s))
	}
}

// Status - Snapshot of one stage
type Status struct {
	RunningStatus RunningStatus
	Progress      float64 // 0.0 .. 1.0
}

// Done reports whether the stage reached a terminal state.
func (s Status) Done() bool {
	return s.RunningStatus == Finished || s.RunningStatus == Error
}

// Update - Status of Item after a transition or progress report
type Update struct {
	Item   JobItemType
	Status Status
}

func (u Update) String() string {
	return fmt.Sprintf("%v %v %.1f%%", u.Item, u.Status.RunningStatus, u.Status.Progress*100)
}

// Sink receives every Update synchronously, on the stage's goroutine.
type Sink interface {
	Notify(u Update)
}

// SinkFunc - Plain function as a Sink
type SinkFunc func(u Update)

// Notify - Sink
func (f SinkFunc) Notify(u Update) {
	f(u)
}
