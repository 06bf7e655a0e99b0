package sds1104x

import (
	"fmt"
	"strings"
)

// Status is the internal state change register (INR) of the oscilloscope,
// a bit field snapshot of instrument activity. Values are immutable; every
// read is a fresh query.
type Status uint16

const (
	StatusNone                 Status = 0
	StatusSignalAcquired       Status = 1 << 0  // A new signal has been acquired
	StatusScreenDumpDone       Status = 1 << 1  // A screen dump has terminated
	StatusReturnToLocal        Status = 1 << 2  // A return to the local state was detected
	StatusBlockTransferTimeout Status = 1 << 3  // A time-out occurred in a data block transfer
	StatusSegmentAcquired      Status = 1 << 4  // A segment of a sequence waveform has been acquired
	StatusStorageFull          Status = 1 << 6  // Storage media became full in AutoStore Fill mode
	StatusStorageExchanged     Status = 1 << 7  // A storage media exchange was detected
	StatusProcessingDoneA      Status = 1 << 8  // Waveform processing terminated in Trace A
	StatusProcessingDoneB      Status = 1 << 9  // Waveform processing terminated in Trace B
	StatusProcessingDoneC      Status = 1 << 10 // Waveform processing terminated in Trace C
	StatusProcessingDoneD      Status = 1 << 11 // Waveform processing terminated in Trace D
	StatusPassFail             Status = 1 << 12 // Pass/Fail test detected the desired outcome
	StatusTriggerReady         Status = 1 << 13 // Trigger is ready
)

// statusMask covers every defined bit; bits 5, 14 and 15 are always zero.
const statusMask = StatusSignalAcquired | StatusScreenDumpDone | StatusReturnToLocal |
	StatusBlockTransferTimeout | StatusSegmentAcquired | StatusStorageFull |
	StatusStorageExchanged | StatusProcessingDoneA | StatusProcessingDoneB |
	StatusProcessingDoneC | StatusProcessingDoneD | StatusPassFail | StatusTriggerReady

var statusNames = []struct {
	bit  Status
	name string
}{
	{StatusSignalAcquired, "signal acquired"},
	{StatusScreenDumpDone, "screen dump done"},
	{StatusReturnToLocal, "return to local"},
	{StatusBlockTransferTimeout, "block transfer timeout"},
	{StatusSegmentAcquired, "segment acquired"},
	{StatusStorageFull, "storage full"},
	{StatusStorageExchanged, "storage exchanged"},
	{StatusProcessingDoneA, "processing done A"},
	{StatusProcessingDoneB, "processing done B"},
	{StatusProcessingDoneC, "processing done C"},
	{StatusProcessingDoneD, "processing done D"},
	{StatusPassFail, "pass/fail matched"},
	{StatusTriggerReady, "trigger ready"},
}

// Has returns true if any bit of flag is set.
func (s Status) Has(flag Status) bool {
	return s&flag != 0
}

func (s Status) String() string {
	if s == StatusNone {
		return "none"
	}

	var names []string
	for _, f := range statusNames {
		if s&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	if undefined := s &^ statusMask; undefined != 0 {
		names = append(names, fmt.Sprintf("undefined(0x%04X)", uint16(undefined)))
	}

	return strings.Join(names, "|")
}
