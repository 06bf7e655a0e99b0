package sds1104x

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFlags(t *testing.T) {
	defined := []Status{
		StatusSignalAcquired,
		StatusScreenDumpDone,
		StatusReturnToLocal,
		StatusBlockTransferTimeout,
		StatusSegmentAcquired,
		StatusStorageFull,
		StatusStorageExchanged,
		StatusProcessingDoneA,
		StatusProcessingDoneB,
		StatusProcessingDoneC,
		StatusProcessingDoneD,
		StatusPassFail,
		StatusTriggerReady,
	}

	// Each flag is a distinct single bit, testable independently of the
	// others.
	seen := StatusNone
	for _, f := range defined {
		assert.NotZero(t, f)
		assert.Zero(t, f&(f-1), "flag %v is not a single bit", f)
		assert.Zero(t, seen&f, "flag %v overlaps another flag", f)
		seen |= f
	}
	assert.Equal(t, statusMask, seen)

	combined := StatusSignalAcquired | StatusTriggerReady
	assert.NotEqual(t, StatusNone, combined)
	assert.True(t, combined.Has(StatusSignalAcquired))
	assert.True(t, combined.Has(StatusTriggerReady))
	assert.False(t, combined.Has(StatusScreenDumpDone))
	assert.True(t, combined != StatusNone)
}

func TestStatusReservedBitsExcluded(t *testing.T) {
	for _, bit := range []int{5, 14, 15} {
		assert.Zero(t, statusMask&(1<<bit), "bit %d must not be defined", bit)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "none", StatusNone.String())
	assert.Equal(t, "signal acquired", StatusSignalAcquired.String())
	assert.Equal(t, "signal acquired|trigger ready",
		(StatusSignalAcquired | StatusTriggerReady).String())
	assert.Contains(t, Status(1<<14).String(), "undefined(0x4000)")
}
