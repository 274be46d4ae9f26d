// Package system probes the host for resource-related defaults.
package system

import (
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Bruno02468/gifception/internal/logger"
)

// Every RGBA pixel costs four bytes.
const bytesPerPixel = 4

// MinPixelBudget keeps the automatic budget usable on small machines:
// room for a 4096x4096 image and its working copies.
const MinPixelBudget int64 = 1 << 24

// AutoMaxPixels derives a scaling budget from available memory. The
// builder holds a handful of image copies in flight at once, so the
// budget is a quarter of the pixels that would fit in memory right now.
func AutoMaxPixels() (int64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}

	budget := int64(vm.Available) / 4 / bytesPerPixel
	if budget < MinPixelBudget {
		budget = MinPixelBudget
	}
	return budget, nil
}

// RaiseFileLimit lifts the open file limit so parallel frame workers do
// not trip over it. Returns the limit now in effect.
func RaiseFileLimit() uint64 {
	var rl syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
		logger.Log.Debugf("could not read the open file limit: %v", err)
		return 0
	}

	const want = 2048
	if rl.Cur >= want {
		return rl.Cur
	}

	old := rl.Cur
	rl.Cur = want
	if rl.Cur > rl.Max {
		rl.Cur = rl.Max
	}
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
		logger.Log.Debugf("could not raise the open file limit: %v", err)
		return old
	}
	return rl.Cur
}
