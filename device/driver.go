// Package device provides the driver registration mechanism used by the HAL
// to discover and initialize the (small) set of hardware devices this kernel
// talks to directly.
package device

import (
	"io"
	"riscvkernel/kernel"
)

// DetectOrder controls the relative order in which registered drivers are
// probed. Lower values are probed first.
type DetectOrder uint8

const (
	// DetectOrderEarly is used by drivers that must be probed before
	// anything else (e.g. the UART console, since every other subsystem
	// wants to be able to log through it).
	DetectOrderEarly DetectOrder = iota

	// DetectOrderDefault is used by drivers with no particular ordering
	// requirement.
	DetectOrderDefault

	// DetectOrderLast is used by drivers that must be probed after
	// everything else.
	DetectOrderLast
)

// Driver is implemented by all drivers managed by the HAL.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major, minor, patch uint16)

	// DriverInit initializes the device driver. If the driver needs to
	// log output during init, it should use the supplied io.Writer via
	// kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn scans for the presence of a particular piece of hardware and
// returns a Driver for it, or nil if the hardware is not present.
type ProbeFn func() Driver

// DriverInfo pairs a ProbeFn with the order it should be probed in.
type DriverInfo struct {
	Order DetectOrder
	Probe ProbeFn
}

// DriverInfoList implements sort.Interface, ordering by DetectOrder.
type DriverInfoList []*DriverInfo

func (l DriverInfoList) Len() int           { return len(l) }
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }
func (l DriverInfoList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

var registeredDrivers DriverInfoList

// RegisterDriver registers a driver probe with the device subsystem so that
// the HAL will probe for it during DetectHardware.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered driver probes.
func DriverList() DriverInfoList {
	return registeredDrivers
}
