// Package hal probes for and initializes the (very small) set of hardware
// devices this kernel talks to directly, and exposes the resulting console
// as the sink for all kernel logging.
package hal

import (
	"bytes"
	"riscvkernel/device"
	"riscvkernel/kernel/kfmt"
	"sort"
)

var (
	activeConsole device.Driver
	strBuf        bytes.Buffer
)

// ActiveConsole returns the driver that was selected as the kernel's console
// during DetectHardware, or nil if none was found.
func ActiveConsole() device.Driver {
	return activeConsole
}

// DetectHardware probes for hardware devices in DetectOrder and initializes
// the driver for each one that responds. The first driver that also
// implements io.Writer becomes the kernel's console: kfmt output is
// redirected to it and any output buffered before this point is flushed.
func DetectHardware() {
	drivers := device.DriverList()
	sort.Sort(drivers)
	probe(drivers)
}

func probe(driverInfoList device.DriverInfoList) {
	w := kfmt.PrefixWriter{Sink: kfmt.GetOutputSink()}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		onDriverInit(drv)
	}
}

// onDriverInit records drv as the active console the first time an
// io.Writer-capable driver is initialized, redirecting kfmt output to it.
func onDriverInit(drv device.Driver) {
	if activeConsole != nil {
		return
	}

	if w, ok := drv.(interface {
		Write([]byte) (int, error)
	}); ok {
		activeConsole = drv
		kfmt.SetOutputSink(w)
	}
}
