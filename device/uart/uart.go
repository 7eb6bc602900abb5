// Package uart implements the device.Driver for the memory-mapped UART that
// this kernel uses as its sole console: kernel diagnostics, the shell
// prompt, and every program's standard output and input all flow through a
// single instance of this driver.
package uart

import (
	"io"
	"riscvkernel/device"
	"riscvkernel/kernel"
	"unsafe"
)

// baseAddr is the byte-addressable base of the UART's MMIO register block on
// QEMU's virt machine.
const baseAddr = uintptr(0x10000000)

const (
	regTxRx   = 0 // writes transmit a byte; reads return a received byte
	regStatus = 5 // bit 0 indicates a received byte is waiting
)

const statusRXReady = 1 << 0

// Console is the UART console driver. A single instance is registered with
// the device package and becomes the kernel's active console once probed.
type Console struct {
	base uintptr
}

// New returns a Console driver for the UART at baseAddr.
func New() *Console {
	return newAt(baseAddr)
}

// newAt returns a Console driver for a UART mapped at base. Used directly by
// tests to point the driver at an ordinary byte slice instead of real MMIO.
func newAt(base uintptr) *Console {
	return &Console{base: base}
}

// DriverName returns the name of this driver.
func (c *Console) DriverName() string { return "uart_console" }

// DriverVersion returns the version of this driver.
func (c *Console) DriverVersion() (uint16, uint16, uint16) { return 0, 1, 0 }

// DriverInit initializes the driver. The UART on QEMU's virt machine requires
// no setup; this exists to satisfy the device.Driver contract.
func (c *Console) DriverInit(io.Writer) *kernel.Error {
	return nil
}

// Write transmits each byte of p to the UART, one register write at a time,
// and never returns a short write or an error: the UART is always ready to
// accept a byte to transmit.
func (c *Console) Write(p []byte) (int, error) {
	for _, b := range p {
		c.reg(regTxRx).write(b)
	}
	return len(p), nil
}

// WriteByte transmits a single byte to the UART.
func (c *Console) WriteByte(b byte) error {
	c.reg(regTxRx).write(b)
	return nil
}

// ReadByte returns the next received byte, blocking until one is available.
// The shell's line editor is the sole caller.
func (c *Console) ReadByte() (byte, error) {
	for !c.rxReady() {
	}
	return c.reg(regTxRx).read(), nil
}

func (c *Console) rxReady() bool {
	return c.reg(regStatus).read()&statusRXReady != 0
}

func (c *Console) reg(offset uintptr) mmioByte {
	return mmioByte(c.base + offset)
}

// mmioByte is the address of a single byte-wide memory-mapped register.
type mmioByte uintptr

func (r mmioByte) read() byte {
	return *(*byte)(unsafe.Pointer(uintptr(r)))
}

func (r mmioByte) write(v byte) {
	*(*byte)(unsafe.Pointer(uintptr(r))) = v
}

// Probe always reports the UART as present: QEMU's virt machine maps it
// unconditionally, so there is nothing to detect.
func Probe() device.Driver {
	return New()
}

func init() {
	device.RegisterDriver(&device.DriverInfo{Order: device.DetectOrderEarly, Probe: Probe})
}
