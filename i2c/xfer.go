package i2c

import (
	"tinygo.org/x/drivers"

	"maplebus-go/errcode"
	"maplebus-go/x/timex"
)

// MsgFlag modifies how one Message is addressed and moved.
type MsgFlag uint16

const (
	// MsgRead receives into Data instead of transmitting from it.
	MsgRead MsgFlag = 1 << 0
	// MsgTenBitAddr addresses the slave with a 10-bit address.
	MsgTenBitAddr MsgFlag = 1 << 1
)

// Message is one addressed segment of a transfer. Consecutive messages
// are joined by repeated starts; only the final message ends with a stop.
type Message struct {
	Addr  uint16
	Flags MsgFlag
	Data  []byte
	// Xferred counts bytes actually moved, useful after a partial failure.
	Xferred int
}

// DefaultTimeoutMillis is applied when MasterXfer is called with a zero
// timeout.
const DefaultTimeoutMillis = 100

// MasterXfer runs the messages as one bus transaction. The timeout is a
// single budget in milliseconds covering the whole transaction, not a
// per-byte limit. On any failure the device issues a stop, latches the
// fault flags (none for a plain timeout), and enters StateError; the
// next MasterXfer call clears both and tries again.
func (d *Device) MasterXfer(msgs []Message, timeoutMillis uint32) error {
	switch d.state {
	case StateBusy:
		return errcode.New(errcode.Busy, "i2c.MasterXfer")
	case StateDisabled:
		return errcode.New(errcode.NotEnabled, "i2c.MasterXfer")
	}
	if timeoutMillis == 0 {
		timeoutMillis = DefaultTimeoutMillis
	}
	d.faults = 0
	d.state = StateBusy
	deadline := d.timer.Ticks() + timeoutMillis

	for i := range msgs {
		msg := &msgs[i]
		last := i == len(msgs)-1
		if err := d.start(msg, deadline); err != nil {
			return d.fail(err)
		}
		if msg.Flags&MsgRead != 0 {
			if err := d.receive(msg, last, deadline); err != nil {
				return d.fail(err)
			}
		} else {
			if err := d.transmit(msg, deadline); err != nil {
				return d.fail(err)
			}
			if last {
				d.regs.WriteCR1(d.regs.ReadCR1() | CR1STOP)
			}
		}
	}
	// The stop is only requested above; hardware keeps CR1STOP set until
	// the condition has actually been put on the bus.
	if err := d.waitCR1Clear(CR1START|CR1STOP|CR1PEC, deadline, "i2c.stop"); err != nil {
		return d.fail(err)
	}
	d.state = StateXferDone
	return nil
}

// Tx implements drivers.I2C: an optional write followed by an optional
// read, joined by a repeated start.
func (d *Device) Tx(addr uint16, w, r []byte) error {
	msgs := make([]Message, 0, 2)
	if len(w) > 0 || len(r) == 0 {
		msgs = append(msgs, Message{Addr: addr, Data: w})
	}
	if len(r) > 0 {
		msgs = append(msgs, Message{Addr: addr, Flags: MsgRead, Data: r})
	}
	return d.MasterXfer(msgs, DefaultTimeoutMillis)
}

var _ drivers.I2C = (*Device)(nil)

// start generates a (repeated) start condition and addresses the slave,
// leaving the bus ready for the message's data phase.
func (d *Device) start(msg *Message, deadline uint32) error {
	// A previous stop must finish shifting out first.
	if err := d.waitCR1Clear(CR1START|CR1STOP|CR1PEC, deadline, "i2c.start"); err != nil {
		return err
	}
	if msg.Flags&MsgRead != 0 {
		d.regs.WriteCR1(d.regs.ReadCR1() | CR1ACK)
	}
	d.regs.WriteCR1(d.regs.ReadCR1() | CR1START)
	if err := d.waitSR1(SR1SB, deadline, "i2c.start"); err != nil {
		return err
	}
	if err := d.sendAddress(msg, deadline); err != nil {
		return err
	}
	if err := d.waitSR1(SR1ADDR, deadline, "i2c.start"); err != nil {
		return err
	}
	// Reading SR2 after SR1 clears ADDR and releases the clock.
	_ = d.regs.ReadSR2()
	return nil
}

// sendAddress writes the address phase for msg. 7-bit addresses are one
// byte; 10-bit addresses use the 0b11110xx header, and 10-bit reads
// re-address with a repeated start so the direction bit can flip.
func (d *Device) sendAddress(msg *Message, deadline uint32) error {
	var dir uint32
	if msg.Flags&MsgRead != 0 {
		dir = 1
	}
	if msg.Flags&MsgTenBitAddr == 0 {
		d.regs.WriteDR(uint32(msg.Addr)<<1 | dir)
		return nil
	}
	header := uint32(0xF0) | uint32(msg.Addr>>8&0x3)<<1
	d.regs.WriteDR(header)
	if err := d.waitSR1(SR1ADD10, deadline, "i2c.address"); err != nil {
		return err
	}
	d.regs.WriteDR(uint32(msg.Addr & 0xFF))
	if dir == 0 {
		return nil
	}
	if err := d.waitSR1(SR1ADDR, deadline, "i2c.address"); err != nil {
		return err
	}
	_ = d.regs.ReadSR2()
	d.regs.WriteCR1(d.regs.ReadCR1() | CR1START)
	if err := d.waitSR1(SR1SB, deadline, "i2c.address"); err != nil {
		return err
	}
	d.regs.WriteDR(header | 1)
	return nil
}

// transmit shifts out msg.Data. A zero-length message is a pure address
// probe and completes at the address phase.
func (d *Device) transmit(msg *Message, deadline uint32) error {
	for i := range msg.Data {
		if err := d.waitSR1(SR1TXE, deadline, "i2c.transmit"); err != nil {
			return err
		}
		d.regs.WriteDR(uint32(msg.Data[i]))
		msg.Xferred++
	}
	if len(msg.Data) > 0 {
		if err := d.waitSR1(SR1BTF, deadline, "i2c.transmit"); err != nil {
			return err
		}
	}
	return nil
}

// receive shifts in msg.Data. Before the final byte of the final message
// the acknowledge is withheld and the stop is programmed, so the slave
// sees NACK then stop and releases the bus.
func (d *Device) receive(msg *Message, last bool, deadline uint32) error {
	n := len(msg.Data)
	for i := 0; i < n; i++ {
		if last && i == n-1 {
			d.regs.WriteCR1(d.regs.ReadCR1()&^uint32(CR1ACK) | CR1STOP)
		}
		if err := d.waitSR1(SR1RXNE, deadline, "i2c.receive"); err != nil {
			return err
		}
		msg.Data[i] = byte(d.regs.ReadDR())
		msg.Xferred++
	}
	return nil
}

// fail aborts the transaction: issue a stop so the bus is released,
// clear the latched status flags, and park the device in StateError.
func (d *Device) fail(err error) error {
	d.regs.WriteCR1(d.regs.ReadCR1() | CR1STOP)
	d.regs.WriteSR1(0)
	d.state = StateError
	return err
}

// waitSR1 polls SR1 until flag is set. Fault flags take priority over
// both the awaited flag and the deadline so a fault is never reported as
// a timeout.
func (d *Device) waitSR1(flag uint32, deadline uint32, op string) error {
	for {
		sr1 := d.regs.ReadSR1()
		if f := Fault(sr1) & faultMask; f != 0 {
			d.faults |= f
			return errcode.Wrap(errcode.Protocol, op, f.Code())
		}
		if sr1&flag != 0 {
			return nil
		}
		if timex.After(d.timer.Ticks(), deadline) {
			return errcode.New(errcode.Timeout, op)
		}
	}
}

// waitCR1Clear polls CR1 until none of the mask bits remain set.
func (d *Device) waitCR1Clear(mask uint32, deadline uint32, op string) error {
	for d.regs.ReadCR1()&mask != 0 {
		if timex.After(d.timer.Ticks(), deadline) {
			return errcode.New(errcode.Timeout, op)
		}
	}
	return nil
}
