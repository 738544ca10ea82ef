// Package diag prints FlexPWM register snapshots. It only reads through the
// core accessors and does nothing unless enabled at runtime.
package diag

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"eflexpwm/core"
)

var enabled atomic.Bool

func SetEnabled(v bool) { enabled.Store(v) }

func Enabled() bool { return enabled.Load() }

// nameWidth fits the longest register name plus a space
const nameWidth = 8

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) write(s string) {
	if d.err != nil {
		return
	}
	_, d.err = io.WriteString(d.w, s)
}

func (d *dumper) regs(indent string, regs []core.RegisterValue) {
	for _, r := range regs {
		d.write(indent)
		d.write(r.Name)
		for i := len(r.Name); i < nameWidth; i++ {
			d.write(" ")
		}
		d.write(core.Hex16(r.Value))
		d.write("\n")
	}
}

// DumpTimer writes the module registers of t followed by the registers of
// each populated submodule:
//
//	pwm2
//	  OUTEN   0x0500
//	  ...
//	  sm0
//	    CTRL2   0x2000
func DumpTimer(w io.Writer, t *core.Timer) error {
	if !Enabled() || t == nil {
		return nil
	}
	d := &dumper{w: w}
	d.write("pwm" + core.Utoa(uint32(t.Index())+1) + "\n")
	d.regs("  ", t.Registers())
	for sm := uint8(0); sm < core.NumSubmodules; sm++ {
		if s := t.SubModule(sm); s != nil {
			d.write("  sm" + core.Utoa(uint32(sm)) + " " + s.State().String() + "\n")
			d.regs("    ", s.Registers())
		}
	}
	return errors.Wrapf(d.err, "dump pwm%d", t.Index()+1)
}

// DumpSubModule writes the registers of one submodule
func DumpSubModule(w io.Writer, s *core.SubModule) error {
	if !Enabled() || s == nil {
		return nil
	}
	d := &dumper{w: w}
	d.write("pwm" + core.Utoa(uint32(s.TimerIndex())+1) + ".sm" + core.Utoa(uint32(s.Index())) + "\n")
	d.regs("  ", s.Registers())
	return errors.Wrapf(d.err, "dump pwm%d.sm%d", s.TimerIndex()+1, s.Index())
}

// Lookup returns the value of register name in regs
func Lookup(regs []core.RegisterValue, name string) (uint16, bool) {
	for _, r := range regs {
		if r.Name == name {
			return r.Value, true
		}
	}
	return 0, false
}
