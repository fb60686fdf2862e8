package transport

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Ports lists MIDI ports through the rtmidi driver.
type Ports struct {
	drv *rtmididrv.Driver
}

func OpenPorts() (*Ports, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &Ports{drv: drv}, nil
}

func (p *Ports) Close() {
	p.drv.Close()
}

// Names returns the input and output port names.
func (p *Ports) Names() (ins, outs []string, err error) {
	in, err := p.drv.Ins()
	if err != nil {
		return nil, nil, fmt.Errorf("midi: list inputs: %w", err)
	}
	for _, port := range in {
		ins = append(ins, port.String())
	}
	out, err := p.drv.Outs()
	if err != nil {
		return nil, nil, fmt.Errorf("midi: list outputs: %w", err)
	}
	for _, port := range out {
		outs = append(outs, port.String())
	}
	return ins, outs, nil
}

// FindInput returns the first input whose name contains pattern, ignoring
// case and skipping virtual ports.
func (p *Ports) FindInput(pattern string) (drivers.In, error) {
	ins, err := p.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("midi: list inputs: %w", err)
	}
	for _, in := range ins {
		if !excluded(in.String()) && containsCI(in.String(), pattern) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("midi: input %q not found", pattern)
}
