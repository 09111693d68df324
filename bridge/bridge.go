// Package bridge puts the pad readers and the bus emulator together.
//
// At start-up New decides once which kind of pad is attached: a Mega Drive
// pad if one answers the presence probe, NES/SNES pads otherwise.  Run then
// keeps two independent loops going until cancelled: the reader loop, which
// publishes a fresh snapshot per port every ReadInterval, and the bus
// emulator, which presents whatever snapshot is current.  The loops share
// nothing but the snapshot cells.
package bridge

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/clktmr/pcebridge/debug"
	"github.com/clktmr/pcebridge/drivers/genesispad"
	"github.com/clktmr/pcebridge/drivers/pcebus"
	"github.com/clktmr/pcebridge/drivers/snespad"
	"github.com/clktmr/pcebridge/drivers/status"
	"github.com/clktmr/pcebridge/drivers/telemetry"
	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/machine"
	"github.com/clktmr/pcebridge/pad"
	"github.com/clktmr/pcebridge/pio"
	"github.com/clktmr/pcebridge/timing"
)

// Source is the kind of pad found at start-up.
type Source uint8

const (
	SourceNone Source = iota
	SourceSNES
	SourceGenesis3
	SourceGenesis6
)

func (s Source) String() string {
	switch s {
	case SourceSNES:
		return "NES/SNES"
	case SourceGenesis3:
		return "three button Mega Drive"
	case SourceGenesis6:
		return "six button Mega Drive"
	}
	return "none"
}

// Scheme returns the status LED scheme for s.
func (s Source) Scheme() status.Scheme {
	switch s {
	case SourceSNES:
		return status.ShiftRegister
	case SourceGenesis3:
		return status.ThreeButton
	case SourceGenesis6:
		return status.SixButton
	}
	return status.None
}

const (
	DefaultReadInterval = 8 * time.Millisecond

	// DefaultSequencers is the number of state machines in one RP2040 PIO
	// block.
	DefaultSequencers = 4
)

type Config struct {
	Pins machine.Pins

	// ReadInterval is the time between two reads.  Zero means
	// DefaultReadInterval.
	ReadInterval time.Duration

	// Clock defaults to the system clock.
	Clock timing.Clock

	// Indicator shows the status animation, may be nil.
	Indicator status.Indicator

	// Telemetry receives a frame for every change of a snapshot, may be
	// nil.
	Telemetry io.Writer

	// Sequencers provides the state machine for the NES/SNES reader.  Nil
	// means a block of DefaultSequencers.
	Sequencers *pio.Block
}

type Bridge struct {
	cfg    Config
	source Source
	cells  [pcebus.Ports]pad.Cell

	bus     *pcebus.Emulator
	genesis *genesispad.Reader
	snes    *snespad.Reader

	anim *status.Animation
	tele *telemetry.Writer

	// set while Run drives the NES/SNES sequencer
	sequencing atomic.Bool
}

// New claims the lines of cfg.Pins from chip and selects the pad reader.
// Failing to set up the NES/SNES reader isn't an error: the bridge then
// presents released pads forever.
func New(chip gpio.Chip, cfg Config) (*Bridge, error) {
	if cfg.ReadInterval == 0 {
		cfg.ReadInterval = DefaultReadInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = timing.NewSystem()
	}
	if cfg.Sequencers == nil {
		cfg.Sequencers = pio.NewBlock(DefaultSequencers)
	}
	b := &Bridge{cfg: cfg}
	p := &cfg.Pins

	lines, err := gpio.Lines(chip, p.PCEEnable, p.PCESelect,
		p.PCEData[0], p.PCEData[1], p.PCEData[2], p.PCEData[3])
	if err != nil {
		return nil, fmt.Errorf("pad port: %w", err)
	}
	b.bus = pcebus.New(pcebus.Lines{
		Enable: lines[0],
		Select: lines[1],
		Data:   [4]gpio.Line{lines[2], lines[3], lines[4], lines[5]},
	}, &b.cells[0], &b.cells[1])
	if err := b.bus.Init(); err != nil {
		return nil, fmt.Errorf("pad port: %w", err)
	}

	if err := b.selectSource(chip); err != nil {
		return nil, err
	}
	glog.Infof("reading %s pads", b.source)

	b.anim = status.NewAnimation(cfg.Indicator, b.source.Scheme())
	if cfg.Telemetry != nil {
		b.tele = telemetry.NewWriter(cfg.Telemetry)
	}
	return b, nil
}

func (b *Bridge) selectSource(chip gpio.Chip) error {
	p := &b.cfg.Pins

	lines, err := gpio.Lines(chip, p.GenesisPower, p.GenesisSelect,
		p.GenesisUpZ, p.GenesisDownY, p.GenesisLeftX, p.GenesisRightMode,
		p.GenesisBA, p.GenesisCStart)
	if err != nil {
		return fmt.Errorf("DB9 port: %w", err)
	}
	genesis, err := genesispad.Init(genesispad.Pins{
		Power:     lines[0],
		Select:    lines[1],
		UpZ:       lines[2],
		DownY:     lines[3],
		LeftX:     lines[4],
		RightMode: lines[5],
		BA:        lines[6],
		CStart:    lines[7],
	}, b.cfg.Clock)
	if err != nil {
		return fmt.Errorf("DB9 port: %w", err)
	}
	if genesis.Present() {
		six, err := genesis.Detect()
		if err != nil {
			return fmt.Errorf("DB9 port: %w", err)
		}
		b.genesis = genesis
		b.source = SourceGenesis3
		if six {
			b.source = SourceGenesis6
		}
		return nil
	}

	lines, err = gpio.Lines(chip, p.NESClock, p.NESLatch, p.NESData, p.NESData2, p.NESPower)
	if err != nil {
		return fmt.Errorf("DB9 port: %w", err)
	}
	snes, err := snespad.Init(b.cfg.Sequencers, snespad.Pins{
		Clock: lines[0],
		Latch: lines[1],
		Data:  lines[2],
		Data2: lines[3],
		Power: lines[4],
	}, b.cfg.Clock)
	if err != nil {
		glog.Warningf("NES/SNES reader unavailable, presenting released pads: %v", err)
		b.source = SourceNone
		return nil
	}
	b.snes = snes
	b.source = SourceSNES
	return nil
}

func (b *Bridge) Source() Source { return b.source }

// Bus returns the bus emulator.  Use it to step the emulator when not
// calling Run.
func (b *Bridge) Bus() *pcebus.Emulator { return b.bus }

// Snapshot returns the snapshot currently presented on port.
func (b *Bridge) Snapshot(port int) pad.Buttons {
	return b.cells[port].Load()
}

// ReadOnce runs one reader cycle: read the pads, publish the snapshots,
// advance the status animation and record changes.  Unless Run is active,
// ReadOnce clocks out the NES/SNES frame itself.
func (b *Bridge) ReadOnce() {
	var ports [pcebus.Ports]pad.Buttons

	switch b.source {
	case SourceGenesis3, SourceGenesis6:
		s := b.genesis.Read()
		ports[0] = s.Buttons()
	case SourceSNES:
		if !b.sequencing.Load() {
			b.snes.Exec()
		}
		p1, p2, _ := b.snes.Poll()
		ports[0], ports[1] = p1.Buttons(), p2.Buttons()
	case SourceNone:
	default:
		debug.Unreachable("pad source")
	}

	for i, s := range ports {
		b.cells[i].Store(s)
		if b.tele != nil {
			if err := b.tele.Record(i, s); err != nil {
				glog.Warningf("telemetry disabled: %v", err)
				b.tele = nil
			}
		}
	}
	b.anim.Tick()
	if glog.V(2) {
		glog.Infof("port 0: %v, port 1: %v", ports[0], ports[1])
	}
}

// Run runs the reader loop and the bus emulator until ctx is done.  It
// returns once both have stopped.
func (b *Bridge) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.bus.Run(ctx)
	})
	if b.snes != nil {
		b.sequencing.Store(true)
		g.Go(func() error {
			defer b.sequencing.Store(false)
			return b.snes.Run(ctx)
		})
	}
	g.Go(func() error {
		for ctx.Err() == nil {
			b.ReadOnce()
			b.cfg.Clock.Sleep(b.cfg.ReadInterval)
		}
		return ctx.Err()
	})

	return g.Wait()
}

// Close returns the NES/SNES sequencer to cfg.Sequencers.  The bridge must
// not be running.
func (b *Bridge) Close() {
	if b.snes != nil {
		b.snes.Close()
		b.snes = nil
		b.source = SourceNone
	}
}
