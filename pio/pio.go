// Package pio provides programmable I/O state machines: small sequencers
// that run a fixed phase table against a set of lines independently of the
// code that consumes their results.
//
// A state machine is claimed from a Block, which has a fixed number of
// them.  The consumer talks to it only through two FIFOs: a word put into
// the TX FIFO starts one pass of the program, every PushThreshold sampled
// bits are pushed into the RX FIFO.  Neither side ever waits on the other
// unless it asks to.
package pio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clktmr/pcebridge/debug"
	"github.com/clktmr/pcebridge/gpio"
	"github.com/clktmr/pcebridge/timing"
)

var (
	ErrNoStateMachine = errors.New("no unused state machine")
	ErrProgram        = errors.New("invalid program")
	ErrConfig         = errors.New("invalid state machine config")
)

const FIFODepth = 4

type Config struct {
	Outputs []gpio.Line
	In      []gpio.Line

	// Period is the duration of one cycle.
	Period time.Duration
	Clock  timing.Clock

	// PushThreshold is the number of bits after which the input shift
	// register is pushed into the RX FIFO.  Zero means 32.
	PushThreshold int
}

// Block is a set of state machines that can be claimed.
type Block struct {
	mu  sync.Mutex
	sms []*StateMachine
}

func NewBlock(n int) *Block {
	b := &Block{sms: make([]*StateMachine, n)}
	for i := range b.sms {
		b.sms[i] = &StateMachine{block: b, index: i}
	}
	return b
}

// Claim returns an unused state machine or ErrNoStateMachine.
func (b *Block) Claim() (*StateMachine, error) {
	if b == nil {
		return nil, ErrNoStateMachine
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sm := range b.sms {
		if !sm.claimed {
			sm.claimed = true
			return sm, nil
		}
	}
	return nil, ErrNoStateMachine
}

// Unclaim returns sm to its block.  It must not be running.
func (b *Block) Unclaim(sm *StateMachine) {
	b.mu.Lock()
	defer b.mu.Unlock()
	debug.Assert(sm.block == b, "state machine of other block")
	sm.claimed = false
	sm.prog = nil
}

type StateMachine struct {
	block   *Block
	index   int
	claimed bool // guarded by block.mu

	prog *Program
	cfg  Config

	tx, rx chan uint32

	// Owned by the goroutine executing passes.
	osr     uint32
	isr     uint32
	isrBits int

	passes atomic.Uint64
	drops  atomic.Uint64
}

func (sm *StateMachine) Index() int { return sm.index }

// Init loads prog and cfg, configures the output lines low and clears both
// FIFOs.
func (sm *StateMachine) Init(prog *Program, cfg Config) error {
	if cfg.Clock == nil || cfg.Period <= 0 {
		return ErrConfig
	}
	if cfg.PushThreshold == 0 {
		cfg.PushThreshold = 32
	}
	if cfg.PushThreshold < 1 || cfg.PushThreshold > 32 {
		return ErrConfig
	}
	if err := prog.check(&cfg); err != nil {
		return err
	}
	err := gpio.ConfigureAll(gpio.Config{Mode: gpio.Output, Initial: gpio.Low}, cfg.Outputs...)
	if err != nil {
		return err
	}

	sm.prog = prog
	sm.cfg = cfg
	sm.tx = make(chan uint32, FIFODepth)
	sm.rx = make(chan uint32, FIFODepth)
	sm.isr, sm.isrBits = 0, 0
	return nil
}

// Put pushes w into the TX FIFO.  It returns false if the FIFO is full.
func (sm *StateMachine) Put(w uint32) bool {
	select {
	case sm.tx <- w:
		return true
	default:
		return false
	}
}

// Get pops a word from the RX FIFO without blocking.
func (sm *StateMachine) Get() (w uint32, ok bool) {
	select {
	case w = <-sm.rx:
		return w, true
	default:
		return 0, false
	}
}

// RxEmpty reports whether the RX FIFO holds no words.
func (sm *StateMachine) RxEmpty() bool {
	return len(sm.rx) == 0
}

// Passes returns the number of completed program passes.
func (sm *StateMachine) Passes() uint64 { return sm.passes.Load() }

// Drops returns the number of words lost because the RX FIFO was full.
func (sm *StateMachine) Drops() uint64 { return sm.drops.Load() }

// Exec runs one pass of the program if a word is pending in the TX FIFO and
// returns whether it did.  Words that don't fit into the RX FIFO are
// dropped.
func (sm *StateMachine) Exec() bool {
	debug.Assert(sm.prog != nil, "state machine not initialized")
	select {
	case sm.osr = <-sm.tx:
	default:
		return false
	}
	sm.pass(func(w uint32) {
		select {
		case sm.rx <- w:
		default:
			sm.drops.Add(1)
		}
	})
	return true
}

// Run executes passes until ctx is done.  Like the hardware, a pass waits for
// the TX FIFO and stalls on a full RX FIFO.
func (sm *StateMachine) Run(ctx context.Context) error {
	debug.Assert(sm.prog != nil, "state machine not initialized")
	for {
		select {
		case sm.osr = <-sm.tx:
		case <-ctx.Done():
			return ctx.Err()
		}
		stalled := false
		sm.pass(func(w uint32) {
			select {
			case sm.rx <- w:
			case <-ctx.Done():
				stalled = true
			}
		})
		if stalled {
			return ctx.Err()
		}
	}
}

func (sm *StateMachine) pass(push func(uint32)) {
	for i := range sm.prog.Prologue {
		sm.phase(&sm.prog.Prologue[i], push)
	}
	for n := 0; n < sm.prog.Repeat; n++ {
		for i := range sm.prog.Body {
			sm.phase(&sm.prog.Body[i], push)
		}
	}
	sm.passes.Add(1)
}

func (sm *StateMachine) phase(ph *Phase, push func(uint32)) {
	for _, d := range ph.Drive {
		sm.cfg.Outputs[d.Pin].Set(d.Level)
	}
	if ph.Sample > 0 {
		sm.shiftIn(ph.Sample, push)
	}
	sm.cfg.Clock.Delay(time.Duration(ph.Delay) * sm.cfg.Period)
}

// shiftIn shifts n pins right into the ISR, the first pin ending up in the
// least significant of the n bits.
func (sm *StateMachine) shiftIn(n int, push func(uint32)) {
	var bits uint32
	for i := 0; i < n; i++ {
		if sm.cfg.In[i].Get() {
			bits |= 1 << i
		}
	}
	sm.isr = sm.isr>>n | bits<<(32-n)
	sm.isrBits += n
	if sm.isrBits >= sm.cfg.PushThreshold {
		push(sm.isr >> (32 - sm.cfg.PushThreshold))
		sm.isr, sm.isrBits = 0, 0
	}
}
