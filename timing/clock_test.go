package timing_test

import (
	"sync"
	"testing"
	"time"

	"github.com/clktmr/pcebridge/timing"
)

func TestVirtual(t *testing.T) {
	var clk timing.Virtual

	clk.Delay(20 * time.Microsecond)
	clk.Sleep(8 * time.Millisecond)
	clk.Advance(-time.Second)

	want := 8*time.Millisecond + 20*time.Microsecond
	if got := clk.Now(); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestVirtualConcurrent(t *testing.T) {
	var clk timing.Virtual
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				clk.Delay(time.Microsecond)
			}
		}()
	}
	wg.Wait()

	if got := clk.Now(); got != 800*time.Microsecond {
		t.Fatalf("got %v, want 800µs", got)
	}
}

func TestSystemDelay(t *testing.T) {
	clk := timing.NewSystem()
	start := clk.Now()
	clk.Delay(200 * time.Microsecond)
	if elapsed := clk.Now() - start; elapsed < 200*time.Microsecond {
		t.Fatalf("delay returned after %v", elapsed)
	}
}
