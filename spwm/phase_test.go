package spwm

import (
	"math"
	"sync"
	"testing"
	"testing/quick"
)

func TestPhaseRoundTrip(t *testing.T) {
	f := func(hz, inc float32) bool {
		var p Phase
		p.Store(hz, inc)
		gotHz, gotInc := p.Load()
		return math.Float32bits(gotHz) == math.Float32bits(hz) &&
			math.Float32bits(gotInc) == math.Float32bits(inc)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestIncrement(t *testing.T) {
	got := Increment(50, 20000)
	want := float32(2 * math.Pi * 50 / 20000)
	if got != want {
		t.Errorf("Increment(50, 20000) = %g, want %g", got, want)
	}
}

// A reader racing a writer must only ever see pairs the writer stored.
func TestPhaseConcurrentIntegrity(t *testing.T) {
	const pwmHz = 20000
	var p Phase
	p.Store(0, Increment(0, pwmHz))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	bad := make(chan [2]float32, 1)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				hz, inc := p.Load()
				if inc != Increment(hz, pwmHz) {
					select {
					case bad <- [2]float32{hz, inc}:
					default:
					}
					return
				}
			}
		}()
	}

	f := func(hz uint16) bool {
		v := float32(hz) / 10
		p.Store(v, Increment(v, pwmHz))
		return true
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 20000}); err != nil {
		t.Error(err)
	}
	close(stop)
	wg.Wait()

	select {
	case pair := <-bad:
		t.Errorf("reader saw a torn value: hz=%g increment=%g", pair[0], pair[1])
	default:
	}
}
