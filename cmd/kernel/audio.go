// audio.go - RTC tick click, oto v3 output.
//
// Grounded on audio_backend_oto.go's OtoPlayer: same NewContext/ready
// handshake, same io.Reader-as-player-source shape. Where the teacher reads
// from a SoundChip ring buffer on every callback, tickClicker instead plays
// a short click waveform once per RTC interrupt and silence otherwise, so
// the virtualized RTC device has an audible heartbeat without needing a
// full synthesis engine.
package main

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const clickSampleRate = 44100

// tickClicker renders a short decaying click every time Click is called,
// and silence the rest of the time. It satisfies io.Reader so oto can pull
// samples from it on its own callback goroutine.
type tickClicker struct {
	ctx    *oto.Context
	player *oto.Player

	mu       sync.Mutex
	phase    int
	clickLen int

	armed atomic.Bool
}

func newTickClicker() (*tickClicker, error) {
	op := &oto.NewContextOptions{
		SampleRate:   clickSampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	tc := &tickClicker{ctx: ctx, clickLen: clickSampleRate / 200}
	tc.player = ctx.NewPlayer(tc)
	return tc, nil
}

// Click arms one click's worth of samples to be emitted starting with the
// next Read call. Safe to call from the RTC's own goroutine.
func (tc *tickClicker) Click() {
	tc.mu.Lock()
	tc.phase = 0
	tc.mu.Unlock()
	tc.armed.Store(true)
}

// Read implements io.Reader for oto.NewPlayer. Emits a linearly decaying
// burst of clickLen samples while armed, silence otherwise.
func (tc *tickClicker) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	samples := make([]float32, numSamples)

	tc.mu.Lock()
	if tc.armed.Load() {
		for i := 0; i < numSamples; i++ {
			if tc.phase >= tc.clickLen {
				tc.armed.Store(false)
				break
			}
			decay := 1.0 - float32(tc.phase)/float32(tc.clickLen)
			samples[i] = decay * 0.2
			tc.phase++
		}
	}
	tc.mu.Unlock()

	for i, s := range samples {
		bits := math.Float32bits(s)
		off := i * 4
		p[off] = byte(bits)
		p[off+1] = byte(bits >> 8)
		p[off+2] = byte(bits >> 16)
		p[off+3] = byte(bits >> 24)
	}
	return len(p), nil
}

func (tc *tickClicker) Start() { tc.player.Play() }

func (tc *tickClicker) Close() {
	tc.player.Close()
}
