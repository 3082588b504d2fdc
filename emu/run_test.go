package emu_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvstep/emu"
	"github.com/sarchlab/rvstep/insts"
)

// timedRecorder stamps each notification; it is safe for use from the
// auto-run goroutine.
type timedRecorder struct {
	mu     sync.Mutex
	stamps []time.Time
	halts  int
}

func (r *timedRecorder) OnStep(emu.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stamps = append(r.stamps, time.Now())
}

func (r *timedRecorder) OnHalt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.halts++
}

func (r *timedRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stamps), r.halts
}

var _ = Describe("Auto-run", func() {
	var (
		e   *emu.Emulator
		rec *timedRecorder
	)

	nops := func(n int) []uint32 {
		words := make([]uint32, n)
		for i := range words {
			words[i] = 0x00100093 // x1 = x0 + 1
		}
		return words
	}

	BeforeEach(func() {
		rec = &timedRecorder{}
		e = emu.NewEmulator(emu.WithObserver(rec))
	})

	It("should step at the requested cadence until halted", func() {
		e.LoadProgram(nops(5))

		start := time.Now()
		err := e.Run(context.Background(), 50) // 20ms apart
		elapsed := time.Since(start)

		Expect(err).NotTo(HaveOccurred())
		Expect(e.Halted()).To(BeTrue())
		Expect(e.PC()).To(Equal(uint32(20)))

		steps, halts := rec.counts()
		Expect(steps).To(Equal(5))
		Expect(halts).To(Equal(1))
		// Five waits: four between steps and one before the halting step.
		Expect(elapsed).To(BeNumerically(">=", 90*time.Millisecond))
		for i := 1; i < len(rec.stamps); i++ {
			Expect(rec.stamps[i].Sub(rec.stamps[i-1])).To(BeNumerically(">=", 10*time.Millisecond))
		}
	})

	It("should do nothing for a non-positive rate", func() {
		e.LoadProgram(nops(3))

		Expect(e.Run(context.Background(), 0)).To(Succeed())
		Expect(e.Run(context.Background(), -2)).To(Succeed())

		Expect(e.PC()).To(Equal(uint32(0)))
		steps, _ := rec.counts()
		Expect(steps).To(BeZero())
	})

	It("should stop when its context is cancelled", func() {
		e.LoadProgram(nops(1000))
		ctx, cancel := context.WithCancel(context.Background())

		done := e.RunAsync(ctx, 100)
		Eventually(func() int {
			steps, _ := rec.counts()
			return steps
		}).Should(BeNumerically(">=", 2))
		cancel()

		Eventually(done).Should(Receive(MatchError(context.Canceled)))
		Expect(e.Running()).To(BeFalse())
		Expect(e.Halted()).To(BeFalse())

		steps, _ := rec.counts()
		Consistently(func() int {
			n, _ := rec.counts()
			return n
		}, 50*time.Millisecond).Should(Equal(steps))
	})

	It("should reject a second concurrent auto-run", func() {
		e.LoadProgram(nops(1000))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := e.RunAsync(ctx, 20)
		Eventually(e.Running).Should(BeTrue())

		Expect(e.Run(ctx, 20)).To(MatchError(emu.ErrAlreadyRunning))

		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})

	It("should allow single steps while auto-run waits", func() {
		e.LoadProgram(nops(1000))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := e.RunAsync(ctx, 2)
		Eventually(func() int {
			steps, _ := rec.counts()
			return steps
		}).Should(Equal(1))

		result := e.Step()
		Expect(result.Err).NotTo(HaveOccurred())
		Expect(result.Snapshot.PC).To(Equal(uint32(4)))

		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})

	It("should stop and return a fault", func() {
		e.RegFile().X[1] = -1
		e.LoadProgram([]uint32{
			0x00000013,
			insts.EncodeI(insts.OpLoad, 2, 0, 1, 0), // load from x1 + 0 = -1
			0x00000013,
		})

		err := e.Run(context.Background(), 1000)

		Expect(errors.Is(err, emu.ErrMemoryIndex)).To(BeTrue())
		Expect(e.PC()).To(Equal(uint32(4)))
		Expect(e.Running()).To(BeFalse())
	})
})
