package emu_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvstep/emu"
)

var _ = Describe("Rates", func() {
	DescribeTable("ParseRate",
		func(text string, expected float64) {
			Expect(emu.ParseRate(text)).To(Equal(expected))
		},
		Entry("integer", "4", 4.0),
		Entry("fraction", " 0.5 ", 0.5),
		Entry("empty", "", 0.0),
		Entry("text", "fast", 0.0),
		Entry("zero", "0", 0.0),
		Entry("negative", "-3", 0.0),
		Entry("infinity", "Inf", 0.0),
		Entry("nan", "NaN", 0.0),
	)

	It("should space steps 1000/rate milliseconds apart", func() {
		Expect(emu.RateInterval(4)).To(Equal(250 * time.Millisecond))
		Expect(emu.RateInterval(1000)).To(Equal(time.Millisecond))
	})

	It("should clamp the wait for tiny rates instead of wrapping", func() {
		Expect(emu.RateInterval(1e-9)).To(BeNumerically("~", time.Duration(1e18), time.Millisecond))
		Expect(emu.RateInterval(1e-10)).To(Equal(time.Duration(math.MaxInt64)))
		Expect(emu.RateInterval(1e-12)).To(Equal(time.Duration(math.MaxInt64)))
		Expect(emu.RateInterval(math.SmallestNonzeroFloat64)).To(Equal(time.Duration(math.MaxInt64)))
	})

	It("should never return less than a nanosecond for huge rates", func() {
		Expect(emu.RateInterval(1e12)).To(Equal(time.Nanosecond))
		Expect(emu.RateInterval(math.MaxFloat64)).To(Equal(time.Nanosecond))
	})
})
