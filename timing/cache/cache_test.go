package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvstep/emu"
	"github.com/sarchlab/rvstep/timing/cache"
)

var _ = Describe("Cache", func() {
	var (
		c       *cache.Cache
		memory  *emu.Memory
		backing *cache.MemoryBacking
	)

	BeforeEach(func() {
		memory = emu.NewMemory(emu.DefaultMemorySize)
		backing = cache.NewMemoryBacking(memory)
		// 256B, 2-way, 16B lines: 8 sets, words 0, 32, 64 share set 0.
		config := cache.Config{
			Size:          256,
			Associativity: 2,
			BlockSize:     16,
			HitLatency:    1,
			MissLatency:   10,
		}
		Expect(config.Validate()).To(Succeed())
		c = cache.New(config, backing)
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			Expect(memory.Write(100, 0x1234)).To(Succeed())

			result := c.Read(100)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))
			Expect(result.Data).To(Equal(int32(0x1234)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached data", func() {
			Expect(memory.Write(100, -7)).To(Succeed())

			c.Read(100)
			result := c.Read(100)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(result.Data).To(Equal(int32(-7)))

			Expect(c.Stats().HitRate()).To(BeNumerically("~", 0.5))
		})

		It("should hit on a neighbouring word in the same line", func() {
			Expect(memory.Write(8, 11)).To(Succeed())
			Expect(memory.Write(11, 22)).To(Succeed())

			c.Read(8)
			result := c.Read(11)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(int32(22)))
		})

		It("should miss on the next line", func() {
			c.Read(8)
			Expect(c.Read(12).Hit).To(BeFalse())
		})

		It("should read past the end of memory as zero", func() {
			small := emu.NewMemory(2)
			Expect(small.Write(1, 9)).To(Succeed())
			sc := cache.New(cache.DefaultL1DConfig(), cache.NewMemoryBacking(small))

			Expect(sc.Read(1).Data).To(Equal(int32(9)))
			Expect(sc.Read(3).Data).To(Equal(int32(0)))
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate on miss", func() {
			result := c.Write(40, 0x55)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))

			readResult := c.Read(40)
			Expect(readResult.Hit).To(BeTrue())
			Expect(readResult.Data).To(Equal(int32(0x55)))
		})

		It("should hit on cached data", func() {
			c.Write(40, 1)

			result := c.Write(40, 2)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(c.Read(40).Data).To(Equal(int32(2)))
		})

		It("should not touch memory before eviction", func() {
			c.Write(40, 99)

			v, err := memory.Read(40)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(int32(0)))
		})
	})

	Describe("Eviction", func() {
		It("should evict the least recently used way", func() {
			c.Write(0, 1)
			c.Write(32, 2)
			Expect(c.Read(0).Hit).To(BeTrue())

			result := c.Write(64, 3)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(int32(32)))

			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Read(0).Hit).To(BeTrue())
		})

		It("should write back dirty evicted blocks", func() {
			c.Write(0, 0x11)
			c.Write(32, 0x22)
			c.Read(32)

			c.Write(64, 0x33)

			v, err := memory.Read(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(int32(0x11)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})

		It("should drop writebacks on a read-only backing", func() {
			ro := cache.New(c.Config(), cache.NewReadOnlyBacking(memory))
			ro.Write(0, 0x11)
			ro.Write(32, 0x22)
			ro.Write(64, 0x33)

			v, _ := memory.Read(0)
			Expect(v).To(Equal(int32(0)))
			Expect(ro.Stats().Writebacks).To(Equal(uint64(1)))
		})
	})

	Describe("Flush", func() {
		It("should write back all dirty blocks", func() {
			c.Write(0, 0x11)
			c.Write(100, 0x22)

			c.Flush()

			v, _ := memory.Read(0)
			Expect(v).To(Equal(int32(0x11)))
			v, _ = memory.Read(100)
			Expect(v).To(Equal(int32(0x22)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))
			Expect(c.Read(0).Hit).To(BeFalse())
		})
	})

	Describe("Invalidate and Reset", func() {
		It("should drop a single line", func() {
			c.Read(4)
			c.Invalidate(5)
			Expect(c.Read(4).Hit).To(BeFalse())
		})

		It("should clear lines and statistics", func() {
			c.Read(4)
			c.Reset()
			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Read(4).Hit).To(BeFalse())
		})
	})

	Describe("Config", func() {
		It("should provide a valid default data cache", func() {
			config := cache.DefaultL1DConfig()
			Expect(config.Validate()).To(Succeed())
			Expect(config.WordsPerBlock()).To(Equal(4))
		})

		It("should reject partial-word lines", func() {
			config := cache.DefaultL1DConfig()
			config.BlockSize = 6
			Expect(config.Validate()).To(MatchError(ContainSubstring("block_size")))
		})

		It("should reject a size that holds no set", func() {
			config := cache.DefaultL1DConfig()
			config.Size = 16
			Expect(config.Validate()).To(MatchError(ContainSubstring("at least one set")))
		})
	})
})
