// Package cache models a data cache in front of the word-indexed data memory
// using Akita cache components. The model only produces timing; the
// functional memory stays authoritative.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// WordSize is the size of one data-memory cell in bytes.
const WordSize = 4

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency"`
	// MissLatency in cycles (includes memory access time)
	MissLatency uint64 `json:"miss_latency"`
}

// DefaultL1DConfig returns the default data cache: 1KB, 2-way, 16B lines.
// With the default 1024-word memory this covers a quarter of the address
// space.
func DefaultL1DConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 2,
		BlockSize:     16,
		HitLatency:    1,
		MissLatency:   10,
	}
}

// Validate checks that the geometry describes at least one set of whole
// words.
func (c Config) Validate() error {
	switch {
	case c.BlockSize < WordSize || c.BlockSize%WordSize != 0:
		return fmt.Errorf("block_size must be a positive multiple of %d", WordSize)
	case c.Associativity <= 0:
		return fmt.Errorf("associativity must be > 0")
	case c.Size < c.Associativity*c.BlockSize:
		return fmt.Errorf("size must hold at least one set")
	case c.Size%(c.Associativity*c.BlockSize) != 0:
		return fmt.Errorf("size must be a multiple of associativity * block_size")
	case c.HitLatency == 0 || c.MissLatency == 0:
		return fmt.Errorf("hit_latency and miss_latency must be > 0")
	}
	return nil
}

// WordsPerBlock returns how many memory cells one line holds.
func (c Config) WordsPerBlock() int {
	return c.BlockSize / WordSize
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Data is the word read (for loads).
	Data int32
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the word address of the first cell of the evicted
	// block (if Evicted is true).
	EvictedAddr int32
}

// Cache is a write-back, write-allocate data cache over word addresses.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]int32

	stats Statistics

	// Backing store for fetching on miss and writeback
	backing BackingStore
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64 `json:"reads"`
	Writes     uint64 `json:"writes"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
	Writebacks uint64 `json:"writebacks"`
}

// HitRate returns hits over all accesses, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// BackingStore is the next level below the cache.
type BackingStore interface {
	// ReadBlock returns n words starting at word address addr.
	ReadBlock(addr int32, n int) []int32
	// WriteBlock stores words starting at word address addr.
	WriteBlock(addr int32, words []int32)
}

// New creates a new cache. The config is assumed valid; see Config.Validate.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]int32, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]int32, config.WordsPerBlock())
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// byteAddr maps a word address onto the directory's byte address space.
func byteAddr(addr int32) uint64 {
	return uint64(uint32(addr)) * WordSize
}

func (c *Cache) blockAddr(addr int32) uint64 {
	bs := uint64(c.config.BlockSize)
	return byteAddr(addr) / bs * bs
}

func (c *Cache) offset(addr int32) int {
	return int(byteAddr(addr)%uint64(c.config.BlockSize)) / WordSize
}

// Read performs a cache read of the word at addr.
func (c *Cache) Read(addr int32) AccessResult {
	c.stats.Reads++

	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
			Data:    c.dataStore[c.blockIndex(block)][c.offset(addr)],
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, false, 0)
}

// Write performs a cache write of value to the word at addr. On a miss the
// block is fetched first and then written.
func (c *Cache) Write(addr int32, value int32) AccessResult {
	c.stats.Writes++

	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		c.dataStore[c.blockIndex(block)][c.offset(addr)] = value
		block.IsDirty = true

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, true, value)
}

func (c *Cache) handleMiss(addr int32, isWrite bool, value int32) AccessResult {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}

	blockAddr := c.blockAddr(addr)
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = int32(victim.Tag / WordSize)

		if victim.IsDirty {
			c.stats.Writebacks++
			if c.backing != nil {
				c.backing.WriteBlock(result.EvictedAddr, victimData)
			}
		}
	}

	if c.backing != nil {
		copy(victimData, c.backing.ReadBlock(int32(blockAddr/WordSize), len(victimData)))
	} else {
		clear(victimData)
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false

	if isWrite {
		victimData[c.offset(addr)] = value
		victim.IsDirty = true
	} else {
		result.Data = victimData[c.offset(addr)]
	}

	c.directory.Visit(victim)

	return result
}

// Invalidate drops the line holding addr without writing it back.
func (c *Cache) Invalidate(addr int32) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates every line.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.stats.Writebacks++
				if c.backing != nil {
					c.backing.WriteBlock(int32(block.Tag/WordSize), c.dataStore[c.blockIndex(block)])
				}
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
