package memory

import (
	"sync"

	"github.com/apache/arrow/go/v17/arrow/memory"
)

var memPool = sync.Pool{
	New: func() interface{} {
		// This creates a new GoAllocator when the pool is empty
		return memory.NewGoAllocator()
	},
}

// GetAllocator retrieves an allocator from the pool. Allocators backing a
// table must stay out of the pool for as long as the table is alive.
func GetAllocator() memory.Allocator {
	return memPool.Get().(memory.Allocator)
}

// PutAllocator returns an allocator back to the pool
func PutAllocator(alloc memory.Allocator) {
	memPool.Put(alloc)
}

// OrDefault returns alloc, or the process default allocator when alloc is nil.
func OrDefault(alloc memory.Allocator) memory.Allocator {
	if alloc == nil {
		return memory.DefaultAllocator
	}
	return alloc
}
