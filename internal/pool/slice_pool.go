package pool

import "sync"

var offsetSlicePool = sync.Pool{
	New: func() any { return &[]uint32{} },
}

// GetUint32Slice returns a uint32 slice of length n and a release function that
// hands it back to the pool. The archive writer collects child record offsets in
// these before writing the parent record; the slice must not be used after release.
//
// Example:
//
//	offsets, release := pool.GetUint32Slice(len(items))
//	defer release()
func GetUint32Slice(n int) ([]uint32, func()) {
	ptr, _ := offsetSlicePool.Get().(*[]uint32)
	if cap(*ptr) < n {
		*ptr = make([]uint32, n)
	}
	*ptr = (*ptr)[:n]

	return *ptr, func() { offsetSlicePool.Put(ptr) }
}
