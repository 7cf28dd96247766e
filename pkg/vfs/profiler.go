package vfs

import "fmt"

// Profiler observes every device-level transfer performed on behalf of
// the filesystem. It is optional: when attached with SetProfiler, the
// low-level block callbacks report each read, program and erase to it.
//
// Implementations run on the caller's thread inside the I/O path and
// should be cheap; they must not call back into the filesystem.
type Profiler interface {
	// Read reports a completed device read of len(buf) bytes at addr
	Read(addr uint32, buf []byte)

	// Write reports a device program of len(buf) bytes at addr,
	// issued before the data is written
	Write(addr uint32, buf []byte)

	// Erase reports a device erase of size bytes at addr
	Erase(addr uint32, size uint32)
}

// CountingProfiler tallies operation and byte counts. It is the stock
// profiler used by the CLI and by tests that assert on device traffic.
type CountingProfiler struct {
	ReadCount  uint32
	ReadBytes  uint64
	WriteCount uint32
	WriteBytes uint64
	EraseCount uint32
	EraseBytes uint64
}

func (p *CountingProfiler) Read(addr uint32, buf []byte) {
	p.ReadCount++
	p.ReadBytes += uint64(len(buf))
}

func (p *CountingProfiler) Write(addr uint32, buf []byte) {
	p.WriteCount++
	p.WriteBytes += uint64(len(buf))
}

func (p *CountingProfiler) Erase(addr uint32, size uint32) {
	p.EraseCount++
	p.EraseBytes += uint64(size)
}

// Reset clears all counters.
func (p *CountingProfiler) Reset() {
	*p = CountingProfiler{}
}

func (p *CountingProfiler) String() string {
	return fmt.Sprintf("read: %d ops %d bytes, write: %d ops %d bytes, erase: %d ops %d bytes",
		p.ReadCount, p.ReadBytes, p.WriteCount, p.WriteBytes, p.EraseCount, p.EraseBytes)
}
