// Package mapping implements the Mapping Tracker: it indexes kernel,
// user-process and "unclassified" virtual memory mappings by address
// range and by (name, build id), and hooks JIT regions via a delegate
// pattern so a single program counter can resolve to different frames
// over time.
package mapping

import (
	"bytes"

	"github.com/tracequery/tracedb/internal/addrrange"
)

// UniquePid is a process-unique identifier assigned by the (out of scope)
// trace importer. It is a distinct type from MappingId/FrameId so the two
// id spaces can never be confused at a call site.
type UniquePid uint32

// MappingId is an opaque, dense identifier assigned at mapping creation.
// It is unique within a Tracker instance and is never reused.
type MappingId uint32

// FrameId is an opaque, dense identifier assigned by the external
// stack-profile frame table (see FrameTable).
type FrameId uint32

// FrameKey identifies a frame within one mapping's FrameInterner.
type FrameKey struct {
	RelPC      uint64
	FuncNameID int
}

// CreateMappingParams carries everything needed to create a mapping.
// Equality and hashing are structural (see Equal / cacheKey).
type CreateMappingParams struct {
	MemoryRange addrrange.AddressRange
	ExactOffset uint64
	StartOffset uint64
	LoadBias    uint64
	Name        string
	BuildId     []byte // nil means "no build id"
}

// Equal reports whether p and o are structurally equal.
func (p CreateMappingParams) Equal(o CreateMappingParams) bool {
	return p.MemoryRange == o.MemoryRange &&
		p.ExactOffset == o.ExactOffset &&
		p.StartOffset == o.StartOffset &&
		p.LoadBias == o.LoadBias &&
		p.Name == o.Name &&
		bytes.Equal(p.BuildId, o.BuildId)
}

// cacheKey renders p into a value usable as a Go map key (CreateMappingParams
// itself is not comparable because BuildId is a slice).
func (p CreateMappingParams) cacheKey() string {
	return p.Name + "\x00" + string(p.BuildId) + "\x00" +
		itoa(p.MemoryRange.Start) + "\x00" + itoa(p.MemoryRange.End) + "\x00" +
		itoa(p.ExactOffset) + "\x00" + itoa(p.StartOffset) + "\x00" + itoa(p.LoadBias)
}

func itoa(v uint64) string {
	// Small, allocation-light uint64 formatter; avoids pulling in
	// strconv just for this cache-key helper's single call site.
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// NameAndBuildId is the secondary index key over (name, build id).
type NameAndBuildId struct {
	Name    string
	BuildId []byte
}

func (k NameAndBuildId) cacheKey() string {
	return k.Name + "\x00" + string(k.BuildId)
}

// JitDelegate is the external capability a tracker consumer registers to
// own frame interning for a jitted code region whose content changes over
// time at fixed addresses.
type JitDelegate interface {
	// InternFrame forwards a frame-interning request for a frame that
	// falls inside this delegate's jitted range. Returns the frame id and
	// whether a new row was created.
	InternFrame(m *Mapping, relPC uint64, functionName string) (FrameId, bool)
	// CreateMapping materializes a fresh UserMemoryMapping on demand, for
	// FindUserMappingForAddress requests that land in a jitted region with
	// no mmap-backed mapping of their own.
	CreateMapping() *Mapping
}

// FrameTable is the external stack-profile frame table that owns frame
// row storage; InsertFrame always returns a freshly assigned FrameId.
type FrameTable interface {
	InsertFrame(mappingID MappingId, relPC uint64) FrameId
}

// FrameCreatedNotifier is notified exactly once per newly created frame.
type FrameCreatedNotifier interface {
	OnFrameCreated(FrameId)
}

// StringInterner deduplicates strings into dense integer ids.
type StringInterner interface {
	Intern(name string) int
}
