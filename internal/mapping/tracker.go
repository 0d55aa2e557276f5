package mapping

import (
	"strings"

	"github.com/tracequery/tracedb/internal/addrrange"
	"github.com/tracequery/tracedb/internal/assert"
	"github.com/tracequery/tracedb/internal/tlog"
)

// Tracker composes the RangeMaps, the (name, build id) index and the JIT
// delegate registry that together make up the Mapping Tracker. It is the
// sole owner of every Mapping it creates for its entire lifetime; all
// other references to a Mapping are non-owning and must not outlive the
// Tracker.
type Tracker struct {
	collab *collaborators

	nextId MappingId

	byId     map[MappingId]*Mapping
	interned map[string]*Mapping   // keyed by CreateMappingParams.cacheKey()
	byName   map[string][]*Mapping // keyed by NameAndBuildId.cacheKey()

	userMemory    map[UniquePid]*addrrange.RangeMap[*Mapping]
	kernelModules *addrrange.RangeMap[*Mapping]
	kernelCore    *Mapping

	jitDelegates map[UniquePid]*addrrange.RangeMap[JitDelegate]
}

// New creates an empty Tracker wired to the given external collaborators.
func New(frameTable FrameTable, notifier FrameCreatedNotifier, strings StringInterner) *Tracker {
	return &Tracker{
		collab:        &collaborators{frameTable: frameTable, notifier: notifier, strings: strings},
		byId:          make(map[MappingId]*Mapping),
		interned:      make(map[string]*Mapping),
		byName:        make(map[string][]*Mapping),
		userMemory:    make(map[UniquePid]*addrrange.RangeMap[*Mapping]),
		kernelModules: addrrange.NewRangeMap[*Mapping](),
		jitDelegates:  make(map[UniquePid]*addrrange.RangeMap[JitDelegate]),
	}
}

func (t *Tracker) addMapping(kind Kind, params CreateMappingParams) *Mapping {
	id := t.nextId
	t.nextId++
	m := newMapping(id, kind, params, t.collab)
	t.byId[id] = m
	key := NameAndBuildId{Name: m.name, BuildId: m.buildId}.cacheKey()
	t.byName[key] = append(t.byName[key], m)
	return m
}

// isKernelCoreName reports whether name marks the kernel "core" image
// rather than a loadable kernel module.
func isKernelCoreName(name string) bool {
	return strings.HasPrefix(name, "[kernel.kallsyms]") || name == "/kernel"
}

// CreateKernelMemoryMapping creates a kernel mapping. Names that are not
// the kernel-core marker are treated as loadable kernel modules and must
// have a range disjoint from every existing module (fatal on overlap).
// The kernel-core marker is a singleton: a second call must supply the
// identical memory range as the first (fatal otherwise) and returns the
// existing core.
func (t *Tracker) CreateKernelMemoryMapping(params CreateMappingParams) *Mapping {
	if !isKernelCoreName(params.Name) {
		m := t.addMapping(KindKernel, params)
		ok := t.kernelModules.Emplace(params.MemoryRange, m)
		if !ok {
			tlog.Warn("kernel module %q overlaps an existing kernel module at %+v", params.Name, params.MemoryRange)
		}
		assert.Assertf(ok, "kernel module %q overlaps an existing kernel module at %+v", params.Name, params.MemoryRange)
		return m
	}

	if t.kernelCore != nil {
		if t.kernelCore.memoryRange != params.MemoryRange {
			tlog.Warn("kernel core re-created with a different memory range: had %+v, got %+v",
				t.kernelCore.memoryRange, params.MemoryRange)
		}
		assert.Assertf(t.kernelCore.memoryRange == params.MemoryRange,
			"kernel core re-created with a different memory range: had %+v, got %+v",
			t.kernelCore.memoryRange, params.MemoryRange)
		return t.kernelCore
	}

	m := t.addMapping(KindKernel, params)
	t.kernelCore = m
	return m
}

// GetOrCreateKernelMemoryMappingDefault returns the existing kernel-core
// mapping, or creates the documented sentinel one: an empty [0,0) range,
// zero offsets, load_bias = MaxUint64, name "/kernel", no build id.
func (t *Tracker) GetOrCreateKernelMemoryMappingDefault() *Mapping {
	if t.kernelCore != nil {
		return t.kernelCore
	}
	return t.CreateKernelMemoryMapping(CreateMappingParams{
		MemoryRange: addrrange.AddressRange{Start: 0, End: 0},
		LoadBias:    ^uint64(0),
		Name:        "/kernel",
	})
}

// CreateUserMemoryMapping creates a mapping owned by upid. Its range must
// be disjoint from every mapping already registered for upid (fatal on
// overlap). Any JIT delegate range overlapping the new mapping must fully
// contain it (fatal otherwise); the new mapping inherits that delegate.
func (t *Tracker) CreateUserMemoryMapping(upid UniquePid, params CreateMappingParams) *Mapping {
	mappingRange := params.MemoryRange
	m := t.addMapping(KindUser, params)
	m.upid = upid

	rm := t.userRangeMap(upid)
	ok := rm.Emplace(mappingRange, m)
	if !ok {
		tlog.Warn("user mapping %q for pid %d overlaps an existing mapping at %+v", params.Name, upid, mappingRange)
	}
	assert.Assertf(ok, "user mapping %q for pid %d overlaps an existing mapping at %+v", params.Name, upid, mappingRange)

	if delegates, exists := t.jitDelegates[upid]; exists {
		delegates.ForOverlaps(mappingRange, func(jitRange addrrange.AddressRange, delegate JitDelegate) {
			if !jitRange.Contains(mappingRange) {
				tlog.Warn("jit range %+v does not contain new user mapping range %+v", jitRange, mappingRange)
			}
			assert.Assertf(jitRange.Contains(mappingRange),
				"jit range %+v does not contain new user mapping range %+v", jitRange, mappingRange)
			m.SetJitDelegate(delegate)
		})
	}

	return m
}

// InternMemoryMapping returns the mapping previously created for
// structurally-equal params, or creates a new unclassified mapping.
func (t *Tracker) InternMemoryMapping(params CreateMappingParams) *Mapping {
	key := params.cacheKey()
	if m, ok := t.interned[key]; ok {
		return m
	}
	m := t.addMapping(KindOther, params)
	t.interned[key] = m
	return m
}

// FindKernelMappingForAddress consults kernel modules first, falling back
// to the kernel core if it contains addr.
func (t *Tracker) FindKernelMappingForAddress(addr uint64) *Mapping {
	if _, m, ok := t.kernelModules.Find(addr); ok {
		return m
	}
	if t.kernelCore != nil && t.kernelCore.memoryRange.ContainsAddr(addr) {
		return t.kernelCore
	}
	return nil
}

// FindUserMappingForAddress consults upid's mmap-backed mappings first,
// then its JIT delegate ranges; a JIT hit materializes a fresh
// tracker-owned mapping via delegate.CreateMapping().
func (t *Tracker) FindUserMappingForAddress(upid UniquePid, addr uint64) *Mapping {
	if rm, ok := t.userMemory[upid]; ok {
		if _, m, ok := rm.Find(addr); ok {
			return m
		}
	}
	if delegates, ok := t.jitDelegates[upid]; ok {
		if _, delegate, ok := delegates.Find(addr); ok {
			return delegate.CreateMapping()
		}
	}
	return nil
}

// MappingByID returns the mapping previously assigned id, or nil if none.
func (t *Tracker) MappingByID(id MappingId) *Mapping {
	return t.byId[id]
}

// FindMappings returns the mappings registered under (name, buildId), in
// insertion order, or nil if none.
func (t *Tracker) FindMappings(name string, buildId []byte) []*Mapping {
	return t.byName[NameAndBuildId{Name: name, BuildId: buildId}.cacheKey()]
}

// AddJitRange marks [range] as containing jitted code owned by delegate.
// Any existing JIT range for upid that overlaps is deleted wholesale (not
// split) before the new one is inserted. Every existing user mapping for
// upid overlapping the new range must be fully contained by it (fatal
// otherwise) and inherits the new delegate.
func (t *Tracker) AddJitRange(upid UniquePid, rng addrrange.AddressRange, delegate JitDelegate) {
	t.jitDelegateRangeMap(upid).DeleteOverlapsAndEmplace(rng, delegate)

	if rm, ok := t.userMemory[upid]; ok {
		rm.ForOverlaps(rng, func(mappingRange addrrange.AddressRange, m *Mapping) {
			if !rng.Contains(mappingRange) {
				tlog.Warn("jit range %+v does not contain overlapping user mapping range %+v", rng, mappingRange)
			}
			assert.Assertf(rng.Contains(mappingRange),
				"jit range %+v does not contain overlapping user mapping range %+v", rng, mappingRange)
			m.SetJitDelegate(delegate)
		})
	}
}

func (t *Tracker) userRangeMap(upid UniquePid) *addrrange.RangeMap[*Mapping] {
	rm, ok := t.userMemory[upid]
	if !ok {
		rm = addrrange.NewRangeMap[*Mapping]()
		t.userMemory[upid] = rm
	}
	return rm
}

func (t *Tracker) jitDelegateRangeMap(upid UniquePid) *addrrange.RangeMap[JitDelegate] {
	rm, ok := t.jitDelegates[upid]
	if !ok {
		rm = addrrange.NewRangeMap[JitDelegate]()
		t.jitDelegates[upid] = rm
	}
	return rm
}
