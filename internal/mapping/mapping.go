package mapping

import "github.com/tracequery/tracedb/internal/addrrange"

// Kind tags which variant a Mapping was created as. Per-variant behavior
// is confined to construction and to which tracker index a mapping lands
// in; there is no separate type hierarchy.
type Kind int

const (
	KindOther Kind = iota
	KindUser
	KindKernel
)

// collaborators bundles the external, process-wide capabilities every
// Mapping needs to intern frames: the frame row table, the frame-created
// notifier, and the function-name string interner.
type collaborators struct {
	frameTable FrameTable
	notifier   FrameCreatedNotifier
	strings    StringInterner
}

// Mapping is a virtual memory mapping: a kernel module/core, a
// user-process mapping, or an unclassified ("other") one. Its
// MemoryRange is immutable after construction.
type Mapping struct {
	id          MappingId
	kind        Kind
	memoryRange addrrange.AddressRange
	exactOffset uint64
	startOffset uint64
	loadBias    uint64
	name        string
	buildId     []byte

	upid UniquePid // valid only when kind == KindUser

	jitDelegate JitDelegate // non-owning; replaced wholesale by AddJitRange

	collab         *collaborators
	internedFrames map[FrameKey]FrameId
	framesByRelPC  map[uint64][]FrameId
}

func newMapping(id MappingId, kind Kind, params CreateMappingParams, collab *collaborators) *Mapping {
	return &Mapping{
		id:             id,
		kind:           kind,
		memoryRange:    params.MemoryRange,
		exactOffset:    params.ExactOffset,
		startOffset:    params.StartOffset,
		loadBias:       params.LoadBias,
		name:           params.Name,
		buildId:        params.BuildId,
		collab:         collab,
		internedFrames: make(map[FrameKey]FrameId),
		framesByRelPC:  make(map[uint64][]FrameId),
	}
}

func (m *Mapping) Id() MappingId                       { return m.id }
func (m *Mapping) Kind() Kind                          { return m.kind }
func (m *Mapping) MemoryRange() addrrange.AddressRange { return m.memoryRange }
func (m *Mapping) ExactOffset() uint64                 { return m.exactOffset }
func (m *Mapping) StartOffset() uint64                 { return m.startOffset }
func (m *Mapping) LoadBias() uint64                    { return m.loadBias }
func (m *Mapping) Name() string                        { return m.name }
func (m *Mapping) BuildId() []byte                     { return m.buildId }

// Upid returns the owning process for a user mapping. Only meaningful when
// Kind() == KindUser.
func (m *Mapping) Upid() UniquePid { return m.upid }

// SetJitDelegate installs (or replaces) the JIT delegate for this mapping.
// Called only by the tracker, from AddJitRange/CreateUserMemoryMapping.
func (m *Mapping) SetJitDelegate(d JitDelegate) { m.jitDelegate = d }

// JitDelegate returns the mapping's current JIT delegate, or nil.
func (m *Mapping) JitDelegate() JitDelegate { return m.jitDelegate }

// InternFrame returns a stable FrameId for (relPC, functionName), creating
// one if needed. If a JIT delegate is set the request is forwarded to it
// in full, bypassing this mapping's own interner. Idempotent: repeated
// calls with the same (relPC, functionName) return the same id and never
// notify the frame-created callback more than once.
func (m *Mapping) InternFrame(relPC uint64, functionName string) FrameId {
	if m.jitDelegate != nil {
		id, wasNew := m.jitDelegate.InternFrame(m, relPC, functionName)
		if wasNew {
			m.framesByRelPC[relPC] = append(m.framesByRelPC[relPC], id)
			m.collab.notifier.OnFrameCreated(id)
		}
		return id
	}

	key := FrameKey{RelPC: relPC, FuncNameID: m.collab.strings.Intern(functionName)}
	if id, ok := m.internedFrames[key]; ok {
		return id
	}

	id := m.collab.frameTable.InsertFrame(m.id, relPC)
	m.internedFrames[key] = id
	m.framesByRelPC[relPC] = append(m.framesByRelPC[relPC], id)
	m.collab.notifier.OnFrameCreated(id)
	return id
}

// FindFrameIds returns the frame ids previously interned at relPC, in
// creation order, or nil if none.
func (m *Mapping) FindFrameIds(relPC uint64) []FrameId {
	return m.framesByRelPC[relPC]
}
