package mapping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracequery/tracedb/internal/addrrange"
	"github.com/tracequery/tracedb/internal/intern"
	"github.com/tracequery/tracedb/internal/mapping"
)

type fakeFrameTable struct{ next mapping.FrameId }

func (f *fakeFrameTable) InsertFrame(mapping.MappingId, uint64) mapping.FrameId {
	f.next++
	return f.next
}

type fakeNotifier struct{ created []mapping.FrameId }

func (f *fakeNotifier) OnFrameCreated(id mapping.FrameId) { f.created = append(f.created, id) }

func newTestTracker() (*mapping.Tracker, *fakeFrameTable, *fakeNotifier) {
	ft := &fakeFrameTable{}
	nt := &fakeNotifier{}
	tr := mapping.New(ft, nt, intern.New())
	return tr, ft, nt
}

func rng(start, end uint64) addrrange.AddressRange {
	return addrrange.AddressRange{Start: start, End: end}
}

func TestKernelCoreIdempotent(t *testing.T) {
	tr, _, _ := newTestTracker()

	m1 := tr.CreateKernelMemoryMapping(mapping.CreateMappingParams{
		MemoryRange: rng(0x1000, 0x2000), Name: "/kernel",
	})
	m2 := tr.CreateKernelMemoryMapping(mapping.CreateMappingParams{
		MemoryRange: rng(0x1000, 0x2000), Name: "/kernel",
	})
	assert.Same(t, m1, m2)

	assert.Panics(t, func() {
		tr.CreateKernelMemoryMapping(mapping.CreateMappingParams{
			MemoryRange: rng(0x3000, 0x4000), Name: "/kernel",
		})
	})
}

func TestKernelModulesMustBeDisjoint(t *testing.T) {
	tr, _, _ := newTestTracker()
	tr.CreateKernelMemoryMapping(mapping.CreateMappingParams{
		MemoryRange: rng(0x1000, 0x2000), Name: "module_a.ko",
	})
	assert.Panics(t, func() {
		tr.CreateKernelMemoryMapping(mapping.CreateMappingParams{
			MemoryRange: rng(0x1800, 0x2800), Name: "module_b.ko",
		})
	})
}

func TestDefaultKernelMappingSentinel(t *testing.T) {
	tr, _, _ := newTestTracker()
	m := tr.GetOrCreateKernelMemoryMappingDefault()
	require.Equal(t, rng(0, 0), m.MemoryRange())
	require.Equal(t, ^uint64(0), m.LoadBias())
	require.Equal(t, "/kernel", m.Name())

	// Calling again must return the same singleton.
	assert.Same(t, m, tr.GetOrCreateKernelMemoryMappingDefault())
}

type fakeJitDelegate struct {
	tracker    *mapping.Tracker
	createdFor mapping.UniquePid
}

func (d *fakeJitDelegate) InternFrame(m *mapping.Mapping, relPC uint64, name string) (mapping.FrameId, bool) {
	return 0, false
}

func (d *fakeJitDelegate) CreateMapping() *mapping.Mapping {
	return d.tracker.CreateUserMemoryMapping(d.createdFor, mapping.CreateMappingParams{
		MemoryRange: rng(0, 0), Name: "[jit]",
	})
}

func TestJitWrapsUser(t *testing.T) {
	tr, _, _ := newTestTracker()
	delegate := &fakeJitDelegate{tracker: tr, createdFor: 7}

	tr.AddJitRange(7, rng(0x10000, 0x20000), delegate)

	m := tr.CreateUserMemoryMapping(7, mapping.CreateMappingParams{
		MemoryRange: rng(0x10100, 0x10200), Name: "libjit.so",
	})

	assert.Same(t, delegate, m.JitDelegate())
}

func TestAddJitRangeRequiresContainmentOfExistingMappings(t *testing.T) {
	tr, _, _ := newTestTracker()
	tr.CreateUserMemoryMapping(7, mapping.CreateMappingParams{
		MemoryRange: rng(0x10000, 0x20000), Name: "libfoo.so",
	})

	delegate := &fakeJitDelegate{tracker: tr, createdFor: 7}
	assert.Panics(t, func() {
		// Jit range only partially covers the existing mapping.
		tr.AddJitRange(7, rng(0x10000, 0x18000), delegate)
	})
}

func TestFindUserMappingForAddressFallsBackToJit(t *testing.T) {
	tr, _, _ := newTestTracker()
	delegate := &fakeJitDelegate{tracker: tr, createdFor: 9}
	tr.AddJitRange(9, rng(0x5000, 0x6000), delegate)

	got := tr.FindUserMappingForAddress(9, 0x5050)
	require.NotNil(t, got)
	assert.Equal(t, "[jit]", got.Name())

	assert.Nil(t, tr.FindUserMappingForAddress(9, 0x9999))
}

func TestInternMemoryMappingIsIdempotent(t *testing.T) {
	tr, _, _ := newTestTracker()
	params := mapping.CreateMappingParams{MemoryRange: rng(1, 2), Name: "libc.so"}

	m1 := tr.InternMemoryMapping(params)
	m2 := tr.InternMemoryMapping(params)
	assert.Same(t, m1, m2)
}

func TestFindMappingsPreservesInsertionOrder(t *testing.T) {
	tr, _, _ := newTestTracker()
	a := tr.CreateUserMemoryMapping(1, mapping.CreateMappingParams{MemoryRange: rng(0, 1), Name: "libc.so", BuildId: []byte("abc")})
	b := tr.CreateUserMemoryMapping(2, mapping.CreateMappingParams{MemoryRange: rng(0, 1), Name: "libc.so", BuildId: []byte("abc")})

	got := tr.FindMappings("libc.so", []byte("abc"))
	require.Len(t, got, 2)
	assert.Same(t, a, got[0])
	assert.Same(t, b, got[1])

	assert.Empty(t, tr.FindMappings("nope", nil))
}

func TestFrameInternIdempotenceAndNotification(t *testing.T) {
	tr, _, notifier := newTestTracker()
	m := tr.InternMemoryMapping(mapping.CreateMappingParams{MemoryRange: rng(0, 1), Name: "a.so"})

	id1 := m.InternFrame(0x10, "foo")
	id2 := m.InternFrame(0x10, "foo")
	assert.Equal(t, id1, id2)
	assert.Len(t, notifier.created, 1)

	id3 := m.InternFrame(0x10, "bar")
	assert.NotEqual(t, id1, id3)
	assert.Len(t, notifier.created, 2)

	ids := m.FindFrameIds(0x10)
	assert.Equal(t, []mapping.FrameId{id1, id3}, ids)
}
