package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_NextID_StartsAfterBase(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, DefaultIDBase+1, r.NextID())
	assert.Equal(t, DefaultIDBase+2, r.NextID())
	assert.Equal(t, DefaultIDBase+2, r.LastID())
}

func TestRegistry_IDsStrictlyIncreaseAcrossKinds(t *testing.T) {
	// GIVEN a registry and a topology sharing it
	r := NewRegistry()
	topo := NewTopology(r)

	// WHEN entities of every kind are interleaved
	var ids []int
	dc, err := topo.CreateDatacenter(nil)
	require.NoError(t, err)
	ids = append(ids, dc.ID)
	h, err := topo.CreateHost(HostSpec{Ram: 1024, Pes: 1})
	require.NoError(t, err)
	ids = append(ids, h.ID)
	vm, err := r.CreateVm(r.NextID(), VmSpec{Mips: 1000, Pes: 1, Ram: 128})
	require.NoError(t, err)
	ids = append(ids, vm.BrokerID, vm.ID)
	cl, err := r.CreateCloudlet(vm.BrokerID, CloudletSpec{Length: 100, Pes: 1})
	require.NoError(t, err)
	ids = append(ids, cl.ID)
	h2, err := topo.CreateHost(HostSpec{Ram: 1024, Pes: 1})
	require.NoError(t, err)
	ids = append(ids, h2.ID)

	// THEN every ID is strictly greater than all earlier ones
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1], "id %d at position %d", ids[i], i)
	}
}

func TestRegistry_CreateVm_InvalidSpec_NoIDConsumed(t *testing.T) {
	// GIVEN a registry
	r := NewRegistry()
	before := r.LastID()

	// WHEN a VM with zero PEs is requested
	_, err := r.CreateVm(1, VmSpec{Mips: 1000, Pes: 0, Ram: 128})

	// THEN the request fails as an invalid spec and no ID is issued
	require.ErrorIs(t, err, ErrInvalidSpec)
	assert.Equal(t, before, r.LastID())
	assert.Empty(t, r.Vms())
}

func TestRegistry_CreateCloudlet_InvalidSpec(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateCloudlet(1, CloudletSpec{Length: 0, Pes: 1})
	require.ErrorIs(t, err, ErrInvalidSpec)
	_, err = r.CreateCloudlet(1, CloudletSpec{Length: 10, Pes: 1, FileSize: -1})
	require.ErrorIs(t, err, ErrInvalidSpec)
}

func TestRegistry_Lookups(t *testing.T) {
	r := NewRegistry()
	vm, err := r.CreateVm(1, VmSpec{Mips: 500, Pes: 2, Ram: 256})
	require.NoError(t, err)
	cl, err := r.CreateCloudlet(1, CloudletSpec{Length: 1000, Pes: 1})
	require.NoError(t, err)

	got, ok := r.Vm(vm.ID)
	require.True(t, ok)
	assert.Same(t, vm, got)
	gotCl, ok := r.Cloudlet(cl.ID)
	require.True(t, ok)
	assert.Same(t, cl, gotCl)
	_, ok = r.Host(vm.ID)
	assert.False(t, ok, "a VM id must not resolve to a host")
	_, ok = r.Datacenter(cl.ID)
	assert.False(t, ok)
}

func TestRegistry_ClearWorkload_KeepsCounter(t *testing.T) {
	// GIVEN a registry holding workload
	r := NewRegistry()
	vm, err := r.CreateVm(1, VmSpec{Mips: 500, Pes: 1, Ram: 256})
	require.NoError(t, err)
	_, err = r.CreateCloudlet(1, CloudletSpec{Length: 1000, Pes: 1})
	require.NoError(t, err)

	// WHEN the workload is cleared
	r.ClearWorkload()

	// THEN the lists are empty and new IDs continue from the old counter
	assert.Empty(t, r.Vms())
	assert.Empty(t, r.Cloudlets())
	_, ok := r.Vm(vm.ID)
	assert.False(t, ok)
	assert.Greater(t, r.NextID(), vm.ID)
}

func TestRegistry_ListsAreCopies(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateVm(1, VmSpec{Mips: 500, Pes: 1, Ram: 256})
	require.NoError(t, err)

	vms := r.Vms()
	vms[0] = nil

	assert.NotNil(t, r.Vms()[0])
}
