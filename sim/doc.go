// Package sim provides the core model of the cloud placement simulator.
//
// # Reading Guide
//
// Start with these files to understand the model:
//   - entity.go: Datacenter, Vm and Cloudlet, plus the scheduling disciplines
//   - host.go: Host capacity bookkeeping (RAM, bandwidth, storage, PEs)
//   - allocation.go: the VM-to-host placement policies (simple, best-fit)
//   - results.go: turning completed cloudlets into rows and a summary
//
// # Architecture
//
// The sim package defines the model, the placement policies and the
// interfaces of its collaborators; implementations live in sub-packages:
//   - sim/engine/: discrete-event engine (broker protocol, cloudlet execution)
//   - sim/network/: entity-to-entity links and message delays
//   - sim/cluster/: the Orchestrator that sequences a full simulation run
//   - sim/trace/: placement decision records
//
// Sub-packages register their implementations via init() functions that set
// package-level factory variables (NewEngineFunc, NewLinkTopologyFunc).
//
// # Key Interfaces
//
//   - AllocationPolicy: choose a host for a VM and keep the VM-to-host mapping
//   - HostSource: the live, ordered host list a policy scans
//   - Engine: submit workload, start/stop/pause/resume, read completions
//   - LinkTopology: register entities, add links, derive delays
package sim
