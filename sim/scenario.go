package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Scenario describes a whole simulation: topology, workload and links, built
// in file order. Zero-valued optional fields mean "not set".
type Scenario struct {
	Policy      string           `yaml:"policy"`
	Datacenters int              `yaml:"datacenters"`
	OrphanHosts []HostConfig     `yaml:"orphan_hosts"`
	Hosts       []HostConfig     `yaml:"hosts"`
	Vms         []VmConfig       `yaml:"vms"`
	Cloudlets   []CloudletConfig `yaml:"cloudlets"`
	Links       []LinkConfig     `yaml:"links"`
}

// HostConfig describes one or more identical hosts.
type HostConfig struct {
	Ram       int    `yaml:"ram"`
	Bandwidth int64  `yaml:"bandwidth"`
	Storage   int64  `yaml:"storage"`
	Pes       int    `yaml:"pes"`
	Scheduler string `yaml:"scheduler"`
	Count     int    `yaml:"count"`
	// Datacenter is the index of the datacenter to attach to. Nil attaches
	// to the current datacenter (the last one created).
	Datacenter *int `yaml:"datacenter"`
}

// VmConfig describes one or more identical VMs.
type VmConfig struct {
	Mips      float64 `yaml:"mips"`
	Pes       int     `yaml:"pes"`
	Ram       int     `yaml:"ram"`
	Bandwidth int64   `yaml:"bandwidth"`
	Size      int64   `yaml:"size"`
	Scheduler string  `yaml:"scheduler"`
	Count     int     `yaml:"count"`
}

// CloudletConfig describes one or more identical cloudlets.
type CloudletConfig struct {
	Length     int64 `yaml:"length"`
	Pes        int   `yaml:"pes"`
	FileSize   int64 `yaml:"file_size"`
	OutputSize int64 `yaml:"output_size"`
	Count      int   `yaml:"count"`
}

// LinkConfig describes a network link between two endpoints.
type LinkConfig struct {
	From      string  `yaml:"from"`
	To        string  `yaml:"to"`
	Bandwidth float64 `yaml:"bandwidth"`
	Latency   float64 `yaml:"latency"`
}

// Spec converts the config to a host spec.
func (c HostConfig) Spec() HostSpec {
	return HostSpec{
		Ram:         c.Ram,
		Bandwidth:   c.Bandwidth,
		Storage:     c.Storage,
		Pes:         c.Pes,
		VmScheduler: ParseSchedulingDiscipline(c.Scheduler),
	}
}

// Spec converts the config to a VM spec.
func (c VmConfig) Spec() VmSpec {
	return VmSpec{
		Mips:              c.Mips,
		Pes:               c.Pes,
		Ram:               c.Ram,
		Bandwidth:         c.Bandwidth,
		Size:              c.Size,
		CloudletScheduler: ParseSchedulingDiscipline(c.Scheduler),
	}
}

// Spec converts the config to a cloudlet spec.
func (c CloudletConfig) Spec() CloudletSpec {
	return CloudletSpec{Length: c.Length, Pes: c.Pes, FileSize: c.FileSize, OutputSize: c.OutputSize}
}

// Replicas returns how many entities a config with the given count creates.
func Replicas(count int) int {
	if count == 0 {
		return 1
	}
	return count
}

// EndpointKind tells how a link endpoint is resolved to an entity ID.
type EndpointKind int

const (
	EndpointBroker EndpointKind = iota
	EndpointDatacenter
	EndpointID
)

// Endpoint is a parsed link endpoint. Value is the datacenter index for
// EndpointDatacenter and the literal ID for EndpointID.
type Endpoint struct {
	Kind  EndpointKind
	Value int
}

// ParseEndpoint accepts "broker", "datacenter-<index>" or a literal integer ID.
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "broker":
		return Endpoint{Kind: EndpointBroker}, nil
	case strings.HasPrefix(s, "datacenter-"):
		idx, err := strconv.Atoi(strings.TrimPrefix(s, "datacenter-"))
		if err != nil || idx < 0 {
			return Endpoint{}, fmt.Errorf("invalid datacenter endpoint %q", s)
		}
		return Endpoint{Kind: EndpointDatacenter, Value: idx}, nil
	default:
		id, err := strconv.Atoi(s)
		if err != nil {
			return Endpoint{}, fmt.Errorf("invalid link endpoint %q (want broker, datacenter-<index> or an id)", s)
		}
		return Endpoint{Kind: EndpointID, Value: id}, nil
	}
}

// LoadScenario reads and strictly parses a YAML scenario from fs.
func LoadScenario(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes a YAML scenario, rejecting unknown fields.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &sc, nil
}

// Validate reports every problem in the scenario at once.
func (s *Scenario) Validate() error {
	var result *multierror.Error

	if !IsValidAllocationPolicy(s.Policy) {
		result = multierror.Append(result, fmt.Errorf("unknown allocation policy %q", s.Policy))
	}
	if s.Datacenters < 0 {
		result = multierror.Append(result, fmt.Errorf("datacenters must be non-negative, got %d", s.Datacenters))
	}

	for i, h := range s.OrphanHosts {
		if h.Datacenter != nil {
			result = multierror.Append(result, fmt.Errorf("orphan_hosts[%d]: datacenter must not be set", i))
		}
		result = appendCountErr(result, "orphan_hosts", i, h.Count)
		result = appendSchedulerErr(result, "orphan_hosts", i, h.Scheduler)
		if err := h.Spec().Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("orphan_hosts[%d]: %w", i, err))
		}
	}
	for i, h := range s.Hosts {
		if h.Datacenter != nil && (*h.Datacenter < 0 || *h.Datacenter >= s.Datacenters) {
			result = multierror.Append(result, fmt.Errorf("hosts[%d]: datacenter index %d out of range [0,%d)", i, *h.Datacenter, s.Datacenters))
		}
		result = appendCountErr(result, "hosts", i, h.Count)
		result = appendSchedulerErr(result, "hosts", i, h.Scheduler)
		if err := h.Spec().Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("hosts[%d]: %w", i, err))
		}
	}
	for i, v := range s.Vms {
		result = appendCountErr(result, "vms", i, v.Count)
		result = appendSchedulerErr(result, "vms", i, v.Scheduler)
		if err := v.Spec().Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("vms[%d]: %w", i, err))
		}
	}
	for i, c := range s.Cloudlets {
		result = appendCountErr(result, "cloudlets", i, c.Count)
		if err := c.Spec().Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("cloudlets[%d]: %w", i, err))
		}
	}
	for i, l := range s.Links {
		for _, ep := range []string{l.From, l.To} {
			e, err := ParseEndpoint(ep)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("links[%d]: %w", i, err))
				continue
			}
			if e.Kind == EndpointDatacenter && e.Value >= s.Datacenters {
				result = multierror.Append(result, fmt.Errorf("links[%d]: datacenter index %d out of range [0,%d)", i, e.Value, s.Datacenters))
			}
		}
		if l.Bandwidth <= 0 {
			result = multierror.Append(result, fmt.Errorf("links[%d]: bandwidth must be positive, got %v", i, l.Bandwidth))
		}
		if l.Latency < 0 {
			result = multierror.Append(result, fmt.Errorf("links[%d]: latency must be non-negative, got %v", i, l.Latency))
		}
	}

	return result.ErrorOrNil()
}

func appendCountErr(result *multierror.Error, section string, i, count int) *multierror.Error {
	if count < 0 {
		return multierror.Append(result, fmt.Errorf("%s[%d]: count must be non-negative, got %d", section, i, count))
	}
	return result
}

// appendSchedulerErr rejects scheduler names Spec would silently map to
// TimeShared.
func appendSchedulerErr(result *multierror.Error, section string, i int, name string) *multierror.Error {
	if !ValidSchedulingDisciplines[name] {
		return multierror.Append(result, fmt.Errorf("%s[%d]: unknown scheduler %q", section, i, name))
	}
	return result
}
