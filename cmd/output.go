package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/inference-sim/cloudsim/sim"
	"github.com/inference-sim/cloudsim/sim/cluster"
	"github.com/inference-sim/cloudsim/sim/trace"
)

const megabyte = 1 << 20

// printResults writes one row per completed cloudlet, the summary and the
// run metrics.
func printResults(w io.Writer, rs *sim.ResultSet) {
	table := setupTable(w, []string{"CLOUDLET", "STATUS", "DATACENTER", "VM", "START", "FINISH", "LENGTH"})
	for _, r := range rs.Rows {
		table.Append([]string{
			strconv.Itoa(r.CloudletID),
			r.Status,
			strconv.Itoa(r.DatacenterID),
			strconv.Itoa(r.VmID),
			fmt.Sprintf("%.2f", r.StartTime),
			fmt.Sprintf("%.2f", r.FinishTime),
			strconv.FormatInt(r.Length, 10),
		})
	}
	table.Render()
	fmt.Fprintln(w, rs.Summary)
	fmt.Fprintf(w, "Mean execution time: %.2f\n", rs.Summary.MeanExecTime)

	m := cluster.CollectRunMetrics(rs)
	fmt.Fprintf(w, "Succeeded: %d | Failed: %d\n", m.Succeeded, m.Failed)
	printDistribution(w, "Execution time", m.ExecTime)
	printDistribution(w, "Start time", m.StartTime)
	fmt.Fprintf(w, "Throughput: %.4f cloudlets/s | %.2f MI/s\n", m.CloudletsPerSec, m.MIPerSec)
}

func printDistribution(w io.Writer, name string, d cluster.Distribution) {
	fmt.Fprintf(w, "%s: min %.2f | p50 %.2f | p95 %.2f | p99 %.2f | max %.2f\n",
		name, d.Min, d.P50, d.P95, d.P99, d.Max)
}

// printHosts writes the capacity and remaining RAM of every host.
func printHosts(w io.Writer, hosts []*sim.Host) {
	table := setupTable(w, []string{"HOST", "DATACENTER", "PES", "RAM", "FREE RAM", "STORAGE", "SCHEDULER"})
	for _, h := range hosts {
		dc := "-"
		if h.DatacenterID >= 0 {
			dc = strconv.Itoa(h.DatacenterID)
		}
		table.Append([]string{
			strconv.Itoa(h.ID),
			dc,
			strconv.Itoa(h.Pes()),
			humanize.IBytes(uint64(h.TotalRam()) * megabyte),
			humanize.IBytes(uint64(h.AvailableRam()) * megabyte),
			humanize.IBytes(uint64(h.TotalStorage()) * megabyte),
			string(h.VmScheduler()),
		})
	}
	table.Render()
}

func setupTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// printPlacements writes placement decision counts and, when tracing is on,
// how many VMs each host received.
func printPlacements(w io.Writer, o *cluster.Orchestrator) {
	counts, err := o.PlacementMetrics().DecisionCounts()
	if err != nil {
		fmt.Fprintf(w, "Placement metrics unavailable: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Placements: %.0f placed, %.0f forced, %.0f rejected\n",
		counts[cluster.OutcomePlaced], counts[cluster.OutcomeForced], counts[cluster.OutcomeRejected])

	st := o.Trace()
	if st == nil {
		return
	}
	summary := trace.Summarize(st)
	hosts := make([]int, 0, len(summary.HostDistribution))
	for id := range summary.HostDistribution {
		hosts = append(hosts, id)
	}
	sort.Ints(hosts)
	for _, id := range hosts {
		fmt.Fprintf(w, "  host %d: %d vm(s)\n", id, summary.HostDistribution[id])
	}
}
