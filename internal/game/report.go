package game

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// reportLogTail is how many trailing log entries a settlement report includes.
const reportLogTail = 20

// BuildSettlementReport renders a plain-text snapshot of the session:
// census, treasury, per-resource totals, building roster, and the tail of
// the simulation log. Pasteable into a bug report as-is.
func BuildSettlementReport(s *Simulation) string {
	stats := s.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "--- settlement report ---\n")
	fmt.Fprintf(&b, "session=%s tick=%s\n", s.SessionID(), humanize.Comma(int64(s.Tick())))
	fmt.Fprintf(&b, "treasury=%s gold\n\n", humanize.Comma(int64(stats.TreasuryGold)))

	fmt.Fprintf(&b, "population: %d/%d housed, %d/%d employed\n",
		stats.Population, stats.HousingRoom, stats.WorkersHired, stats.WorkersWanted)
	fmt.Fprintf(&b, "buildings:  %d houses, %d producers, %d storages, %d services\n",
		stats.HouseCount, stats.ProducerCount, stats.StorageCount, stats.ServiceCount)
	fmt.Fprintf(&b, "activity:   %d units walking, %d tasks in flight\n\n",
		stats.UnitCount, stats.TaskCount)

	b.WriteString("stored resources:\n")
	any := false
	ForEachResourceKind(AllResources, func(kind ResourceKind) bool {
		if n := stats.StoredCount(kind); n > 0 {
			fmt.Fprintf(&b, "  %-8s %s\n", kind, humanize.Comma(int64(n)))
			any = true
		}
		return true
	})
	if !any {
		b.WriteString("  (none)\n")
	}

	b.WriteString("\nbuilding roster:\n")
	s.World().ForEachBuilding(func(bld *Building) bool {
		w := ""
		if workers := bld.Behavior.Workers(); workers != nil {
			w = fmt.Sprintf(" workers=%d/%d", workers.Count, workers.Max)
		}
		fmt.Fprintf(&b, "  %-14s (%d,%d) %dx%d%s\n",
			bld.Name, bld.BaseCell.X, bld.BaseCell.Y, bld.Size.W, bld.Size.H, w)
		return true
	})

	entries := s.Log().Entries()
	if len(entries) > 0 {
		from := maxInt(0, len(entries)-reportLogTail)
		fmt.Fprintf(&b, "\nlog tail (%d of %d):\n", len(entries)-from, len(entries))
		for _, e := range entries[from:] {
			b.WriteString("  ")
			b.WriteString(e.String())
			b.WriteByte('\n')
		}
	}
	return b.String()
}
