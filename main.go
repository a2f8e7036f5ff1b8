package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/memmaker/lockstep/engine/fixed"
	"github.com/memmaker/lockstep/engine/snapshot"
	"github.com/memmaker/lockstep/engine/util"
	"github.com/memmaker/lockstep/engine/wire"
	"github.com/memmaker/lockstep/engine/world"
	"golang.org/x/term"
)

var (
	ticks      int
	configPath string
	outPath    string
	verify     bool
	verbose    bool
)

func init() {
	flag.IntVar(&ticks, "ticks", 600, "number of ticks to simulate")
	flag.StringVar(&configPath, "config", "", "world config JSON (defaults when empty)")
	flag.StringVar(&outPath, "out", "", "write the final snapshot to this file")
	flag.BoolVar(&verify, "verify", false, "run the scenario twice and compare every tick digest")
	flag.BoolVar(&verbose, "v", false, "debug logging for world and integrator")
}

func main() {
	flag.Parse()
	if err := run(os.Stdout); err != nil {
		util.LogSystemError(fmt.Sprintf("lockstep: %v", err))
		os.Exit(1)
	}
}

func run(out *os.File) error {
	if verbose {
		util.GLOBAL_LOG_LEVEL = util.LogLevelDebug
		util.GLOBAL_LOG_CATEGORIES |= util.LogIntegrator | util.LogCollision | util.LogNumeric
	}
	cfg := world.DefaultConfig()
	if configPath != "" {
		loaded, err := world.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	tbl := fixed.NewTable()
	crc := wire.NewCRCTable()
	timer := util.NewTimer()
	rep := newReporter(out)

	rep.header()
	result, err := runScenario(cfg, tbl, crc, ticks, timer, rep.tick)
	if err != nil {
		return err
	}

	if verify {
		again, err := runScenario(cfg, tbl, crc, ticks, util.NewTimer(), nil)
		if err != nil {
			return err
		}
		if i := firstDivergence(result.reports, again.reports); i >= 0 {
			return fmt.Errorf("desync at report %d: %+v vs %+v", i, at(result.reports, i), at(again.reports, i))
		}
		fmt.Fprintf(out, "verified %d ticks: runs are identical\n", len(result.reports))
	}

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		stop := timer.Start("encode")
		err = snapshot.Encode(f, snapshot.Capture(result.sim), crc)
		stop()
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
	}

	fmt.Fprint(out, timer.String())
	util.LogSystemInfo(fmt.Sprintf("ran %d ticks, final digest %08x", result.sim.Tick(), lastDigest(result.reports)))
	return nil
}

func lastDigest(reports []TickReport) uint32 {
	if len(reports) == 0 {
		return 0
	}
	return reports[len(reports)-1].Digest
}

func at(reports []TickReport, i int) TickReport {
	if i < len(reports) {
		return reports[i]
	}
	return TickReport{}
}

// reporter prints an aligned table on a terminal and tab-separated lines otherwise.
type reporter struct {
	w           io.Writer
	interactive bool
	width       int
}

func newReporter(f *os.File) *reporter {
	r := &reporter{w: f, width: 80}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		r.interactive = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			r.width = w
		}
	}
	return r
}

func (r *reporter) header() {
	if !r.interactive {
		fmt.Fprintln(r.w, "tick\tcontacts\tdeepest\tdigest")
		return
	}
	fmt.Fprintf(r.w, "%8s %9s %12s %10s\n", "tick", "contacts", "deepest", "digest")
	fmt.Fprintln(r.w, strings.Repeat("-", min(r.width, 42)))
}

func (r *reporter) tick(t TickReport) {
	if !r.interactive {
		fmt.Fprintf(r.w, "%d\t%d\t%s\t%08x\n", t.Tick, t.Contacts, t.Deepest, t.Digest)
		return
	}
	fmt.Fprintf(r.w, "%8d %9d %12s %10s\n", t.Tick, t.Contacts, t.Deepest, fmt.Sprintf("%08x", t.Digest))
}
