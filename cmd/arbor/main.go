// Arbor CLI - loads a behavior tree definition and drives it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/arbor/pkg/bt"
	"github.com/chazu/arbor/pkg/btdef"
	"github.com/chazu/arbor/pkg/btstore"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	// os.Exit skips deferred closes, so run owns the store lifetime.
	os.Exit(run())
}

func run() int {
	ticks := flag.Int("ticks", 1, "Number of ticks to drive the tree")
	dbPath := flag.String("db", "", "SQLite fact store path (default: in-memory facts)")
	verbose := flag.Bool("v", false, "Verbose output")
	snapshot := flag.Bool("snapshot", false, "Take a fact snapshot after the run (requires -db)")
	restore := flag.String("restore", "", "Restore the fact snapshot with this id before the run (requires -db)")
	listSnapshots := flag.Bool("list-snapshots", false, "List stored snapshots and exit (requires -db)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: arbor [options] <tree.toml>\n\n")
		fmt.Fprintf(os.Stderr, "Loads a behavior tree definition and ticks it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  arbor patrol.toml                    # One tick against in-memory facts\n")
		fmt.Fprintf(os.Stderr, "  arbor -ticks 10 patrol.toml          # Drive ten ticks\n")
		fmt.Fprintf(os.Stderr, "  arbor -db agent.db patrol.toml       # Facts persist across runs\n")
		fmt.Fprintf(os.Stderr, "  arbor -db agent.db -snapshot patrol.toml\n")
		fmt.Fprintf(os.Stderr, "  arbor -db agent.db -list-snapshots\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	var board bt.Blackboard
	var store *btstore.Store
	if *dbPath != "" {
		var err error
		store, err = btstore.Open(*dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer store.Close()
		board = store
	}

	if *listSnapshots {
		if store == nil {
			fmt.Fprintln(os.Stderr, "Error: -list-snapshots requires -db")
			return 1
		}
		infos, err := store.Snapshots()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		for _, info := range infos {
			fmt.Printf("%s  %s\n", info.ID, info.TakenAt.Format("2006-01-02 15:04:05"))
		}
		return 0
	}

	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}

	if *restore != "" {
		if store == nil {
			fmt.Fprintln(os.Stderr, "Error: -restore requires -db")
			return 1
		}
		if err := store.Restore(*restore); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if *verbose {
			fmt.Printf("Restored snapshot %s\n", *restore)
		}
	}

	def, err := btdef.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	tree, err := def.Build(bt.NewRegistry(), board, btdef.Bindings{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *verbose && def.Tree.Name != "" {
		fmt.Printf("Tree: %s\n", def.Tree.Name)
	}

	var last bt.Outcome
	for i := 0; i < *ticks; i++ {
		last = tree.Tick()
		if *verbose {
			fmt.Printf("tick %d: %s\n", i+1, last)
		}
	}
	fmt.Println(last)

	if *snapshot {
		if store == nil {
			fmt.Fprintln(os.Stderr, "Error: -snapshot requires -db")
			return 1
		}
		id, err := store.Snapshot()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("snapshot %s\n", id)
	}

	if last == bt.Invalid {
		return 1
	}
	return 0
}
