package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/abhipalit3/configur-mep/internal/arrange"
	"github.com/abhipalit3/configur-mep/internal/fsutil"
	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/store"
)

func main() {
	var dbPath string
	var rackPath string
	var population int
	var generations int
	var seed int64
	var apply bool
	var jsonOut bool

	flag.StringVar(&dbPath, "db", "mep_items.db", "path to the sqlite item store")
	flag.StringVar(&rackPath, "rack", "", "rack geometry JSON (required)")
	flag.IntVar(&population, "population", 0, "population size (0 uses the default)")
	flag.IntVar(&generations, "generations", 0, "generation count (0 uses the default)")
	flag.Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	flag.BoolVar(&apply, "apply", false, "move the stored items onto the computed placements")
	flag.BoolVar(&jsonOut, "json", false, "print the full result as JSON")
	flag.Parse()

	if rackPath == "" {
		log.Fatalf("rack geometry is required")
	}

	fsys := fsutil.OSFileSystem{}
	geom, err := rack.LoadGeometry(fsys, rackPath)
	if err != nil {
		log.Fatalf("load rack geometry: %v", err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("open item store: %v", err)
	}
	defer db.Close()

	gateway, err := store.NewGateway(db)
	if err != nil {
		log.Fatalf("load item gateway: %v", err)
	}
	defer gateway.Close()

	items, err := gateway.ReadAll()
	if err != nil {
		log.Fatalf("read items: %v", err)
	}

	res, err := arrange.Arrange(items, rack.NewIndex(geom), arrange.Config{
		PopulationSize: population,
		Generations:    generations,
		Seed:           seed,
	})
	if err != nil {
		log.Fatalf("arrange failed: %v", err)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			log.Fatalf("encode result: %v", err)
		}
	} else {
		fmt.Printf("arranged %d of %d items (fitness %.1f, seed %d)\n",
			len(res.Placements), len(items), res.Fitness, res.Seed)
		for _, tr := range res.Tiers {
			line := fmt.Sprintf("  tier %d: %d items (%d bottom, %d top), %.0f%% full, min height %.2f m",
				tr.Tier, tr.ItemCount, tr.BottomCount, tr.TopCount, tr.Utilization*100, tr.MinHeightM)
			if tr.Clash {
				line += " CLASH"
			}
			fmt.Println(line)
		}
		if len(res.Unplaced) > 0 {
			fmt.Printf("unplaced: %v\n", res.Unplaced)
		}
	}

	if !apply {
		return
	}

	engine, err := mep.NewEngine(mep.Options{Geometry: geom, Gateway: gateway})
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	applied, missing := arrange.Apply(engine, res.Placements)
	fmt.Printf("applied %d placements\n", applied)
	if len(missing) > 0 {
		fmt.Printf("missing from the scene: %v\n", missing)
	}
}
