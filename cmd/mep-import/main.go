package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/abhipalit3/configur-mep/internal/fsutil"
	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/security"
	"github.com/abhipalit3/configur-mep/internal/store"
)

func main() {
	var dbPath string
	var itemsPath string
	var tempPath string
	var replace bool

	flag.StringVar(&dbPath, "db", "mep_items.db", "path to the sqlite item store")
	flag.StringVar(&itemsPath, "items", "", "legacy item JSON file (browser localStorage shape)")
	flag.StringVar(&tempPath, "temp", "", "legacy msgpack temp-state snapshot")
	flag.BoolVar(&replace, "replace", false, "replace a non-empty store instead of refusing")
	flag.Parse()

	if itemsPath == "" && tempPath == "" {
		log.Fatalf("at least one of -items or -temp is required")
	}
	for _, p := range []string{itemsPath, tempPath} {
		if p == "" {
			continue
		}
		if err := security.ValidateProjectPath(p, filepath.Dir(dbPath)); err != nil {
			log.Fatalf("refusing legacy path: %v", err)
		}
	}

	fsys := fsutil.OSFileSystem{}

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

	existing, err := gateway.ReadAll()
	if err != nil {
		log.Fatalf("read store: %v", err)
	}
	if len(existing) > 0 && !replace {
		log.Fatalf("store already holds %d items; pass -replace to overwrite", len(existing))
	}

	var items []mep.Item
	if itemsPath != "" {
		items, err = store.ReadLegacyItems(fsys, itemsPath)
		if err != nil {
			log.Fatalf("read legacy items: %v", err)
		}
	}
	if len(items) == 0 && tempPath != "" {
		st, err := store.ReadTempState(fsys, tempPath)
		if err != nil {
			log.Fatalf("read temp state: %v", err)
		}
		items = st.CanonicalItems()
	}
	if len(items) == 0 {
		log.Fatalf("no usable records in the legacy stores")
	}

	if err := gateway.ReplaceAll(items); err != nil {
		log.Fatalf("write items: %v", err)
	}
	fmt.Printf("imported %d items into %s\n", len(items), dbPath)
}
