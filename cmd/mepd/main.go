package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abhipalit3/configur-mep/internal/api"
	"github.com/abhipalit3/configur-mep/internal/config"
	"github.com/abhipalit3/configur-mep/internal/fsutil"
	"github.com/abhipalit3/configur-mep/internal/mep"
	"github.com/abhipalit3/configur-mep/internal/monitor"
	"github.com/abhipalit3/configur-mep/internal/rack"
	"github.com/abhipalit3/configur-mep/internal/security"
	"github.com/abhipalit3/configur-mep/internal/store"
	"github.com/abhipalit3/configur-mep/internal/version"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode     = flag.Bool("dev", false, "Serve static files from ./static instead of the embedded copy")
	listen      = flag.String("listen", ":8080", "Listen address")
	dbPath      = flag.String("db", "mep_items.db", "Path to the sqlite item store")
	tuningPath  = flag.String("tuning", "", "Optional tuning config JSON")
	rackPath    = flag.String("rack", "", "Optional rack geometry JSON")
	legacyItems = flag.String("legacy-items", "", "Optional legacy item JSON used to seed an empty store")
	legacyTemp  = flag.String("legacy-temp", "", "Optional msgpack temp-state snapshot used to seed an empty store")
	manifestURL = flag.String("manifest-url", "", "Optional manifest webhook notified after every write")
	tempOut     = flag.String("temp-state", "", "Optional msgpack temp-state snapshot written on shutdown")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// defaultGeometry is the demo rack served when no -rack file is given:
// two 0.40 m tiers on 1.20 m wide posts.
func defaultGeometry() rack.Geometry {
	return rack.Geometry{
		LengthFt: 12,
		Beams: []rack.Beam{
			{Y: 1.40, Face: rack.FaceBeamBottom},
			{Y: 1.00, Face: rack.FaceBeamTop},
			{Y: 0.90, Face: rack.FaceBeamBottom},
			{Y: 0.50, Face: rack.FaceBeamTop},
		},
		Posts: []rack.Post{
			{Z: 0.60, Side: rack.SideLeft},
			{Z: -0.60, Side: rack.SideRight},
		},
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("configur-mep %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	log.Printf("configur-mep %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	// snapshot and seed files must stay near the store, in tmp, or
	// under the working directory
	dataDir := filepath.Dir(*dbPath)
	for name, path := range map[string]string{
		"legacy-items": *legacyItems,
		"legacy-temp":  *legacyTemp,
		"temp-state":   *tempOut,
	} {
		if path == "" {
			continue
		}
		if err := security.ValidateProjectPath(path, dataDir); err != nil {
			log.Fatalf("invalid -%s path: %v", name, err)
		}
	}

	fsys := fsutil.OSFileSystem{}

	tuning := config.EmptyTuning()
	if *tuningPath != "" {
		t, err := config.LoadTuning(fsys, *tuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		tuning = t
	}

	geom := defaultGeometry()
	if *rackPath != "" {
		g, err := rack.LoadGeometry(fsys, *rackPath)
		if err != nil {
			log.Fatalf("failed to load rack geometry: %v", err)
		}
		geom = g
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open item store: %v", err)
	}
	defer db.Close()

	gateway, err := store.NewGateway(db)
	if err != nil {
		log.Fatalf("failed to load item gateway: %v", err)
	}
	defer gateway.Close()

	if *manifestURL != "" {
		gateway.SetManifestHook(store.NewManifestHook(nil, *manifestURL))
	}

	if *legacyItems != "" || *legacyTemp != "" {
		n, err := store.SeedFromLegacy(gateway, fsys, *legacyItems, *legacyTemp)
		if err != nil {
			log.Fatalf("failed to seed from legacy stores: %v", err)
		}
		if n > 0 {
			log.Printf("seeded %d items from legacy stores", n)
		}
	}

	engine, err := mep.NewEngine(mep.Options{
		Geometry: geom,
		Gateway:  gateway,
		Tuning:   tuning,
	})
	if err != nil {
		log.Fatalf("failed to build editing engine: %v", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()

	// mount the admin debugging routes and the occupancy dashboard
	db.AttachAdminRoutes(mux)
	monitor.NewServer(monitor.Options{
		Gateway: gateway,
		Rack:    engine.RackIndex(),
	}).AttachRoutes(mux)

	// mount the JSON editing API
	mux.Handle("/api/mep/", api.NewServer(engine).ServeMux())

	// read static files from the embedded filesystem in production or
	// from the local ./static in dev for easier iteration without
	// restarting the server
	var staticHandler http.Handler
	if *devMode {
		staticHandler = http.FileServer(http.Dir("./static"))
	} else {
		sub, err := fs.Sub(staticFiles, "static")
		if err != nil {
			log.Fatalf("failed to open embedded static files: %v", err)
		}
		staticHandler = http.FileServer(http.FS(sub))
	}
	mux.Handle("/", staticHandler)

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		log.Printf("listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if *tempOut != "" {
		items, err := gateway.ReadAll()
		if err != nil {
			log.Printf("failed to read items for the temp-state snapshot: %v", err)
		} else if err := store.WriteTempState(fsys, *tempOut, store.TempStateOf(items, time.Now())); err != nil {
			log.Printf("failed to write temp-state snapshot: %v", err)
		} else {
			log.Printf("wrote temp-state snapshot to %s", *tempOut)
		}
	}

	log.Printf("Graceful shutdown complete")
}
