// Command accidents runs the exploratory analysis of a traffic accident CSV:
// console summaries, PNG figures, an HTML report, an XLSX workbook and a run
// history database that can be browsed with -serve.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/accident.report/internal/api"
	"github.com/banshee-data/accident.report/internal/config"
	"github.com/banshee-data/accident.report/internal/db"
	"github.com/banshee-data/accident.report/internal/monitoring"
	"github.com/banshee-data/accident.report/internal/report"
	"github.com/banshee-data/accident.report/internal/timeutil"
	"github.com/banshee-data/accident.report/internal/version"
)

var (
	csvPath     = flag.String("csv", "", "Accident CSV file to analyse")
	configPath  = flag.String("config", "", "Analysis config JSON (defaults are built in)")
	rows        = flag.Int("rows", 0, "Rows to load, overriding sample_rows (0 or less reads every row)")
	outputDir   = flag.String("output", "plots", "Base directory for run output")
	dbPath      = flag.String("db", "accidents.db", "Run history database (empty disables recording)")
	serve       = flag.Bool("serve", false, "Serve the report and run history after the run")
	listen      = flag.String("listen", ":8080", "Listen address for -serve")
	assetsHost  = flag.String("assets", report.DefaultAssetsHost, "Base URL of the echarts assets used by the HTML report")
	quiet       = flag.Bool("quiet", false, "Suppress progress logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -csv accidents.csv [flags]\n", os.Args[0])
	fmt.Fprintf(flag.CommandLine.Output(), "       %s [-db path] migrate <up|down|status|force N|help>\n\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *quiet {
		monitoring.SetLogger(nil)
	}

	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		if *dbPath == "" {
			log.Fatal("migrate needs -db")
		}
		if err := db.RunMigrateCommand(os.Stdout, flag.Args()[1:], *dbPath); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, flagsSet())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var database *db.DB
	if *dbPath != "" {
		database, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer database.Close()
	}

	res, err := runPipeline(options{
		CSV:        *csvPath,
		Config:     cfg,
		OutputBase: *outputDir,
		AssetsHost: *assetsHost,
		DB:         database,
	}, timeutil.RealClock{}, os.Stdout)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}
	fmt.Printf("Output written to %s\n", res.OutputDir)

	if !*serve {
		return
	}
	if database == nil {
		log.Fatal("-serve needs -db")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux, err := api.NewServer(database, res.OutputDir).ServeMux()
	if err != nil {
		log.Fatalf("failed to build routes: %v", err)
	}
	if err := api.ListenAndServe(ctx, *listen, api.LoggingMiddleware(mux)); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// flagsSet returns the names of the flags given on the command line.
func flagsSet() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// loadConfig reads the config file when one is given, otherwise the built-in
// defaults, and applies the command line overrides that were set.
func loadConfig(path string, set map[string]bool) (*config.AnalysisConfig, error) {
	cfg := config.DefaultAnalysisConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadAnalysisConfig(path); err != nil {
			return nil, err
		}
	}
	if set["rows"] {
		n := *rows
		cfg.SampleRows = &n
	}
	return cfg, nil
}
