package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"bilingual/internal/app"
	"bilingual/internal/config"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportProfile := exportCmd.String("profile", "", "Profile to export (not used with PROGRESS_STORE=lessons)")
	exportPin := exportCmd.String("pin", "", "PIN of the profile, if it has one")
	exportOutput := exportCmd.String("output", "", "Output file path (default: progress_PROFILE_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importProfile := importCmd.String("profile", "", "Profile to import into (not used with PROGRESS_STORE=lessons)")
	importPin := importCmd.String("pin", "", "PIN of the profile, if it has one")
	importInput := importCmd.String("input", "", "Input file path (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	a, err := app.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		selectProfile(ctx, a, *exportProfile, *exportPin)
		handleExport(a, *exportProfile, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		selectProfile(ctx, a, *importProfile, *importPin)
		handleImport(ctx, a, *importInput)

	default:
		printUsage()
		os.Exit(1)
	}
}

// selectProfile loads the profile whose progress is exported or replaced
func selectProfile(ctx context.Context, a *app.App, profile, pin string) {
	if a.Profiles == nil {
		return
	}
	if profile == "" {
		log.Fatalf("-profile is required with PROGRESS_STORE=%s", a.Config.ProgressStore)
	}
	if _, err := a.Profiles.SelectProfile(ctx, profile, pin); err != nil {
		log.Fatalf("Failed to open profile %s: %v", profile, err)
	}
}

func handleExport(a *app.App, profile, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		if profile == "" {
			profile = "lessons"
		}
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("progress_%s_%s.json", profile, timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}

	log.Printf("Exporting progress to: %s", outputPath)
	if err := a.Backup.Export(file); err != nil {
		file.Close()
		log.Fatalf("Export failed: %v", err)
	}
	if err := file.Close(); err != nil {
		log.Fatalf("Failed to write %s: %v", outputPath, err)
	}

	log.Println("Export complete!")
}

func handleImport(ctx context.Context, a *app.App, inputPath string) {
	file, err := os.Open(inputPath)
	if os.IsNotExist(err) {
		log.Fatalf("Input file does not exist: %s", inputPath)
	}
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer file.Close()

	log.Printf("Importing progress from: %s", inputPath)
	summary, err := a.Backup.Import(ctx, file)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import complete! %d questions updated, %d records skipped", summary.Questions, summary.Skipped)
}

func printUsage() {
	fmt.Println("Bilingual Progress Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export a profile's progress to a JSON file")
	fmt.Println("  backup import [options]    Merge a JSON progress file into a profile")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -profile <name>   Profile to export")
	fmt.Println("  -pin <pin>        PIN of the profile, if it has one")
	fmt.Println("  -output <file>    Output file path (default: progress_PROFILE_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -profile <name>   Profile to import into")
	fmt.Println("  -pin <pin>        PIN of the profile, if it has one")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -profile alice")
	fmt.Println("  backup import -profile alice -input progress_alice.json")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  CONTENT_PATH     Lesson directory (default: ./content)")
	fmt.Println("  PROGRESS_STORE   lessons, profiles or database (default: profiles)")
	fmt.Println("  PROFILES_PATH    Profile directory (default: ./profiles)")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./bilingual.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
