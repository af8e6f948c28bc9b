package main

import (
	"context"
	"log"
	"os"

	"bilingual/internal/app"
	"bilingual/internal/cli"
	"bilingual/internal/config"
)

func main() {
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

	// Progress is saved after every answer, so an interrupt loses nothing
	ctx := context.Background()

	session := cli.NewSession(os.Stdin, os.Stdout, cli.Options{
		Scheduler:       a.Scheduler,
		Progress:        a.Progress,
		Profiles:        a.Profiles,
		Languages:       a.Store.Languages(),
		SpokenLanguage:  cfg.SpokenLanguage,
		LearnedLanguage: cfg.LearnedLanguage,
	})

	if err := session.Run(ctx); err != nil {
		log.Fatalf("Session failed: %v", err)
	}
	log.Println("Goodbye")
}
