package main

import (
	"flag"
	"log"

	"github.com/simp-lee/studiogate/internal/app"
	"github.com/simp-lee/studiogate/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML configuration file")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("failed to load .env: ", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal("failed to create app: ", err)
	}

	if err := a.Run(); err != nil {
		log.Fatal("server error: ", err)
	}
}
