package main

import (
	"flag"
	"log"

	"github.com/danmuck/framectl/internal/config"
)

func main() {
	output := flag.String("output", "framectl.toml", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to -output)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = *output
		}
		cfg, err := config.Load(path)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %d session(s) at %s", len(cfg.Sessions), path)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote framectl config template to %s", *output)
}
