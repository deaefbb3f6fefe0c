package main

import (
	"flag"
	"log"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/app"
)

func main() {
	configPath := flag.String("config", ".env", "path to the configuration file")
	initDB := flag.Bool("init-db", false, "create the database schema and exit")
	flag.Parse()

	if *initDB {
		if err := app.InitDB(*configPath); err != nil {
			log.Fatalln(err)
		}
		return
	}

	if err := app.Run(*configPath); err != nil {
		log.Fatalln(err)
	}
}
