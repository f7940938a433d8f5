package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/navikt/nada-seatable/pkg/seatable"
	"github.com/navikt/nada-seatable/pkg/seatable/emulator"
)

var (
	data     = flag.String("data", "", "Path to the JSON file with the tables to serve")
	port     = flag.String("port", "8090", "Port to run the HTTP server on")
	apiToken = flag.String("api-token", "local-api-token", "API token accepted by the app-access-token endpoint")
)

type Data struct {
	Tables []struct {
		Table seatable.Table `json:"table"`
		Rows  seatable.Rows  `json:"rows"`
	} `json:"tables"`
}

func main() {
	flag.Parse()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	em := emulator.New(*apiToken, log)

	if *data != "" {
		d, err := os.ReadFile(*data)
		if err != nil {
			log.Fatal().Err(err).Msg("opening file")
		}

		tables := &Data{}
		err = json.Unmarshal(d, tables)
		if err != nil {
			log.Fatal().Err(err).Msg("parsing JSON")
		}

		for _, t := range tables.Tables {
			em.AddTable(t.Table, t.Rows...)
		}
	}

	log.Info().Msgf("Server starting on port %s with base %s...", *port, em.DTableUUID())

	err := http.ListenAndServe(":"+*port, em)
	if err != nil {
		log.Fatal().Err(err).Msg("starting server")
	}
}
