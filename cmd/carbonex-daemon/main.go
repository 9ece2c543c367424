package main

import (
	"fmt"
	"os"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/models"
	"github.com/carbonex/carbonex/server"
	"github.com/carbonex/carbonex/workers/daemons"
)

func CreateWorker(app *server.Application, id string) daemons.Worker {
	switch id {
	case "cron_job":
		return app.Cron
	default:
		return nil
	}
}

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	stores := server.MemoryStores()
	if config.DataBase != nil {
		if err := models.AutoMigrate(config.DataBase); err != nil {
			config.Logger.Fatalf("migration failed: %s", err.Error())
		}

		stores = server.DatabaseStores(config.DataBase)
	}

	app := server.NewApplication(stores)

	ARVG := os.Args[1:]

	for _, id := range ARVG {
		fmt.Println("Start carbonex-daemon: " + id)
		worker := CreateWorker(app, id)

		worker.Start()
	}
}
