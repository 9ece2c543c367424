package main

import (
	"fmt"
	"os"

	"github.com/carbonex/carbonex/config"
	"github.com/carbonex/carbonex/models"
	"github.com/carbonex/carbonex/routes"
	"github.com/carbonex/carbonex/server"
)

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

	go app.Cron.Start()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "3000"
	}

	r := routes.SetupRouter(app)
	r.Listen(":" + port)
}
