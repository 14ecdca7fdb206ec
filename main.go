package main

import (
	"fmt"
	"log"

	"github.com/muhfarrasm/HematYu-Service/internal/config"
	"github.com/muhfarrasm/HematYu-Service/internal/database"
	"github.com/muhfarrasm/HematYu-Service/internal/router"
	"github.com/muhfarrasm/HematYu-Service/internal/storage"

	"github.com/shopspring/decimal"
)

func main() {
	// amounts render as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	bukti, err := storage.NewBuktiStore(cfg.Storage.BuktiDir)
	if err != nil {
		log.Fatalf("init bukti store: %v", err)
	}

	r := router.SetupRouter(cfg, db, bukti)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
