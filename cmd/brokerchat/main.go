package main

import (
	"os"

	"github.com/theboatbrokers/brokerchat/internal/agent"
	"github.com/theboatbrokers/brokerchat/internal/config"
	"github.com/theboatbrokers/brokerchat/internal/llm"
	"github.com/theboatbrokers/brokerchat/internal/logger"
	"github.com/theboatbrokers/brokerchat/internal/memory"
	"github.com/theboatbrokers/brokerchat/internal/server"
	"github.com/theboatbrokers/brokerchat/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	llmClient := llm.NewClient(cfg.LLM)

	db, err := store.Open(cfg.DB)
	if err != nil {
		logger.L.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var mem memory.Store
	switch cfg.Memory.Backend {
	case "sqlite":
		sqliteMem, err := memory.NewSQLite(cfg.Memory.DBPath)
		if err != nil {
			logger.L.Error("failed to open conversation memory", "error", err, "path", cfg.Memory.DBPath)
			os.Exit(1)
		}
		defer sqliteMem.Close()
		mem = sqliteMem
	default:
		mem = memory.NewInMemory(cfg.Memory.MaxSessions, cfg.Memory.SessionTTL)
	}

	chatAgent := agent.New(llmClient, db, mem, agent.Options{
		OutputDir:        cfg.Reports.OutputDir,
		ReportFormat:     cfg.Reports.Format,
		BrochureLinkBase: cfg.Reports.BrochureLinkBase,
	})

	router := server.NewRouter(chatAgent)

	serverAddr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.L.Info("starting server", "address", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		logger.L.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
