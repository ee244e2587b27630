package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"hodiny/internal/config"
	"hodiny/internal/excel"
	"hodiny/internal/handler"
	"hodiny/internal/logger"
	"hodiny/internal/middleware"
	"hodiny/internal/service"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)

	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("directory setup failed", "err", err)
		os.Exit(1)
	}

	cellMapPath := filepath.Join(cfg.Paths.Data, "cell_map.json")
	weekly := excel.NewWeeklyStore(cfg.Paths.Excel, cellMapPath)
	monthly := excel.NewMonthlyStore(cfg.Paths.Excel, cellMapPath)
	advances := excel.NewAdvanceStore(cfg.Paths.Excel, cellMapPath)

	registry := service.NewEmployeeRegistry(cfg.Paths.Data)
	settings := service.NewSettingsStore(cfg.Paths.Data, cfg.Paths.Excel, cfg.Paths.Archive)
	voice := service.NewVoiceService(registry, cfg.LLM)

	employeeH := handler.NewEmployeeHandler(registry)
	timeEntryH := handler.NewTimeEntryHandler(weekly, monthly, registry)
	advanceH := handler.NewAdvanceHandler(advances, registry)
	reportH := handler.NewReportHandler(weekly, monthly, registry)
	settingsH := handler.NewSettingsHandler(settings, weekly)
	filesH := handler.NewFilesHandler(cfg.Paths.Excel)
	uploadH := handler.NewUploadHandler(weekly, monthly, registry)
	voiceH := handler.NewVoiceHandler(voice)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RateLimit(120, 20))

	api := r.Group("/api/v1")
	api.GET("/health", handler.Health)

	api.GET("/employees", employeeH.List)
	api.POST("/employees", employeeH.Add)
	api.PUT("/employees/:name", employeeH.Rename)
	api.DELETE("/employees/:name", employeeH.Delete)
	api.GET("/employees/selected", employeeH.GetSelection)
	api.POST("/employees/selected", employeeH.SetSelection)

	api.POST("/time-entry", timeEntryH.Save)
	api.GET("/time-entries", timeEntryH.WeekGrid)
	api.GET("/records/:date", timeEntryH.DailyRecord)

	api.POST("/advances", advanceH.Add)
	api.GET("/advances/options", advanceH.Options)

	api.GET("/reports/monthly", reportH.Monthly)
	api.GET("/reports/summary", reportH.Summary)
	api.GET("/reports/integrity", reportH.Integrity)

	api.GET("/settings", settingsH.Get)
	api.PUT("/settings", settingsH.Update)
	api.POST("/settings/new-file", settingsH.StartNewFile)
	api.POST("/settings/archive", settingsH.ArchiveProject)
	api.POST("/archive", settingsH.ArchiveWeeks)

	api.GET("/files", filesH.List)
	api.GET("/files/:name/sheets", filesH.Sheets)
	api.GET("/files/:name/sheets/:sheet", filesH.Content)
	api.POST("/files/rename", filesH.Rename)
	api.GET("/download", filesH.Download)

	api.POST("/upload/preview", uploadH.Preview)
	api.POST("/upload/confirm", uploadH.Confirm)

	api.POST("/voice/command", voiceH.Command)

	logger.Info("server starting", "addr", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
