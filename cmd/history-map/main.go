package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ssherwood/historymap/internal/app"
	"github.com/ssherwood/historymap/internal/config"
)

func main() {
	historyApp := &app.HistoryMapApplication{}

	if err := historyApp.Initialize(context.Background()); err != nil {
		slog.Error("Failed to initialize application", config.ErrAttr(err))
		_ = historyApp.Shutdown(context.Background())
		os.Exit(1)
	}

	historyApp.Run()
}
