package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"docqa/internal/app"
	"docqa/internal/httputil"
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/ask", askHandler(deps))
	r.Post("/api/documents/upload", uploadHandler(deps))
	r.Get("/api/documents/{id}", documentHandler(deps))
	r.Post("/api/abbreviations", abbrevSubmitHandler(deps))
	r.Get("/api/abbreviations/{id}", abbrevStatusHandler(deps))
	r.Get("/api/models", modelsHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}
