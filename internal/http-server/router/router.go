package router

import (
	"net/http"

	"watermark-processor/internal/http-server/handler/image"
	"watermark-processor/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ImageHandler *image.ImageHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/images", func(r chi.Router) {
			r.Post("/upload", h.ImageHandler.UploadImage)
			r.Get("/", h.ImageHandler.ListImages)
			r.Get("/{id}", h.ImageHandler.GetImage)
			r.Get("/{id}/status", h.ImageHandler.GetStatus)
			r.Post("/{id}/preview", h.ImageHandler.Preview)
			r.Delete("/{id}", h.ImageHandler.DeleteImage)
		})

		r.Route("/logos", func(r chi.Router) {
			r.Post("/upload", h.ImageHandler.UploadLogo)
		})

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", h.ImageHandler.CreateBatch)
			r.Get("/{id}", h.ImageHandler.GetBatch)
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
