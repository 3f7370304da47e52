// 文件: internal/api/routes.go
package api

import (
	"Textbook_Browser/internal/region"
	"Textbook_Browser/internal/task"
	"Textbook_Browser/pkg/catalog"
	"Textbook_Browser/pkg/database"
	"Textbook_Browser/pkg/download"
	"Textbook_Browser/pkg/sorting"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RegisterRoutes 注册所有API路由。
func RegisterRoutes(ix *catalog.Index, cmp *sorting.Comparator, tm *task.Manager, db database.Store, resolver *download.Resolver, detector *region.Detector) *chi.Mux {
	r := chi.NewRouter()

	// --- 中间件 (Middleware) ---
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// 配置CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers := NewAPIHandlers(ix, cmp, tm, db, resolver, detector)

	// --- API路由 ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/levels", handlers.HandleListLevels)
		r.Get("/subjects", handlers.HandleListSubjects)
		r.Get("/grades", handlers.HandleListGrades)
		r.Get("/books", handlers.HandleListBooks)
		r.Get("/search", handlers.HandleSearch)
		r.Get("/download", handlers.HandleDownload)
		r.Get("/region", handlers.HandleRegion)
		r.Get("/stats", handlers.HandleStats)
		r.Post("/tasks/reload", handlers.HandleStartReloadTask)
		r.Get("/tasks/{taskId}", handlers.HandleGetTaskStatus)
		r.Get("/display-rules", handlers.HandleGetDisplayRules)
		r.Put("/display-rules", handlers.HandleUpdateDisplayRules)
		r.Get("/config", handlers.HandleGetConfig)
		r.Put("/config", handlers.HandleUpdateConfig)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
