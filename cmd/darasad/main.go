package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/darasahub/darasa/internal/api/http"
	"github.com/darasahub/darasa/internal/audit"
	auth "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/config"
	"github.com/darasahub/darasa/internal/db"
	"github.com/darasahub/darasa/internal/exam"
	"github.com/darasahub/darasa/internal/rbac"
	"github.com/darasahub/darasa/internal/student"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	store := exam.NewSQLStore(dbh)
	students := student.NewDirectory(dbh)
	events := audit.NewLog(dbh, "local")
	engine := exam.NewEngine(store, students, events)
	authSvc := auth.NewAuthService(cfg.HMACSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.AllowClaimRoleFallback))

		pr.With(rbac.Require("exam:create")).
			Post("/exams", api.CreateExamHandler(engine))
		pr.With(rbac.Require("exam:view")).
			Get("/exams", api.ListExamsHandler(engine))
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", api.GetExamHandler(engine))

		// Student attempt lifecycle
		pr.With(rbac.Require("attempt:start")).
			Post("/exams/{examID}/attempt", api.StartAttemptHandler(engine))
		pr.With(rbac.Require("attempt:view-own")).
			Get("/exams/{examID}/attempt", api.GetAttemptStateHandler(engine))
		pr.With(rbac.Require("attempt:save")).
			Post("/exams/{examID}/attempt/answers", api.SaveAnswerHandler(engine))
		pr.With(rbac.Require("attempt:submit")).
			Post("/exams/{examID}/attempt/submit", api.SubmitAttemptHandler(engine))

		// Results
		pr.With(rbac.Require("attempt:view-all")).
			Get("/exams/{examID}/results", api.ExamResultsHandler(engine))
		pr.With(rbac.Require("result:view-own")).
			Get("/exams/{examID}/results/me", api.MyResultHandler(engine))
		pr.With(rbac.Require("result:enter")).
			Post("/exams/{examID}/results/bulk", api.EnterOfflineResultsHandler(engine))
		pr.With(rbac.Require("exam:publish")).
			Post("/exams/{examID}/publish", api.PublishResultsHandler(engine))

		// Caller's student profile
		pr.Get("/students/me", api.MyProfileHandler(students))

		// Event log tail (admin)
		pr.With(rbac.Require("events:view")).
			Get("/events", api.ListEventsHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
