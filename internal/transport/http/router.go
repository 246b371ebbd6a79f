package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-todo-nosql/internal/application/auth"
	"github.com/go-todo-nosql/internal/application/todo"
	"github.com/go-todo-nosql/internal/config"
	"github.com/go-todo-nosql/internal/transport/http/handler"
	appmiddleware "github.com/go-todo-nosql/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo UserRepository
	TodoRepo TodoRepository
	Mailer   MailSender
	Tokens   TokenProvider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo: deps.UserRepo,
		Mailer:   deps.Mailer,
		Signer:   deps.Tokens,
	})
	todoSvc := todo.NewService(deps.TodoRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	todoH := handler.NewTodoHandler(todoSvc)

	r.Get("/health", healthH.Ping)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/verify-otp", authH.VerifyOTP)
			r.Post("/login", authH.Login)
			r.Post("/forgot-password", authH.ForgotPassword)
			r.Post("/reset-password", authH.ResetPassword)
		})

		r.Route("/todo", func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.Tokens))

			r.Post("/", todoH.Create)
			r.Get("/", todoH.List)
			r.Patch("/{id}", todoH.Update)
			r.Delete("/{id}", todoH.Delete)
		})
	})

	return r
}
