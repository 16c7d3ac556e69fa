package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/spormatch/docs"
	"github.com/Dosada05/spormatch/handlers"
	"github.com/Dosada05/spormatch/middleware"
)

// Handlers собирает все HTTP-обработчики приложения.
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Event        *handlers.EventHandler
	Participant  *handlers.ParticipantHandler
	Match        *handlers.MatchHandler
	Dashboard    *handlers.DashboardHandler
	Conversation *handlers.ConversationHandler
	Message      *handlers.MessageHandler
	Notification *handlers.NotificationHandler
	Team         *handlers.TeamHandler
	Upload       *handlers.UploadHandler
	WebSocket    *handlers.WebSocketHandler
	Health       *handlers.HealthHandler
}

type Options struct {
	JWTSecret      string
	AuthRateLimit  int // запросов в минуту с одного IP
	AllowedOrigins []string
	// UploadDir раздаётся по /uploads/, когда файлы хранятся локально.
	UploadDir string
	Logger    *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RedactTokenQuery)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(opts.JWTSecret), opts.Logger)

	router.Get("/health", h.Health.Health)
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	if opts.UploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir)))
		router.Get("/uploads/*", fs.ServeHTTP)
	}

	router.Route("/auth", func(r chi.Router) {
		if opts.AuthRateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.AuthRateLimit, time.Minute))
		}
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", h.User.GetMe)
			r.Put("/me", h.User.UpdateMe)
			r.Put("/me/push-token", h.User.UpdatePushToken)
			r.Get("/{userID}", h.User.GetUserByID)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.Event.CreateEvent)
			r.Get("/explore", h.Event.Explore)
			r.Get("/dashboard", h.Dashboard.Dashboard)
			r.Get("/matches", h.Match.ListMatches)

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", h.Event.GetEvent)
				r.Get("/participants", h.Participant.ListParticipants)
				r.Post("/join", h.Participant.Join)
				r.Post("/leave", h.Participant.Leave)
				r.Post("/result", h.Match.RecordResult)
			})
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", h.Conversation.ListConversations)
			r.Post("/", h.Conversation.CreateConversation)

			r.Route("/{conversationID}", func(r chi.Router) {
				r.Get("/", h.Conversation.GetConversation)
				r.Patch("/", h.Conversation.UpdateConversation)
				r.Post("/members", h.Conversation.AddMember)
				r.Delete("/members/{userID}", h.Conversation.RemoveMember)

				r.Get("/messages", h.Message.ListMessages)
				r.Post("/messages", h.Message.SendMessage)
				r.Post("/read", h.Message.MarkRead)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.Notification.ListNotifications)
			r.Post("/invites", h.Notification.SendInvite)
			r.Post("/{notificationID}/accept", h.Notification.AcceptInvite)
			r.Post("/{notificationID}/read", h.Notification.MarkRead)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Team.ListTeams)
			r.Post("/", h.Team.CreateTeam)
			r.Get("/{teamID}", h.Team.GetTeamByID)
		})

		r.Post("/uploads", h.Upload.UploadImage)

		r.Get("/ws/conversations/{conversationID}", h.WebSocket.ServeWs)
	})
}
