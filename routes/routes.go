package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/tns-project/tns-server/handlers"
	"github.com/tns-project/tns-server/middleware"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Roster        *handlers.RosterHandler
	Notifications *handlers.NotificationHandler
	Subscriptions *handlers.SubscriptionHandler
	Settings      *handlers.SettingsHandler
	Reports       *handlers.ReportHandler
	MatchStatus   *handlers.MatchStatusHandler
	WebSocket     *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// public
	router.Post("/auth/login", h.Auth.Login)
	router.Post("/subscriptions", h.Subscriptions.Subscribe)
	router.Post("/subscriptions/unsubscribe", h.Subscriptions.Unsubscribe)
	router.Get("/divisions", h.Roster.ListDivisions)
	router.Get("/ws/{stream}", h.WebSocket.ServeWs)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// admin
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Post("/auth/register", h.Auth.Register)
		r.Get("/admins", h.Auth.ListAdmins)
		r.Delete("/admins/{adminID}", h.Auth.RemoveAdmin)

		r.Post("/roster/fetch", h.Roster.Fetch)
		r.Get("/roster", h.Roster.Get)
		r.Delete("/roster", h.Roster.Clear)

		r.Post("/notifications/preview", h.Notifications.Preview)
		r.Post("/notifications/send", h.Notifications.SendMatches)
		r.Post("/notifications/blast", h.Notifications.SendBlast)

		r.Get("/subscriptions", h.Subscriptions.List)
		r.Delete("/subscriptions/{subscriptionID}", h.Subscriptions.Delete)

		r.Get("/settings", h.Settings.Get)
		r.Patch("/settings", h.Settings.Update)
		r.Get("/settings/audiences", h.Settings.ListAudiences)

		r.Get("/reports/sent-emails", h.Reports.GetSentEmails)
		r.Delete("/reports/sent-emails", h.Reports.ClearSentEmails)

		r.Post("/matches/poll", h.MatchStatus.Poll)
	})

	return router
}
