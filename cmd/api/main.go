package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/freelancehub/backend/internal/config"
	"github.com/freelancehub/backend/internal/db"
	"github.com/freelancehub/backend/internal/handlers"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/realtime"
	"github.com/freelancehub/backend/internal/services/accounting"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	notifier := realtime.NewNotifier(hub, rdb)
	notifier.StartSubscriber(context.Background())

	acct := accounting.NewService(gdb)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	profileH := handlers.NewProfileHandler(gdb)
	projectH := handlers.NewProjectHandler(gdb, acct)
	applicationH := handlers.NewApplicationHandler(gdb, notifier)
	paymentH := handlers.NewPaymentHandler(gdb, acct, notifier)
	chatH := handlers.NewChatHandler(gdb, hub, notifier, cfg.JWTSecret)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigin,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)

	// protected
	projects := api.Group("/projects", middleware.AuthRequired(gdb, cfg.JWTSecret))

	employerOnly := middleware.RequireUserType(models.UserTypeEmployer)
	freelancerOnly := middleware.RequireUserType(models.UserTypeFreelancer)

	projects.Get("/me", profileH.Me)
	projects.Put("/update-profile", profileH.UpdateProfile)
	projects.Get("/freelancers/search", employerOnly, profileH.SearchFreelancers)

	projects.Get("/", projectH.ListOpen)
	projects.Get("/open", projectH.ListOpen)
	projects.Get("/my-projects", employerOnly, projectH.MyProjects)
	projects.Post("/create", employerOnly, projectH.Create)
	projects.Delete("/delete/:id", employerOnly, projectH.Delete)
	projects.Post("/assign-project", employerOnly, projectH.Assign)

	projects.Post("/apply", freelancerOnly, applicationH.Apply)
	projects.Get("/applications", applicationH.List)
	projects.Get("/applications/:id", applicationH.Get)
	projects.Post("/applications/:id/accept", employerOnly, applicationH.Accept)
	projects.Post("/applications/:id/reject", employerOnly, applicationH.Reject)
	projects.Post("/applications/:id/rate", employerOnly, applicationH.Rate)
	projects.Post("/applications/:id/feedback", employerOnly, applicationH.Feedback)
	projects.Get("/:projectId/applications", employerOnly, applicationH.ListForProject)

	projects.Get("/messages/:projectId", chatH.GetMessages)
	projects.Post("/messages/:projectId", chatH.PostMessage)

	projects.Post("/payment/request", freelancerOnly, paymentH.Request)
	projects.Post("/payment/pay", employerOnly, paymentH.Pay)

	// websocket (token auth via query param)
	app.Get("/ws/chat", websocket.New(chatH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
