package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/liabon/internal/config"
	"github.com/example/liabon/internal/handlers"
	"github.com/example/liabon/internal/middleware"
	"github.com/example/liabon/internal/otp"
	"github.com/example/liabon/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	codec := otp.NewCodec(cfg.OTPSecret, cfg.OTPTTL)
	verifier := otp.NewVerifier(codec, cfg.RequireOTP)

	smsService := services.NewSolapiService(cfg.SolapiAPIKey, cfg.SolapiAPISecret, cfg.SolapiSender)
	emailService := services.NewEmailService(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPass, cfg.AdminEmail)
	tossService := services.NewTossService(cfg.TossSecretKey)
	contractService := services.NewContractService(db)
	pdfService := services.NewPDFService()

	myInsuranceHandler := handlers.NewMyInsuranceHandler(codec, verifier, smsService, emailService, contractService)
	contactHandler := handlers.NewContactHandler(emailService, cfg.AdminEmail)
	tableMailHandler := handlers.NewTableMailHandler(emailService, cfg.AdminEmail)
	inquiryHandler := handlers.NewInquiryHandler(db)
	adminHandler := handlers.NewAdminHandler(db, cfg.JWTSecret, cfg.TokenExpires)
	paymentHandler := handlers.NewPaymentHandler(db, tossService)
	pdfHandler := handlers.NewPDFHandler(pdfService)

	api := app.Group("/api")

	// Customer self-service
	api.Post("/my-insurance", myInsuranceHandler.Handle)

	// Consultation and quote forms
	api.Post("/contact", contactHandler.Handle)
	api.Post("/drone-insurance", tableMailHandler.DroneInsurance)
	api.Post("/event-insurance", tableMailHandler.EventInsurance)

	// Persistence endpoints for the public forms
	api.Post("/drone-inquiries", inquiryHandler.SubmitInquiry)
	api.Post("/submit-personal-drone-application", inquiryHandler.SubmitApplication)

	// Payments
	api.Post("/toss-payment-confirm", paymentHandler.Confirm)

	// Quote PDF
	api.Post("/generate-pdf", pdfHandler.Generate)

	// Admin
	admin := api.Group("/admin")
	admin.Post("/login", adminHandler.Login)

	protected := admin.Group("", middleware.AdminAuth(cfg.AdminAPIKey, cfg.JWTSecret))
	protected.Get("/drone-data", adminHandler.DroneData)
	protected.Get("/stats", adminHandler.Stats)
	protected.Get("/payments", paymentHandler.List)
}
