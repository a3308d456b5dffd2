package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/annieworksdev-rgb/OurStack/internal/auth"
	database "github.com/annieworksdev-rgb/OurStack/internal/db"
	"github.com/annieworksdev-rgb/OurStack/internal/ledger/application"
	"github.com/annieworksdev-rgb/OurStack/internal/ledger/infrastructure"
	"github.com/annieworksdev-rgb/OurStack/internal/ledger/interfaces"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errs ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errs) > 0 && len(errs[0]) > 0 {
		payload["errors"] = errs[0]
	}
	respondJSON(w, status, payload)
}

type Server struct {
	router             *http.ServeMux
	jwtManager         auth.JWTManagerInterface
	tokenHandler       *auth.TokenHandler
	transactionHandler *interfaces.TransactionHandler
	accountHandler     *interfaces.AccountHandler
	categoryHandler    *interfaces.CategoryHandler
	recurringHandler   *interfaces.RecurringHandler
	reportHandler      *interfaces.ReportHandler
	dbService          *database.DBService
}

func NewServer(
	jwtManager auth.JWTManagerInterface,
	tokenHandler *auth.TokenHandler,
	transactionHandler *interfaces.TransactionHandler,
	accountHandler *interfaces.AccountHandler,
	categoryHandler *interfaces.CategoryHandler,
	recurringHandler *interfaces.RecurringHandler,
	reportHandler *interfaces.ReportHandler,
	dbService *database.DBService,
) *Server {
	return &Server{
		router:             http.NewServeMux(),
		jwtManager:         jwtManager,
		tokenHandler:       tokenHandler,
		transactionHandler: transactionHandler,
		accountHandler:     accountHandler,
		categoryHandler:    categoryHandler,
		recurringHandler:   recurringHandler,
		reportHandler:      reportHandler,
		dbService:          dbService,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		return errors.New("no DB_CONNECTION_STRING Provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	health := s.dbService.Health()
	status := http.StatusOK
	if health["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"status":   "ready",
		"database": health["status"],
	})
}

func (s *Server) RegisterRoutes() {
	withAuth := auth.JWTAccessTokenMiddleware(s.jwtManager)

	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("POST /api/auth/token", http.HandlerFunc(s.tokenHandler.HandleIssueToken))
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))

	// Protected routes (using JWT Access Token Middleware)
	protectedRoutes := http.NewServeMux()

	// TRANSACTIONS API
	protectedRoutes.Handle("POST /api/protected/transactions",
		withAuth(http.HandlerFunc(s.transactionHandler.CreateTransaction)))
	protectedRoutes.Handle("GET /api/protected/transactions",
		withAuth(http.HandlerFunc(s.transactionHandler.GetTransactions)))
	protectedRoutes.Handle("PUT /api/protected/transactions/{transactionID}",
		withAuth(http.HandlerFunc(s.transactionHandler.UpdateTransaction)))
	protectedRoutes.Handle("DELETE /api/protected/transactions/{transactionID}",
		withAuth(http.HandlerFunc(s.transactionHandler.DeleteTransaction)))

	// ACCOUNTS API
	protectedRoutes.Handle("GET /api/protected/accounts",
		withAuth(http.HandlerFunc(s.accountHandler.GetAccounts)))
	protectedRoutes.Handle("POST /api/protected/accounts",
		withAuth(http.HandlerFunc(s.accountHandler.CreateAccount)))
	protectedRoutes.Handle("PUT /api/protected/accounts/{accountID}",
		withAuth(http.HandlerFunc(s.accountHandler.UpdateAccount)))
	protectedRoutes.Handle("POST /api/protected/accounts/{accountID}/archive",
		withAuth(http.HandlerFunc(s.accountHandler.ArchiveAccount)))
	protectedRoutes.Handle("DELETE /api/protected/accounts/{accountID}",
		withAuth(http.HandlerFunc(s.accountHandler.DeleteAccount)))

	// CATEGORIES API
	protectedRoutes.Handle("GET /api/protected/categories",
		withAuth(http.HandlerFunc(s.categoryHandler.GetCategories)))
	protectedRoutes.Handle("POST /api/protected/categories",
		withAuth(http.HandlerFunc(s.categoryHandler.CreateCategory)))
	protectedRoutes.Handle("PUT /api/protected/categories/{categoryID}",
		withAuth(http.HandlerFunc(s.categoryHandler.UpdateCategory)))
	protectedRoutes.Handle("DELETE /api/protected/categories/{categoryID}",
		withAuth(http.HandlerFunc(s.categoryHandler.DeleteCategory)))

	// RECURRING RULES API
	protectedRoutes.Handle("GET /api/protected/recurring",
		withAuth(http.HandlerFunc(s.recurringHandler.GetRules)))
	protectedRoutes.Handle("POST /api/protected/recurring",
		withAuth(http.HandlerFunc(s.recurringHandler.CreateRule)))
	protectedRoutes.Handle("PUT /api/protected/recurring/{ruleID}",
		withAuth(http.HandlerFunc(s.recurringHandler.UpdateRule)))
	protectedRoutes.Handle("DELETE /api/protected/recurring/{ruleID}",
		withAuth(http.HandlerFunc(s.recurringHandler.DeleteRule)))
	protectedRoutes.Handle("POST /api/protected/recurring/run",
		withAuth(http.HandlerFunc(s.recurringHandler.RunScheduler)))

	// REPORTS API
	protectedRoutes.Handle("GET /api/protected/reports/monthly",
		withAuth(http.HandlerFunc(s.reportHandler.GetMonthlyBreakdown)))
	protectedRoutes.Handle("GET /api/protected/reports/assets",
		withAuth(http.HandlerFunc(s.reportHandler.GetAssetHistory)))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	dbService, err := database.NewDBService(os.Getenv("DB_CONNECTION_STRING"))
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	jwtManager := auth.NewJWTManager()
	tokenHandler := auth.NewTokenHandler(jwtManager)

	accountRepo := infrastructure.NewAccountRepository(dbService.DB)
	categoryRepo := infrastructure.NewCategoryRepository(dbService.DB)
	transactionRepo := infrastructure.NewTransactionRepository(dbService.DB)
	recurringRepo := infrastructure.NewRecurringRepository(dbService.DB)

	accountService := application.NewAccountService(accountRepo)
	categoryService := application.NewCategoryService(categoryRepo)
	transactionService := application.NewTransactionService(transactionRepo, accountService, categoryService)
	recurringService := application.NewRecurringService(recurringRepo, transactionService)
	historyService := application.NewHistoryService(accountService, transactionService)

	transactionHandler := interfaces.NewTransactionHandler(transactionService, respondJSON, respondError)
	accountHandler := interfaces.NewAccountHandler(accountService, respondJSON, respondError)
	categoryHandler := interfaces.NewCategoryHandler(categoryService, respondJSON, respondError)
	recurringHandler := interfaces.NewRecurringHandler(recurringService, respondJSON, respondError)
	reportHandler := interfaces.NewReportHandler(transactionService, historyService, respondJSON, respondError)

	server := NewServer(jwtManager, tokenHandler, transactionHandler, accountHandler,
		categoryHandler, recurringHandler, reportHandler, dbService)
	server.RegisterRoutes()

	if err := StartRecurringScheduler(recurringService); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	handler := loggingMiddleware(http.HandlerFunc(server.router.ServeHTTP))
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func StartRecurringScheduler(recurringService *application.RecurringService) error {
	c := cron.New()
	_, err := c.AddFunc("@every 1h", func() {
		created, err := recurringService.ProcessAllUsers(context.Background(), time.Now().UTC())
		if err != nil {
			log.Printf("Error processing recurring rules: %v", err)
		} else if created > 0 {
			log.Printf("Recurring rules processed, %d transaction(s) created.", created)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}
