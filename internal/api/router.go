package api

import (
	"net/http" // HTTP status codes

	"digicoop/internal/ledger"     // Ledger engine
	"digicoop/internal/middleware" // Auth and request middleware
	"digicoop/internal/response"   // JSON envelope
	"digicoop/internal/service"    // Use cases

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Services are the use cases the routes expose
type Services struct {
	Auth          *service.AuthService
	Admin         *service.AdminService
	Savings       *service.SavingsService
	Loans         *service.LoanService
	GroupBuy      *service.GroupBuyService
	Investments   *service.InvestmentService
	Governance    *service.GovernanceService
	Payments      *service.PaymentService
	Kyc           *service.KycService
	Notifications *service.NotificationService
}

// RouterConfig wires the router
type RouterConfig struct {
	DB        *gorm.DB // Role lookups for admin routes
	Ledger    *ledger.Engine
	Services  Services
	Cache     CacheConfig
	JWTSecret string
	Log       *logrus.Entry
}

// NewRouter registers every route on a new gin engine
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(cfg.Log)) // Global middlewares

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Route not found")
	})

	s := cfg.Services
	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret) // JWT on member routes
	admin := middleware.AdminOnlyMiddleware(cfg.DB)     // Role check on admin routes
	base := r.Group("/api")

	// Auth routes
	base.POST("/auth/register", RegisterHandler(s.Auth, cfg.Cache)) // Registration endpoint
	base.POST("/auth/login", LoginHandler(s.Auth))                  // Login endpoint

	// Gateway notifications carry a shared secret instead of a JWT
	base.POST("/payments/webhook", WebhookHandler(s.Payments, cfg.Cache))

	member := base.Group("", auth)

	// Wallet routes
	member.GET("/wallet/balance", GetWalletHandler(cfg.Ledger, cfg.Cache))
	member.GET("/wallet/transactions", GetTransactionHistoryHandler(cfg.Ledger, cfg.Cache))
	member.POST("/payments/initiate-deposit", InitiateDepositHandler(s.Payments))

	// Savings routes
	member.GET("/savings", ListGoalsHandler(s.Savings))
	member.POST("/savings", CreateGoalHandler(s.Savings))
	member.POST("/savings/:id/contribute", ContributeHandler(s.Savings, cfg.Cache))
	member.POST("/savings/:id/topup", ContributeHandler(s.Savings, cfg.Cache)) // Older clients
	member.POST("/savings/:id/withdraw", WithdrawHandler(s.Savings, cfg.Cache))

	// Loan routes
	member.GET("/loans", ListLoansHandler(s.Loans))
	member.GET("/loans/eligibility", LoanEligibilityHandler(s.Loans))
	member.POST("/loans/apply", ApplyLoanHandler(s.Loans))
	member.POST("/loans/:id/repay", RepayLoanHandler(s.Loans, cfg.Cache))
	member.POST("/loans/:id/approve", admin, ApproveLoanHandler(s.Loans, cfg.Cache))
	member.POST("/loans/:id/reject", admin, RejectLoanHandler(s.Loans))

	// Group buy routes
	member.GET("/group-buy", ListItemsHandler(s.GroupBuy))
	member.GET("/group-buy/orders", ListOrdersHandler(s.GroupBuy))
	member.GET("/group-buy/:id", GetItemHandler(s.GroupBuy))
	member.POST("/group-buy/:id/order", PlaceOrderHandler(s.GroupBuy, cfg.Cache))
	member.POST("/group-buy", admin, CreateItemHandler(s.GroupBuy))

	// Investment routes
	member.GET("/investments", ListProjectsHandler(s.Investments))
	member.GET("/investments/my/portfolio", PortfolioHandler(s.Investments))
	member.GET("/investments/:id", GetProjectHandler(s.Investments))
	member.POST("/investments/:id/invest", InvestHandler(s.Investments, cfg.Cache))
	member.POST("/investments", admin, CreateProjectHandler(s.Investments))
	member.POST("/investments/:id/dividends", admin, PayDividendsHandler(s.Investments, cfg.Cache))

	// Governance routes
	member.GET("/governance/polls", ListPollsHandler(s.Governance))
	member.POST("/governance/polls/:id/vote", VoteHandler(s.Governance, cfg.Cache))
	member.GET("/governance/polls/:id/results", PollResultsHandler(s.Governance, cfg.Cache))
	member.GET("/governance/events", ListEventsHandler(s.Governance))
	member.POST("/governance/events/:id/rsvp", RsvpHandler(s.Governance))
	member.POST("/governance/polls", admin, CreatePollHandler(s.Governance))
	member.POST("/governance/events", admin, CreateEventHandler(s.Governance))

	// KYC routes
	member.POST("/kyc/verify-bvn", VerifyBvnHandler(s.Kyc))

	// Notification routes
	member.POST("/notifications/send-otp", SendOtpHandler(s.Notifications))
	member.POST("/notifications/verify-otp", VerifyOtpHandler(s.Notifications))

	// Admin routes
	adminGroup := member.Group("/admin", admin)
	adminGroup.GET("/users", ListUsersHandler(s.Admin, cfg.Cache))               // List users endpoint
	adminGroup.GET("/transactions", ListTransactionsHandler(s.Admin, cfg.Cache)) // List transactions endpoint

	return r
}
