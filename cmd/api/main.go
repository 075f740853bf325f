package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lendsmart-backend/internal/adapter/gateway"
	httpadp "lendsmart-backend/internal/adapter/http"
	mw "lendsmart-backend/internal/adapter/middleware"
	"lendsmart-backend/internal/adapter/repository/mysql"
	"lendsmart-backend/internal/config"
	"lendsmart-backend/internal/infrastructure/cache"
	"lendsmart-backend/internal/infrastructure/db"
	"lendsmart-backend/internal/usecase/account"
	"lendsmart-backend/internal/usecase/application"
	"lendsmart-backend/internal/usecase/funding"
	"lendsmart-backend/internal/usecase/lifecycle"
	"lendsmart-backend/internal/usecase/marketplace"
	"lendsmart-backend/internal/usecase/repayment"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "lendsmart-api").Logger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("mysql connect failed")
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}

	loans := mysql.NewLoanRepository(gdb)
	users := mysql.NewUserRepository(gdb)
	uow := mysql.NewGormUoW(gdb)

	notifier := gateway.NewLogNotifier(logger)
	ledger := gateway.NewBreakerLedger(gateway.NewStubLedger())
	bureau := gateway.NewStubBureau()

	accounts := account.NewUsecase(users)
	applications := application.NewUsecase(loans, users, bureau, logger)
	fundings := funding.NewUsecase(uow, notifier, ledger, logger)
	repayments := repayment.NewUsecase(uow, notifier, logger)
	lifecycles := lifecycle.NewUsecase(uow, logger)
	listings := marketplace.NewUsecase(loans)

	h := httpadp.NewHandler()
	loanH := httpadp.NewLoanHandler(applications, listings)
	fundingH := httpadp.NewFundingHandler(fundings)
	repaymentH := httpadp.NewRepaymentHandler(repayments)
	lifecycleH := httpadp.NewLifecycleHandler(lifecycles)
	accountH := httpadp.NewAccountHandler(accounts)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())
	e.Use(mw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	// routes
	e.GET("/health", h.Health)

	e.POST("/loans", loanH.ApplyLoan)
	e.GET("/loans", loanH.ListOpenLoans)
	e.GET("/loans/:loan_id", loanH.GetLoan)
	e.GET("/loans/:loan_id/metrics", loanH.GetLoanMetrics)
	e.POST("/loans/:loan_id/fund", fundingH.FundLoan)
	e.POST("/loans/:loan_id/repayments", repaymentH.RecordRepayment)
	e.POST("/loans/:loan_id/status", lifecycleH.TransitionLoan)
	e.GET("/borrowers/:borrower_id/loans", loanH.ListBorrowerLoans)

	e.POST("/users", accountH.Register)
	e.GET("/users/:user_id", accountH.GetUser)
	e.PUT("/users/:user_id/kyc", accountH.SetKYCStatus)

	go func() {
		addr := ":" + cfg.AppPort
		logger.Info().Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil {
			logger.Info().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	// drain in-flight notification/ledger workers before exit
	fundings.Flush()
	repayments.Flush()
	logger.Info().Msg("bye")
}
