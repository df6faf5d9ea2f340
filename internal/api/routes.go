package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradebot/internal/api/handlers"
	"tradebot/internal/api/middleware"
	"tradebot/internal/bot"
	"tradebot/internal/protection"
	"tradebot/internal/repository"
	"tradebot/internal/strategy"
)

// Dependencies collects the components the command surface reads from.
// Any nil field simply leaves its routes unregistered.
type Dependencies struct {
	Coordinator *bot.Coordinator
	Repository  *repository.Repository
	Protections *protection.Manager
	Strategy    strategy.Strategy
}

// SetupRoutes wires the thin JSON command surface: bot lifecycle, trade log,
// dashboard views, and protection introspection, plus health and Prometheus
// metrics endpoints. Route layout follows a versioned `/api/v1` subrouter
// with global Recovery/Logging/CORS middleware.
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	v1 := router.PathPrefix("/api/v1").Subrouter()

	if deps != nil && deps.Coordinator != nil {
		botHandler := handlers.NewBotHandler(deps.Coordinator)
		v1.HandleFunc("/bot/status", botHandler.GetStatus).Methods(http.MethodGet)
		v1.HandleFunc("/bot/start", botHandler.Start).Methods(http.MethodPost)
		v1.HandleFunc("/bot/stop", botHandler.Stop).Methods(http.MethodPost)
		v1.HandleFunc("/bot/pause", botHandler.Pause).Methods(http.MethodPost)
		v1.HandleFunc("/bot/resume", botHandler.Resume).Methods(http.MethodPost)
	}

	if deps != nil && deps.Repository != nil {
		tradeHandler := handlers.NewTradeHandler(deps.Repository)
		v1.HandleFunc("/trades/open", tradeHandler.GetOpenTrades).Methods(http.MethodGet)
		v1.HandleFunc("/trades", tradeHandler.GetAllTrades).Methods(http.MethodGet)

		dashboardHandler := handlers.NewDashboardHandler(deps.Repository)
		v1.HandleFunc("/dashboard/stats", dashboardHandler.GetStats).Methods(http.MethodGet)
		v1.HandleFunc("/dashboard/equity-curve", dashboardHandler.GetEquityCurve).Methods(http.MethodGet)

		if deps.Strategy != nil {
			backtestHandler := handlers.NewBacktestHandler(deps.Repository, deps.Strategy)
			v1.HandleFunc("/backtest", backtestHandler.Run).Methods(http.MethodPost)
			v1.HandleFunc("/backtest", backtestHandler.List).Methods(http.MethodGet)
		}
	}

	if deps != nil && deps.Protections != nil {
		protectionHandler := handlers.NewProtectionHandler(deps.Protections)
		v1.HandleFunc("/protections", protectionHandler.ListRules).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.Handle("/heap", pprof.Handler("heap"))
	debug.Handle("/goroutine", pprof.Handler("goroutine"))
	debug.Handle("/block", pprof.Handler("block"))
	debug.Handle("/threadcreate", pprof.Handler("threadcreate"))
	debug.Handle("/mutex", pprof.Handler("mutex"))
	debug.Handle("/allocs", pprof.Handler("allocs"))

	return router
}
