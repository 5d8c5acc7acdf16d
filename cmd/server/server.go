// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/codr1/Trainyard/internal/api"
	"github.com/codr1/Trainyard/internal/api/apiutil"
	"github.com/codr1/Trainyard/internal/api/bookings"
	"github.com/codr1/Trainyard/internal/api/checkin"
	"github.com/codr1/Trainyard/internal/api/coaches"
	"github.com/codr1/Trainyard/internal/api/facilities"
	"github.com/codr1/Trainyard/internal/api/members"
	"github.com/codr1/Trainyard/internal/api/payments"
	"github.com/codr1/Trainyard/internal/api/products"
	"github.com/codr1/Trainyard/internal/api/reports"
	"github.com/codr1/Trainyard/internal/api/traininglogs"
	"github.com/codr1/Trainyard/internal/config"
)

func newServer(cfg *config.Config, deps *dependencies) *http.Server {
	router := http.NewServeMux()

	initHandlers(cfg, deps)
	registerRoutes(router)

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithJSONContentType,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func initHandlers(cfg *config.Config, deps *dependencies) {
	q := deps.db.Queries
	region := cfg.Members.DefaultPhoneRegion

	facilities.InitHandlers(q)
	coaches.InitHandlers(q, region)
	members.InitHandlers(q, region)
	bookings.InitHandlers(deps.db, deps.publisher)
	products.InitHandlers(deps.db, deps.publisher, deps.store, deps.sender)
	payments.InitHandlers(deps.db, deps.publisher, deps.store, deps.sender)
	checkin.InitHandlers(deps.db, deps.limiter, cfg.Checkin.TrustProxy, deps.publisher, deps.store)
	traininglogs.InitHandlers(deps.db, deps.publisher, deps.store, cfg.Cache.TTL)
	reports.InitHandlers(q, deps.store, cfg.Cache.TTL)
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_ = apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Facility and staff routes
	mux.HandleFunc("POST /api/v1/facilities", facilities.HandleFacilityCreate)
	mux.HandleFunc("GET /api/v1/facilities", facilities.HandleFacilityList)
	mux.HandleFunc("POST /api/v1/coaches", coaches.HandleCoachCreate)
	mux.HandleFunc("GET /api/v1/coaches", coaches.HandleCoachList)

	// Member routes
	mux.HandleFunc("POST /api/v1/members", members.HandleMemberCreate)
	mux.HandleFunc("GET /api/v1/members", members.HandleMemberList)
	mux.HandleFunc("GET /api/v1/members/{id}", members.HandleMemberDetail)

	// Booking routes
	mux.HandleFunc("POST /api/v1/bookings", bookings.HandleBookingCreate)
	mux.HandleFunc("GET /api/v1/bookings", bookings.HandleBookingList)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", bookings.HandleBookingCancel)

	// Product and pass routes
	mux.HandleFunc("POST /api/v1/products", products.HandleProductCreate)
	mux.HandleFunc("GET /api/v1/products", products.HandleProductList)
	mux.HandleFunc("DELETE /api/v1/products/{id}", products.HandleProductDeactivate)
	mux.HandleFunc("POST /api/v1/member-products", products.HandleMemberProductPurchase)
	mux.HandleFunc("GET /api/v1/member-products", products.HandleMemberProductList)
	mux.HandleFunc("POST /api/v1/member-products/{id}/redeem", products.HandleMemberProductRedeem)

	// Payment routes
	mux.HandleFunc("POST /api/v1/payments", payments.HandlePaymentCreate)
	mux.HandleFunc("GET /api/v1/payments", payments.HandlePaymentList)
	mux.HandleFunc("POST /api/v1/payments/{id}/refunds", payments.HandlePaymentRefund)

	// Attendance routes
	mux.HandleFunc("POST /api/v1/checkin", checkin.HandleCheckin)
	mux.HandleFunc("GET /api/v1/attendance", checkin.HandleAttendanceList)
	mux.HandleFunc("POST /api/v1/attendance/{id}/checkout", checkin.HandleCheckout)

	// Training routes
	mux.HandleFunc("POST /api/v1/training-logs", traininglogs.HandleTrainingLogCreate)
	mux.HandleFunc("GET /api/v1/training-logs", traininglogs.HandleTrainingLogList)
	mux.HandleFunc("GET /api/v1/training-logs/rankings", traininglogs.HandleRankings)

	// Report routes
	mux.HandleFunc("GET /api/v1/reports/revenue", reports.HandleRevenueReport)
	mux.HandleFunc("GET /api/v1/reports/members", reports.HandleMemberReport)
}
