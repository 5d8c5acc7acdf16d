// internal/api/payments/handlers.go
package payments

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/api/apiutil"
	"github.com/codr1/Trainyard/internal/cache"
	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/email"
	"github.com/codr1/Trainyard/internal/events"
	"github.com/codr1/Trainyard/internal/request"
)

const paymentQueryTimeout = 5 * time.Second

var (
	database    *db.DB
	publisher   events.Publisher
	store       cache.Store
	emailClient email.EmailSender
	handlerOnce sync.Once
)

type recordPaymentRequest struct {
	MemberID    *int64  `json:"memberId" validate:"omitempty,gt=0"`
	BookingID   *int64  `json:"bookingId" validate:"omitempty,gt=0"`
	ProductID   *int64  `json:"productId" validate:"omitempty,gt=0"`
	AmountCents int64   `json:"amountCents" validate:"required,gt=0"`
	Method      string  `json:"method" validate:"required,oneof=cash card transfer"`
	PaidAt      *string `json:"paidAt"`
	Note        *string `json:"note" validate:"omitempty,max=500"`
}

type refundRequest struct {
	AmountCents int64   `json:"amountCents" validate:"required,gt=0"`
	Reason      *string `json:"reason" validate:"omitempty,max=500"`
}

type PaymentResponse struct {
	ID              int64     `json:"id"`
	MemberID        *int64    `json:"memberId"`
	BookingID       *int64    `json:"bookingId"`
	ProductID       *int64    `json:"productId"`
	MemberProductID *int64    `json:"memberProductId"`
	AmountCents     int64     `json:"amountCents"`
	Amount          string    `json:"amount"`
	RefundedCents   int64     `json:"refundedCents"`
	RefundableCents int64     `json:"refundableCents"`
	Method          string    `json:"method"`
	Status          string    `json:"status"`
	PaidAt          time.Time `json:"paidAt"`
	Note            *string   `json:"note"`
}

type RefundResponse struct {
	ID          int64     `json:"id"`
	PaymentID   int64     `json:"paymentId"`
	AmountCents int64     `json:"amountCents"`
	Reason      *string   `json:"reason"`
	RefundedAt  time.Time `json:"refundedAt"`
}

type refundResultResponse struct {
	Payment PaymentResponse `json:"payment"`
	Refund  RefundResponse  `json:"refund"`
}

type listPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
}

// InitHandlers must be called during server startup before handling requests.
// p, s and sender may be nil to disable events, caching and receipts.
func InitHandlers(d *db.DB, p events.Publisher, s cache.Store, sender email.EmailSender) {
	if d == nil {
		return
	}
	handlerOnce.Do(func() {
		database = d
		publisher = p
		store = s
		emailClient = sender
	})
}

func loadDB() *db.DB {
	return database
}

// POST /api/v1/payments
func HandlePaymentCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req recordPaymentRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}
	paidAt, err := apiutil.OptionalTimestamp(req.PaidAt, "paidAt", time.UTC, time.Now())
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentQueryTimeout)
	defer cancel()

	var description string
	if req.MemberID != nil {
		if _, err := d.Queries.GetMemberByID(ctx, *req.MemberID); err != nil {
			apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusBadRequest, "Member not found", "Failed to load member"), "Failed to load member")
			return
		}
	}
	if req.BookingID != nil {
		booking, err := d.Queries.GetBookingByID(ctx, *req.BookingID)
		if err != nil {
			apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusBadRequest, "Booking not found", "Failed to load booking"), "Failed to load booking")
			return
		}
		if booking.LessonCategory.Valid {
			description = booking.LessonCategory.String + " booking"
		}
	}
	if req.ProductID != nil {
		product, err := d.Queries.GetProductByID(ctx, *req.ProductID)
		if err != nil {
			apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusBadRequest, "Product not found", "Failed to load product"), "Failed to load product")
			return
		}
		description = product.Name
	}

	payment, err := d.Queries.CreatePayment(ctx, dbgen.CreatePaymentParams{
		MemberID:    apiutil.ToNullInt64(req.MemberID),
		BookingID:   apiutil.ToNullInt64(req.BookingID),
		ProductID:   apiutil.ToNullInt64(req.ProductID),
		AmountCents: req.AmountCents,
		Method:      req.Method,
		PaidAt:      paidAt,
		Note:        apiutil.ToNullString(req.Note),
	})
	if err != nil {
		if apiutil.IsSQLiteForeignKeyViolation(err) {
			apiutil.WriteErrorMessage(w, r, http.StatusBadRequest, "Payment references a missing record")
			return
		}
		apiutil.WriteError(w, r, err, "Failed to record payment")
		return
	}

	resp := NewPaymentResponse(payment)
	logger.Info().Int64("payment_id", payment.ID).Int64("amount_cents", payment.AmountCents).Msg("Payment recorded")
	events.Emit(r.Context(), publisher, events.PaymentRecorded, resp)
	cache.Invalidate(r.Context(), store, cache.ScopeReports)
	SendReceipt(r.Context(), d.Queries, emailClient, payment, description, logger)

	if err := apiutil.WriteJSON(w, http.StatusCreated, resp); err != nil {
		logger.Error().Err(err).Int64("payment_id", payment.ID).Msg("Failed to write payment response")
	}
}

// GET /api/v1/payments
func HandlePaymentList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	query := r.URL.Query()
	memberID, err := request.OptionalID(query, "member_id")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}
	dateRange, err := request.ParseDateRange(query, time.UTC)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.QueryError(err), "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentQueryTimeout)
	defer cancel()

	rows, err := d.Queries.ListPayments(ctx, dbgen.ListPaymentsParams{
		MemberID:  memberID,
		StartTime: dateRange.StartUTC(),
		EndTime:   dateRange.EndUTC(),
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load payments")
		return
	}

	resp := listPaymentsResponse{
		Payments:  make([]PaymentResponse, 0, len(rows)),
		StartDate: dateRange.StartDate,
		EndDate:   dateRange.EndDate,
	}
	for _, row := range rows {
		resp.Payments = append(resp.Payments, NewPaymentResponse(row))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write payments response")
	}
}

// POST /api/v1/payments/{id}/refunds
func HandlePaymentRefund(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	paymentID, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	var req refundRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentQueryTimeout)
	defer cancel()

	var updated dbgen.Payment
	var refund dbgen.Refund
	err = d.RunInTx(ctx, func(txdb *db.DB) error {
		if _, err := txdb.Queries.GetPaymentByID(ctx, paymentID); err != nil {
			return apiutil.LookupError(err, http.StatusNotFound, "Payment not found", "Failed to load payment")
		}

		var err error
		updated, err = txdb.Queries.ApplyPaymentRefund(ctx, dbgen.ApplyPaymentRefundParams{
			ID:          paymentID,
			AmountCents: req.AmountCents,
		})
		if err != nil {
			return apiutil.LookupError(err, http.StatusConflict, "Refund exceeds the refundable amount", "Failed to apply refund")
		}

		refund, err = txdb.Queries.CreateRefund(ctx, dbgen.CreateRefundParams{
			PaymentID:   paymentID,
			AmountCents: req.AmountCents,
			Reason:      apiutil.ToNullString(req.Reason),
			RefundedAt:  time.Now().UTC(),
		})
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to record refund", Err: err}
		}
		return nil
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to refund payment")
		return
	}

	result := refundResultResponse{Payment: NewPaymentResponse(updated), Refund: NewRefundResponse(refund)}
	logger.Info().
		Int64("payment_id", updated.ID).
		Int64("refund_id", refund.ID).
		Int64("amount_cents", refund.AmountCents).
		Str("status", updated.Status).
		Msg("Payment refunded")
	events.Emit(r.Context(), publisher, events.PaymentRefunded, result)
	cache.Invalidate(r.Context(), store, cache.ScopeReports)
	sendRefundNotice(r.Context(), d.Queries, updated, refund, logger)

	if err := apiutil.WriteJSON(w, http.StatusCreated, result); err != nil {
		logger.Error().Err(err).Int64("payment_id", updated.ID).Msg("Failed to write refund response")
	}
}

// SendReceipt emails a receipt for payment to its member, if any.
func SendReceipt(ctx context.Context, q email.MemberLookup, sender email.EmailSender, payment dbgen.Payment, description string, logger *zerolog.Logger) {
	if sender == nil || !payment.MemberID.Valid {
		return
	}
	member, err := q.GetMemberByID(ctx, payment.MemberID.Int64)
	if err != nil {
		logger.Error().Err(err).Int64("payment_id", payment.ID).Msg("Failed to load member for receipt")
		return
	}
	if !member.Email.Valid {
		return
	}
	message := email.BuildReceiptEmail(email.ReceiptDetails{
		MemberName:  email.MemberName(member),
		Description: description,
		AmountCents: payment.AmountCents,
		Method:      payment.Method,
		PaidAt:      payment.PaidAt,
		PaymentID:   payment.ID,
	})
	email.Deliver(ctx, sender, member.Email.String, message, "", logger)
}

func sendRefundNotice(ctx context.Context, q email.MemberLookup, payment dbgen.Payment, refund dbgen.Refund, logger *zerolog.Logger) {
	if emailClient == nil || !payment.MemberID.Valid {
		return
	}
	member, err := q.GetMemberByID(ctx, payment.MemberID.Int64)
	if err != nil {
		logger.Error().Err(err).Int64("payment_id", payment.ID).Msg("Failed to load member for refund notice")
		return
	}
	if !member.Email.Valid {
		return
	}
	message := email.BuildRefundEmail(email.RefundDetails{
		MemberName:         email.MemberName(member),
		PaymentID:          payment.ID,
		AmountCents:        refund.AmountCents,
		TotalRefundedCents: payment.RefundedCents,
		PaymentAmountCents: payment.AmountCents,
		Reason:             refund.Reason.String,
		RefundedAt:         refund.RefundedAt,
	})
	email.Deliver(ctx, emailClient, member.Email.String, message, "", logger)
}

func NewPaymentResponse(p dbgen.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		MemberID:        apiutil.Int64Ptr(p.MemberID),
		BookingID:       apiutil.Int64Ptr(p.BookingID),
		ProductID:       apiutil.Int64Ptr(p.ProductID),
		MemberProductID: apiutil.Int64Ptr(p.MemberProductID),
		AmountCents:     p.AmountCents,
		Amount:          apiutil.FormatPriceCents(p.AmountCents),
		RefundedCents:   p.RefundedCents,
		RefundableCents: p.AmountCents - p.RefundedCents,
		Method:          p.Method,
		Status:          p.Status,
		PaidAt:          p.PaidAt.UTC(),
		Note:            apiutil.StringPtr(p.Note),
	}
}

func NewRefundResponse(r dbgen.Refund) RefundResponse {
	return RefundResponse{
		ID:          r.ID,
		PaymentID:   r.PaymentID,
		AmountCents: r.AmountCents,
		Reason:      apiutil.StringPtr(r.Reason),
		RefundedAt:  r.RefundedAt.UTC(),
	}
}
