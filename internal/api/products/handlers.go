// internal/api/products/handlers.go
package products

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/api/apiutil"
	"github.com/codr1/Trainyard/internal/cache"
	"github.com/codr1/Trainyard/internal/db"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
	"github.com/codr1/Trainyard/internal/email"
	"github.com/codr1/Trainyard/internal/events"
	"github.com/codr1/Trainyard/internal/models"
	"github.com/codr1/Trainyard/internal/request"
)

const productQueryTimeout = 5 * time.Second

var (
	database    *db.DB
	publisher   events.Publisher
	store       cache.Store
	emailClient email.EmailSender
	handlerOnce sync.Once
)

type createProductRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Category     string `json:"category" validate:"required,oneof=count_pass period_pass lesson merchandise"`
	PriceCents   int64  `json:"priceCents" validate:"gte=0"`
	SessionCount *int64 `json:"sessionCount" validate:"omitempty,gt=0"`
	ValidDays    *int64 `json:"validDays" validate:"omitempty,gt=0"`
}

type ProductResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	PriceCents   int64     `json:"priceCents"`
	Price        string    `json:"price"`
	SessionCount *int64    `json:"sessionCount"`
	ValidDays    *int64    `json:"validDays"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type listProductsResponse struct {
	Products []ProductResponse `json:"products"`
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

// POST /api/v1/products
func HandleProductCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createProductRequest
	if err := apiutil.DecodeAndValidate(r, &req); err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}
	switch req.Category {
	case models.ProductCategoryCountPass:
		if req.SessionCount == nil {
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "sessionCount", Reason: "is required for count passes"}, "Invalid request")
			return
		}
	case models.ProductCategoryPeriodPass:
		if req.ValidDays == nil {
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "validDays", Reason: "is required for period passes"}, "Invalid request")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), productQueryTimeout)
	defer cancel()

	product, err := d.Queries.CreateProduct(ctx, dbgen.CreateProductParams{
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		PriceCents:   req.PriceCents,
		SessionCount: apiutil.ToNullInt64(req.SessionCount),
		ValidDays:    apiutil.ToNullInt64(req.ValidDays),
	})
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to create product")
		return
	}

	logger.Info().Int64("product_id", product.ID).Str("category", product.Category).Msg("Product created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, NewProductResponse(product)); err != nil {
		logger.Error().Err(err).Int64("product_id", product.ID).Msg("Failed to write product response")
	}
}

// GET /api/v1/products
func HandleProductList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), productQueryTimeout)
	defer cancel()

	rows, err := d.Queries.ListProducts(ctx, request.OptionalString(r.URL.Query(), "status"))
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load products")
		return
	}

	resp := listProductsResponse{Products: make([]ProductResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Products = append(resp.Products, NewProductResponse(row))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write products response")
	}
}

// DELETE /api/v1/products/{id}
func HandleProductDeactivate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	d := loadDB()
	if d == nil {
		logger.Error().Msg("Database not initialized")
		apiutil.WriteErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	productID, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), productQueryTimeout)
	defer cancel()

	product, err := d.Queries.DeactivateProduct(ctx, productID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.LookupError(err, http.StatusNotFound, "Product not found", "Failed to deactivate product"), "Failed to deactivate product")
		return
	}

	logger.Info().Int64("product_id", product.ID).Msg("Product deactivated")
	if err := apiutil.WriteJSON(w, http.StatusOK, NewProductResponse(product)); err != nil {
		logger.Error().Err(err).Int64("product_id", product.ID).Msg("Failed to write product response")
	}
}

func NewProductResponse(p dbgen.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		PriceCents:   p.PriceCents,
		Price:        apiutil.FormatPriceCents(p.PriceCents),
		SessionCount: apiutil.Int64Ptr(p.SessionCount),
		ValidDays:    apiutil.Int64Ptr(p.ValidDays),
		Status:       p.Status,
		CreatedAt:    p.CreatedAt.UTC(),
	}
}
