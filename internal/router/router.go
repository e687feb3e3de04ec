package router

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/handler"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/middleware"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	carouselHandler *handler.CarouselHandler,
	imageHandler *handler.ImageHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Product handler function: the catalogue collection plus the nested
	// carousel and image resources of a single product.
	productRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		parts := segments(r.URL.Path, "/api/products")
		switch {
		case len(parts) == 0:
			if r.Method == http.MethodPost {
				productHandler.Create(w, r)
				return
			}
			productHandler.GetAll(w, r)
		case len(parts) == 1:
			productHandler.GetByID(w, r)
		case len(parts) == 2 && parts[1] == "carousel":
			carouselHandler.AssignSlot(w, r)
		case len(parts) == 2 && parts[1] == "images":
			switch r.Method {
			case http.MethodPost:
				imageHandler.Upload(w, r)
			case http.MethodDelete:
				imageHandler.Delete(w, r)
			case http.MethodGet:
				imageHandler.GetByProduct(w, r)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
		case len(parts) == 3 && parts[1] == "images" && parts[2] == "derivatives":
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			imageHandler.RegisterDerivatives(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}

	// Register product routes (both with and without trailing slash)
	mux.HandleFunc("/api/products", productRouteHandler)
	mux.HandleFunc("/api/products/", productRouteHandler)

	// Order handler function
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		parts := segments(r.URL.Path, "/api/orders")
		switch {
		case len(parts) == 0:
			orderHandler.Create(w, r)
		case len(parts) == 1:
			orderHandler.GetByID(w, r)
		case len(parts) == 2 && parts[1] == "status":
			orderHandler.TransitionStatus(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}

	// Register order routes (both with and without trailing slash)
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Storefront carousel (read side; writes go through the product routes)
	mux.HandleFunc("/api/carousel", carouselHandler.Get)
	mux.HandleFunc("/api/carousel/", carouselHandler.Get)

	// Occasion listing
	mux.HandleFunc("/api/occasions", productHandler.GetOccasions)
	mux.HandleFunc("/api/occasions/", productHandler.GetOccasions)

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}

// segments splits the path remainder after prefix into its slash-separated
// parts. An empty remainder yields nil.
func segments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
