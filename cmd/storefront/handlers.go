package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/countryside/storefront/internal/cart"
	"github.com/countryside/storefront/internal/catalog"
	"github.com/countryside/storefront/internal/checkout"
	"github.com/countryside/storefront/internal/httpx"
	"github.com/countryside/storefront/internal/order"
	"github.com/countryside/storefront/internal/payment"
)

func newRouter(
	products catalog.Repository,
	orders order.Repository,
	orch *checkout.Orchestrator,
	verifier *checkout.Verifier,
	cartMW gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger("http"))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/products", listProductsHandler(products))
	r.GET("/products/:id", getProductHandler(products))
	r.GET("/categories/:category/products", listCategoryHandler(products))

	sess := r.Group("/", cartMW)
	sess.GET("/cart", getCartHandler())
	sess.POST("/cart/items", addCartItemHandler(products))
	sess.PUT("/cart/items/:id", updateCartItemHandler())
	sess.DELETE("/cart/items/:id", removeCartItemHandler())
	sess.DELETE("/cart", clearCartHandler())
	sess.POST("/checkout", checkoutHandler(orch))

	r.GET("/payment/callback", verifyRedirectHandler(verifier))
	r.POST("/api/verify-payment", verifyCallbackHandler(verifier))

	r.GET("/orders", listOrdersHandler(orders))
	r.GET("/orders/:id", getOrderHandler(orders))

	return r
}

// -------- cart session plumbing --------

const cartCookie = "sid"

// withCart gives every request a session-scoped cart store backed by redis.
func withCart(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cartCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetCookie(cartCookie, sid, 0, "/", "", false, true)
		}
		st, err := cart.Open(c.Request.Context(), cart.NewRedisAdapter(rdb, sid))
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "cart unavailable")
			c.Abort()
			return
		}
		c.Set("cart", st)
		c.Next()
	}
}

func cartFrom(c *gin.Context) *cart.Store {
	v, _ := c.Get("cart")
	return v.(*cart.Store)
}

type cartResponse struct {
	Items []cart.Item `json:"items"`
	Total string      `json:"total"`
}

func renderCart(c *gin.Context, s *cart.Store) {
	c.JSON(http.StatusOK, cartResponse{Items: s.Items(), Total: s.Total().String()})
}

// -------- catalog --------

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	return page, size
}

// listProductsHandler serves paging and search over the catalog.
//
//	@Summary  List products
//	@Param    q     query string false "search term"
//	@Param    page  query int    false "1-based page"
//	@Param    size  query int    false "page size"
//	@Success  200 {object} catalog.ListResponse
//	@Router   /products [get]
func listProductsHandler(products catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := pageParams(c)
		q := c.Query("q")

		var (
			items []catalog.Product
			err   error
		)
		if q != "" {
			items, err = products.Search(c.Request.Context(), q, page, size)
		} else {
			items, err = products.Paginate(c.Request.Context(), page, size)
		}
		if err != nil {
			httpx.Error(c, http.StatusBadGateway, "catalog unavailable, try again")
			return
		}
		c.JSON(http.StatusOK, catalog.ListResponse{Q: q, Page: page, PageSize: size, Items: items})
	}
}

func listCategoryHandler(products catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := pageParams(c)
		category := c.Param("category")
		items, err := products.ListByCategory(c.Request.Context(), category, page, size)
		if err != nil {
			httpx.Error(c, http.StatusBadGateway, "catalog unavailable, try again")
			return
		}
		c.JSON(http.StatusOK, catalog.ListResponse{Category: category, Page: page, PageSize: size, Items: items})
	}
}

// getProductHandler renders not-found and transient failures differently: a
// missing product is an empty state, a fetch error asks the user to retry.
func getProductHandler(products catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := products.GetByID(c.Request.Context(), c.Param("id"))
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "product not found")
			return
		}
		if err != nil {
			httpx.Error(c, http.StatusBadGateway, "catalog unavailable, try again")
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// -------- cart --------

func getCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		renderCart(c, cartFrom(c))
	}
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func addCartItemHandler(products catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
			httpx.Error(c, http.StatusBadRequest, "product_id is required")
			return
		}
		p, err := products.GetByID(c.Request.Context(), req.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "product not found")
			return
		}
		if err != nil {
			httpx.Error(c, http.StatusBadGateway, "catalog unavailable, try again")
			return
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			httpx.Error(c, http.StatusBadGateway, "catalog returned a malformed price")
			return
		}

		s := cartFrom(c)
		if err := s.Add(c.Request.Context(), cart.Item{
			ID:       p.ID,
			Name:     p.Name,
			Price:    price,
			ImageURL: p.ImageURL,
		}, req.Quantity); err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not save cart")
			return
		}
		renderCart(c, s)
	}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func updateCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		s := cartFrom(c)
		// quantities below 1 are a silent no-op
		if err := s.SetQuantity(c.Request.Context(), c.Param("id"), req.Quantity); err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not save cart")
			return
		}
		renderCart(c, s)
	}
}

func removeCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := cartFrom(c)
		if err := s.Remove(c.Request.Context(), c.Param("id")); err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not save cart")
			return
		}
		renderCart(c, s)
	}
}

func clearCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := cartFrom(c)
		if err := s.Clear(c.Request.Context()); err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not save cart")
			return
		}
		renderCart(c, s)
	}
}

// -------- checkout --------

// checkoutHandler runs the order + payment-initiation sequence and hands the
// hosted checkout link back for the browser redirect.
//
//	@Summary  Submit checkout
//	@Accept   json
//	@Success  200 {object} map[string]string
//	@Failure  400 {object} httpx.HTTPError
//	@Router   /checkout [post]
func checkoutHandler(orch *checkout.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var billing checkout.BillingInfo
		if err := c.ShouldBindJSON(&billing); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}

		link, err := orch.Submit(c.Request.Context(), cartFrom(c), billing)
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			httpx.Error(c, http.StatusBadRequest, verr.Error())
		case errors.Is(err, checkout.ErrRemoteWrite):
			httpx.Error(c, http.StatusInternalServerError, "order creation failed")
		case errors.Is(err, payment.ErrGateway):
			httpx.Error(c, http.StatusBadGateway, "payment redirect failed")
		case err != nil:
			httpx.Error(c, http.StatusInternalServerError, "checkout failed")
		default:
			c.JSON(http.StatusOK, gin.H{"link": link})
		}
	}
}

// -------- payment verification --------

type verifyResponse struct {
	Success bool `json:"success"`
}

func runVerify(c *gin.Context, verifier *checkout.Verifier, txRef, txID string) {
	err := verifier.Verify(c.Request.Context(), txRef, txID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, verifyResponse{Success: true})
	case errors.Is(err, checkout.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, verifyResponse{Success: false})
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, verifyResponse{Success: false})
	default:
		// unconfirmed or gateway trouble: the order was left untouched
		c.JSON(http.StatusBadRequest, verifyResponse{Success: false})
	}
}

// verifyRedirectHandler is hit when the gateway sends the browser back.
func verifyRedirectHandler(verifier *checkout.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		runVerify(c, verifier, c.Query("tx_ref"), c.Query("transaction_id"))
	}
}

type verifyCallbackRequest struct {
	TxRef         string `json:"tx_ref"`
	TransactionID string `json:"transaction_id"`
}

// verifyCallbackHandler is the server-to-server variant with a JSON body.
func verifyCallbackHandler(verifier *checkout.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyCallbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, verifyResponse{Success: false})
			return
		}
		runVerify(c, verifier, req.TxRef, req.TransactionID)
	}
}

// -------- customer orders --------

func listOrdersHandler(orders order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		if email == "" {
			httpx.Error(c, http.StatusBadRequest, "email is required")
			return
		}
		page, size := pageParams(c)
		if page < 1 {
			page = 1
		}
		out, err := orders.ListByEmail(c.Request.Context(), email, size, (page-1)*size)
		if err != nil {
			httpx.Error(c, http.StatusBadGateway, "orders unavailable, try again")
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

func getOrderHandler(orders order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		o, err := orders.GetByID(c.Request.Context(), id)
		if errors.Is(err, order.ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "order not found")
			return
		}
		if err != nil {
			httpx.Error(c, http.StatusBadGateway, "orders unavailable, try again")
			return
		}
		lines, err := orders.GetLines(c.Request.Context(), id)
		if err != nil {
			httpx.Error(c, http.StatusBadGateway, "orders unavailable, try again")
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o, "items": lines})
	}
}
