package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/countryside/storefront/internal/admin"
	"github.com/countryside/storefront/internal/catalog"
	"github.com/countryside/storefront/internal/httpx"
	"github.com/countryside/storefront/internal/order"
)

func newRouter(
	gate *admin.Gate,
	sessions sessionIssuer,
	products catalog.Repository,
	orders order.Repository,
	users admin.Repository,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger("admin"))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/login", loginHandler(gate, sessions))
	r.POST("/register", registerHandler(gate))
	r.POST("/logout", logoutHandler(sessions))

	// everything below is admin-only; denied users bounce to the storefront
	adm := r.Group("/admin", gate.RequireAdmin("/"))
	adm.GET("/products", listProductsHandler(products))
	adm.POST("/products", createProductHandler(products))
	adm.PUT("/products/:id", updateProductHandler(products))
	adm.DELETE("/products/:id", deleteProductHandler(products))

	adm.GET("/orders", listOrdersHandler(orders))
	adm.GET("/orders/:id", getOrderHandler(orders))
	adm.PUT("/orders/:id/status", updateOrderStatusHandler(orders))

	adm.GET("/users", listUsersHandler(users))
	adm.DELETE("/users/:id", deleteUserHandler(users))

	return r
}

// -------- auth --------

// sessionIssuer is the slice of the session store these handlers use.
type sessionIssuer interface {
	Create(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, token string) error
}

// loginHandler checks credentials and drops the session cookie.
//
//	@Summary  Admin login
//	@Accept   json
//	@Param    body body admin.LoginRequest true "credentials"
//	@Success  200 {object} admin.User
//	@Failure  401 {object} httpx.HTTPError
//	@Router   /login [post]
func loginHandler(gate *admin.Gate, sessions sessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req admin.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		u, err := gate.Login(c.Request.Context(), req.Email, req.Password)
		if errors.Is(err, admin.ErrBadCredentials) || errors.Is(err, admin.ErrDenied) {
			httpx.Error(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "login failed")
			return
		}
		token, err := sessions.Create(c.Request.Context(), u.Email)
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "login failed")
			return
		}
		c.SetCookie(admin.SessionCookie, token, 0, "/", "", false, true)
		c.JSON(http.StatusOK, u)
	}
}

// registerHandler creates an admin account; the email must already be on the
// pre-authorized allow-list.
//
//	@Summary  Admin registration
//	@Accept   json
//	@Param    body body admin.RegisterRequest true "registration"
//	@Success  201 {object} admin.User
//	@Failure  403 {object} httpx.HTTPError
//	@Router   /register [post]
func registerHandler(gate *admin.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req admin.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		u, err := gate.Register(c.Request.Context(), req)
		switch {
		case errors.Is(err, admin.ErrNotAuthorized):
			httpx.Error(c, http.StatusForbidden, "this email is not authorized for admin registration")
		case errors.Is(err, admin.ErrAlreadyExist):
			httpx.Error(c, http.StatusConflict, "account already exists")
		case err != nil:
			httpx.Error(c, http.StatusBadRequest, err.Error())
		default:
			c.JSON(http.StatusCreated, u)
		}
	}
}

func logoutHandler(sessions sessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(admin.SessionCookie); err == nil && token != "" {
			_ = sessions.Delete(c.Request.Context(), token)
		}
		c.SetCookie(admin.SessionCookie, "", -1, "/", "", false, true)
		c.Status(http.StatusNoContent)
	}
}

// -------- products --------

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	return page, size
}

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
			httpx.Error(c, http.StatusInternalServerError, "could not list products")
			return
		}
		c.JSON(http.StatusOK, catalog.ListResponse{Q: q, Page: page, PageSize: size, Items: items})
	}
}

func createProductHandler(products catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		if req.Name == "" {
			httpx.Error(c, http.StatusBadRequest, "name is required")
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			httpx.Error(c, http.StatusBadRequest, "price must be a non-negative number")
			return
		}
		if req.Stock < 0 {
			httpx.Error(c, http.StatusBadRequest, "stock must be non-negative")
			return
		}
		p := &catalog.Product{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       price.String(),
			ImageURL:    req.ImageURL,
			Stock:       req.Stock,
		}
		if err := products.Create(c.Request.Context(), p); err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not create product")
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func updateProductHandler(products catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		updatePrice := req.Price != ""
		if updatePrice {
			price, err := decimal.NewFromString(req.Price)
			if err != nil || price.IsNegative() {
				httpx.Error(c, http.StatusBadRequest, "price must be a non-negative number")
				return
			}
			req.Price = price.String()
		}
		updateStock := req.Stock != nil
		stock := 0
		if updateStock {
			if *req.Stock < 0 {
				httpx.Error(c, http.StatusBadRequest, "stock must be non-negative")
				return
			}
			stock = *req.Stock
		}
		p := &catalog.Product{
			ID:          c.Param("id"),
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			ImageURL:    req.ImageURL,
			Stock:       stock,
		}
		if err := products.Update(c.Request.Context(), p, updatePrice, updateStock); err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not update product")
			return
		}
		out, err := products.GetByID(c.Request.Context(), p.ID)
		if errors.Is(err, catalog.ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "product not found")
			return
		}
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not load product")
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteProductHandler(products catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := products.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not delete product")
			return
		}
		if !ok {
			httpx.Error(c, http.StatusNotFound, "product not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// -------- orders --------

func listOrdersHandler(orders order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size := pageParams(c)
		if page < 1 {
			page = 1
		}
		out, err := orders.List(c.Request.Context(), size, (page-1)*size)
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not list orders")
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out, "page": page, "size": size})
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
			httpx.Error(c, http.StatusInternalServerError, "could not load order")
			return
		}
		lines, err := orders.GetLines(c.Request.Context(), id)
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not load order items")
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o, "items": lines})
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// updateOrderStatusHandler overrides the fulfillment status. The payment
// status is off-limits here: only the verification path moves it.
func updateOrderStatusHandler(orders order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || !order.ValidStatus(req.Status) {
			httpx.Error(c, http.StatusBadRequest, "status must be one of processing, shipped, delivered, cancelled")
			return
		}
		err := orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if errors.Is(err, order.ErrNotFound) {
			httpx.Error(c, http.StatusNotFound, "order not found")
			return
		}
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not update order")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// -------- admin users --------

func listUsersHandler(users admin.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := users.ListUsers(c.Request.Context())
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not list users")
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
	}
}

func deleteUserHandler(users admin.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := users.DeleteUser(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, "could not delete user")
			return
		}
		if !ok {
			httpx.Error(c, http.StatusNotFound, "user not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
