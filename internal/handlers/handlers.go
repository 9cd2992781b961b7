package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bilah/internal/database"
	"bilah/internal/models"
	"bilah/internal/query"
	"bilah/internal/services"
	"bilah/internal/storage"
)

// Handler wires HTTP routes to the repositories and services.
type Handler struct {
	products *database.ProductRepository
	articles *database.ArticleRepository
	messages *database.MessageStore
	backend  storage.Backend
	sessions *services.SessionService
	oauth    *services.OAuthService
	email    *services.EmailService
	spam     *services.SpamDetector
	csv      *services.CSVService
	log      *zap.Logger
}

// NewHandler builds the handler set.
func NewHandler(
	products *database.ProductRepository,
	articles *database.ArticleRepository,
	messages *database.MessageStore,
	backend storage.Backend,
	sessions *services.SessionService,
	oauth *services.OAuthService,
	email *services.EmailService,
	csv *services.CSVService,
	log *zap.Logger,
) *Handler {
	return &Handler{
		products: products,
		articles: articles,
		messages: messages,
		backend:  backend,
		sessions: sessions,
		oauth:    oauth,
		email:    email,
		spam:     services.NewSpamDetector(),
		csv:      csv,
		log:      log,
	}
}

// RegisterRoutes attaches every route to the engine.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/api/products", h.ListProducts)
	r.GET("/api/products/:id", h.GetProduct)
	r.GET("/api/legacy/products", h.ListLegacyProducts)
	r.GET("/api/legacy/products/:id", h.GetLegacyProduct)
	r.GET("/api/articles", h.ListArticles)
	r.GET("/api/articles/:id", h.GetArticle)
	r.GET("/api/status", h.Status)
	r.POST("/api/contact", h.Contact)

	r.GET("/admin/login", h.AdminSession)
	r.POST("/admin/login", h.AdminLogin)
	r.GET("/admin/logout", h.AdminLogout)
	r.GET("/admin/oauth/login", h.OAuthLogin)
	r.GET("/admin/oauth/callback", h.OAuthCallback)

	admin := r.Group("/api/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)
		admin.POST("/products/import", h.ImportProducts)
		admin.GET("/products/export", h.ExportProducts)

		admin.POST("/articles", h.CreateArticle)
		admin.PUT("/articles/:id", h.UpdateArticle)
		admin.DELETE("/articles/:id", h.DeleteArticle)
		admin.POST("/articles/import", h.ImportArticles)
		admin.GET("/articles/export", h.ExportArticles)

		admin.GET("/messages", h.ListMessages)
	}
}

// AuthMiddleware gates write-capable routes. Either admin session is
// accepted: the legacy signed cookie or the OAuth token cookie. Failures
// get a generic 401 with no detail on why.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(services.SessionCookie); err == nil && h.sessions.Verify(cookie) {
			c.Set("admin_email", "")
			c.Next()
			return
		}
		if cookie, err := c.Cookie(services.TokenCookie); err == nil {
			if email, ok := h.oauth.VerifyToken(cookie); ok {
				c.Set("admin_email", email)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

// serverError logs the real failure and answers with a generic 500.
func (h *Handler) serverError(c *gin.Context, err error, op string) {
	h.log.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// --- Auth handlers ---

// AdminSession reports whether the request carries a valid admin session.
// The admin UI probes it before showing the login form.
func (h *Handler) AdminSession(c *gin.Context) {
	if cookie, err := c.Cookie(services.SessionCookie); err == nil && h.sessions.Verify(cookie) {
		c.JSON(http.StatusOK, gin.H{"authenticated": true})
		return
	}
	if cookie, err := c.Cookie(services.TokenCookie); err == nil {
		if email, ok := h.oauth.VerifyToken(cookie); ok {
			c.JSON(http.StatusOK, gin.H{"authenticated": true, "email": email})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

// AdminLogin is the legacy admin login: form credentials checked against
// the configured bcrypt hash, success sets the signed session cookie.
func (h *Handler) AdminLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if !h.sessions.VerifyCredentials(username, password) {
		h.log.Warn("admin login failed", zap.String("username", username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.SetCookie(services.SessionCookie, h.sessions.Issue(), 3600, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AdminLogout clears both session cookies.
func (h *Handler) AdminLogout(c *gin.Context) {
	c.SetCookie(services.SessionCookie, "", -1, "/", "", false, true)
	c.SetCookie(services.TokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// OAuthLogin starts the Google code flow.
func (h *Handler) OAuthLogin(c *gin.Context) {
	if !h.oauth.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "oauth login not configured"})
		return
	}
	state := uuid.New().String()
	c.SetCookie("oauth_state", state, 600, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, h.oauth.AuthURL(state))
}

// OAuthCallback finishes the code flow and sets the token cookie.
func (h *Handler) OAuthCallback(c *gin.Context) {
	if !h.oauth.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "oauth login not configured"})
		return
	}
	state, err := c.Cookie("oauth_state")
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.SetCookie("oauth_state", "", -1, "/", "", false, true)

	token, err := h.oauth.HandleCallback(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.log.Warn("oauth callback rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.SetCookie(services.TokenCookie, token, 24*3600, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- Product handlers ---

// ListProducts returns the catalog filtered and sorted per query params.
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.ReadAll(c.Request.Context())
	if err != nil {
		h.serverError(c, err, "list products")
		return
	}
	c.JSON(http.StatusOK, query.Apply(products, filterFromQuery(c)))
}

// filterFromQuery maps URL query params onto a catalog filter. Unparsable
// numeric bounds are ignored rather than rejected.
func filterFromQuery(c *gin.Context) query.Filter {
	f := query.Filter{
		Type:           c.Query("type"),
		Category:       c.Query("category"),
		Steel:          c.Query("steel"),
		HandleMaterial: c.Query("handleMaterial"),
		Attribution:    c.Query("maker"),
		Search:         c.Query("q"),
		SortBy:         c.Query("sortBy"),
		Order:          c.Query("order"),
	}
	if v, err := strconv.Atoi(c.Query("minPrice")); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.Atoi(c.Query("maxPrice")); err == nil {
		f.MaxPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("minBladeLength"), 64); err == nil {
		f.MinBladeLength = &v
	}
	if v, err := strconv.ParseFloat(c.Query("maxBladeLength"), 64); err == nil {
		f.MaxBladeLength = &v
	}
	return f
}

// GetProduct returns one product or 404.
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.products.ReadByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serverError(c, err, "get product")
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct upserts a validated product. Validation failures answer 400
// with every missing field listed, not just the first.
func (h *Handler) CreateProduct(c *gin.Context) {
	raw := map[string]any{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.stampAttribution(c, raw)

	candidate := models.NormalizeProduct(raw)
	if missing := candidate.MissingFields(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	product, err := h.products.UpsertOne(c.Request.Context(), raw)
	if err != nil {
		h.serverError(c, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct merges the partial body over the stored record.
func (h *Handler) UpdateProduct(c *gin.Context) {
	raw := map[string]any{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.stampAttribution(c, raw)

	product, err := h.products.UpdateByID(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		h.serverError(c, err, "update product")
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product; deleting a missing id is a 404, not an
// internal error.
func (h *Handler) DeleteProduct(c *gin.Context) {
	deleted, err := h.products.DeleteByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serverError(c, err, "delete product")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ImportProducts applies an uploaded CSV in the requested mode.
func (h *Handler) ImportProducts(c *gin.Context) {
	mode, err := services.ParseImportMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing csv file upload"})
		return
	}
	f, err := file.Open()
	if err != nil {
		h.serverError(c, err, "open csv upload")
		return
	}
	defer f.Close()

	result, err := h.csv.ImportProducts(c.Request.Context(), f, mode)
	if err != nil {
		h.serverError(c, err, "import products")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportProducts streams the catalog as CSV.
func (h *Handler) ExportProducts(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="products.csv"`)
	if err := h.csv.ExportProducts(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("export products", zap.Error(err))
	}
}

// --- Legacy product handlers ---

// ListLegacyProducts serves the catalog in the pre-unification shape.
func (h *Handler) ListLegacyProducts(c *gin.Context) {
	products, err := h.products.ReadAll(c.Request.Context())
	if err != nil {
		h.serverError(c, err, "list legacy products")
		return
	}
	out := make([]models.LegacyProduct, 0, len(products))
	for _, p := range products {
		out = append(out, models.ToLegacy(p))
	}
	c.JSON(http.StatusOK, out)
}

// GetLegacyProduct returns one product in the legacy shape or 404.
func (h *Handler) GetLegacyProduct(c *gin.Context) {
	product, err := h.products.ReadByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serverError(c, err, "get legacy product")
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, models.ToLegacy(*product))
}

// --- Article handlers ---

// ListArticles returns every article, optionally filtered by ?type=.
func (h *Handler) ListArticles(c *gin.Context) {
	ctx := c.Request.Context()
	kind := c.Query("type")
	var (
		articles []models.Article
		err      error
	)
	if kind != "" {
		articles, err = h.articles.ReadByKind(ctx, kind)
	} else {
		articles, err = h.articles.ReadAll(ctx)
	}
	if err != nil {
		h.serverError(c, err, "list articles")
		return
	}
	c.JSON(http.StatusOK, articles)
}

// GetArticle returns one article or 404.
func (h *Handler) GetArticle(c *gin.Context) {
	article, err := h.articles.ReadByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serverError(c, err, "get article")
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	c.JSON(http.StatusOK, article)
}

// CreateArticle upserts a validated article.
func (h *Handler) CreateArticle(c *gin.Context) {
	raw := map[string]any{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.stampAttribution(c, raw)

	candidate := models.NormalizeArticle(raw)
	if missing := candidate.MissingFields(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	article, err := h.articles.UpsertOne(c.Request.Context(), raw)
	if err != nil {
		h.serverError(c, err, "create article")
		return
	}
	c.JSON(http.StatusCreated, article)
}

// UpdateArticle merges the partial body over the stored record.
func (h *Handler) UpdateArticle(c *gin.Context) {
	raw := map[string]any{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.stampAttribution(c, raw)

	article, err := h.articles.UpdateByID(c.Request.Context(), c.Param("id"), raw)
	if err != nil {
		h.serverError(c, err, "update article")
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	c.JSON(http.StatusOK, article)
}

// DeleteArticle removes an article.
func (h *Handler) DeleteArticle(c *gin.Context) {
	deleted, err := h.articles.DeleteByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serverError(c, err, "delete article")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ImportArticles applies an uploaded CSV in the requested mode.
func (h *Handler) ImportArticles(c *gin.Context) {
	mode, err := services.ParseImportMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing csv file upload"})
		return
	}
	f, err := file.Open()
	if err != nil {
		h.serverError(c, err, "open csv upload")
		return
	}
	defer f.Close()

	result, err := h.csv.ImportArticles(c.Request.Context(), f, mode)
	if err != nil {
		h.serverError(c, err, "import articles")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportArticles streams the articles as CSV.
func (h *Handler) ExportArticles(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="articles.csv"`)
	if err := h.csv.ExportArticles(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("export articles", zap.Error(err))
	}
}

// --- Status and contact ---

// Status reports the active storage backend and collection metadata. It
// exposes credential presence, never values.
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	resp := gin.H{"storage": h.backend.Status()}
	if meta, err := h.products.Metadata(ctx); err == nil {
		resp["products"] = meta
	}
	if meta, err := h.articles.Metadata(ctx); err == nil {
		resp["articles"] = meta
	}
	c.JSON(http.StatusOK, resp)
}

// Contact stores a contact-form submission and notifies the shop inbox.
// Notification failures are logged, not surfaced: the message is already
// persisted.
func (h *Handler) Contact(c *gin.Context) {
	var msg models.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var missing []string
	if msg.Name == "" {
		missing = append(missing, "name")
	}
	if msg.Email == "" {
		missing = append(missing, "email")
	}
	if msg.Body == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}
	if h.spam.IsSpam(msg.Subject) || h.spam.IsSpam(msg.Body) {
		h.log.Warn("contact message rejected as spam", zap.String("email", msg.Email))
		c.JSON(http.StatusBadRequest, gin.H{"error": "message rejected"})
		return
	}

	stored, err := h.messages.Append(c.Request.Context(), msg)
	if err != nil {
		h.serverError(c, err, "store contact message")
		return
	}
	if err := h.email.SendContactNotification(stored); err != nil {
		h.log.Error("contact notification", zap.Error(err))
	}
	c.JSON(http.StatusCreated, gin.H{"id": stored.ID})
}

// ListMessages returns the contact inbox for the admin UI.
func (h *Handler) ListMessages(c *gin.Context) {
	messages, err := h.messages.List(c.Request.Context())
	if err != nil {
		h.serverError(c, err, "list messages")
		return
	}
	c.JSON(http.StatusOK, messages)
}

// stampAttribution fills updatedBy (and createdBy when absent) with the
// authenticated admin when the request body did not carry attribution.
func (h *Handler) stampAttribution(c *gin.Context, raw map[string]any) {
	email, _ := c.Get("admin_email")
	adminEmail, _ := email.(string)
	if adminEmail == "" {
		return
	}
	who := map[string]any{"email": adminEmail, "name": adminEmail}
	if _, ok := raw["updatedBy"]; !ok {
		raw["updatedBy"] = who
	}
	if _, ok := raw["createdBy"]; !ok {
		raw["createdBy"] = who
	}
}
