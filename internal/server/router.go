package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/modelhub/internal/auth"
	"github.com/MarcoPoloResearchLab/modelhub/internal/catalog"
	"github.com/MarcoPoloResearchLab/modelhub/internal/feedback"
	"github.com/MarcoPoloResearchLab/modelhub/internal/logging"
	"github.com/MarcoPoloResearchLab/modelhub/internal/pages"
	"github.com/MarcoPoloResearchLab/modelhub/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const viewerContextKey = "modelhub_viewer"

var (
	errMissingSessionValidator = errors.New("session validator dependency required")
	errMissingCatalogService   = errors.New("catalog service dependency required")
	errMissingFeedbackService  = errors.New("feedback service dependency required")
	errMissingUsersService     = errors.New("users service dependency required")
)

// SessionValidator resolves the optional session carried by a request.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.Session, error)
}

// ReviewerResolver maps a session to the reviewer recorded on reviews.
type ReviewerResolver interface {
	ResolveReviewer(ctx context.Context, session auth.Session) (users.Reviewer, error)
}

// Dependencies wires the services behind the HTTP surface.
type Dependencies struct {
	SessionValidator SessionValidator
	CatalogService   *catalog.Service
	FeedbackService  *feedback.Service
	UsersService     ReviewerResolver
	Links            pages.Links
	Markdown         *pages.MarkdownRenderer
	Metrics          *Metrics
	Logger           *zap.Logger
}

// NewHTTPHandler builds the gin engine serving the site.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.SessionValidator == nil {
		return nil, errMissingSessionValidator
	}
	if deps.CatalogService == nil {
		return nil, errMissingCatalogService
	}
	if deps.FeedbackService == nil {
		return nil, errMissingFeedbackService
	}
	if deps.UsersService == nil {
		return nil, errMissingUsersService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	markdown := deps.Markdown
	if markdown == nil {
		markdown = pages.NewMarkdownRenderer()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	templates, err := pages.Templates()
	if err != nil {
		return nil, err
	}

	handler := &httpHandler{
		sessions:  deps.SessionValidator,
		catalog:   deps.CatalogService,
		feedback:  deps.FeedbackService,
		reviewers: deps.UsersService,
		links:     deps.Links,
		markdown:  markdown,
		metrics:   metrics,
		logger:    logger,
	}

	return newRouter(handler, templates), nil
}

func newRouter(handler *httpHandler, templates *template.Template) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.GinMiddleware(handler.logger))
	router.Use(handler.metrics.middleware())
	router.Use(corsMiddleware())
	router.SetHTMLTemplate(templates)

	router.GET("/healthz", handler.handleHealth)
	router.GET("/metrics", gin.WrapH(handler.metrics.handler()))

	site := router.Group("/")
	site.Use(handler.resolveViewer)
	site.GET("/", handler.handleHome)
	site.GET("/human-feedback/:ref", handler.handleFeedback)
	site.POST("/human-feedback/:ref/label", handler.handleLabel)
	site.GET("/:authorSlug", handler.handleAuthor)
	site.GET("/:authorSlug/:modelSlug", handler.handleModel)
	site.POST("/:authorSlug/:modelSlug/reviews", handler.handleSubmitReview)

	router.NoRoute(handler.resolveViewer, handler.handleNotFound)
	return router
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	})
}

type httpHandler struct {
	sessions  SessionValidator
	catalog   *catalog.Service
	feedback  *feedback.Service
	reviewers ReviewerResolver
	links     pages.Links
	markdown  *pages.MarkdownRenderer
	metrics   *Metrics
	logger    *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// resolveViewer attaches the optional session. A missing or rejected cookie
// yields an anonymous viewer, never an error response.
func (h *httpHandler) resolveViewer(c *gin.Context) {
	viewer := pages.AnonymousViewer()
	session, err := h.sessions.ValidateRequest(c.Request)
	switch {
	case err == nil:
		viewer = pages.SignedInViewer(session)
	case errors.Is(err, auth.ErrMissingSessionToken):
	case errors.Is(err, auth.ErrExpiredSessionToken):
		h.logger.Info("session validation failed", zap.Error(err))
	default:
		h.logger.Warn("session validation failed", zap.Error(err))
	}
	c.Set(viewerContextKey, viewer)
	c.Next()
}

func viewerFrom(c *gin.Context) pages.Viewer {
	if value, ok := c.Get(viewerContextKey); ok {
		if viewer, ok := value.(pages.Viewer); ok {
			return viewer
		}
	}
	return pages.AnonymousViewer()
}

func (h *httpHandler) handleNotFound(c *gin.Context) {
	h.renderStatus(c, http.StatusNotFound, "Not found", "This page could not be found.")
}

func (h *httpHandler) renderStatus(c *gin.Context, status int, title, message string) {
	c.HTML(status, pages.StatusTemplate, pages.StatusPage{
		Title:   title,
		Viewer:  viewerFrom(c),
		Message: message,
	})
}

func (h *httpHandler) renderInternalError(c *gin.Context, message string, err error) {
	h.logger.Error(message, zap.Error(err), zap.String("path", c.Request.URL.Path))
	_ = c.Error(err)
	h.renderStatus(c, http.StatusInternalServerError, "Something went wrong", "The page could not be loaded.")
}
