package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/modelhub/internal/catalog"
	"github.com/MarcoPoloResearchLab/modelhub/internal/pages"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const homeModelLimit = 24

type reviewFormPayload struct {
	Text string `form:"text"`
}

func (h *httpHandler) handleHome(c *gin.Context) {
	details, err := h.catalog.ListRecentModels(c.Request.Context(), homeModelLimit)
	if err != nil {
		h.renderInternalError(c, "failed to list models", err)
		return
	}
	c.HTML(http.StatusOK, pages.HomeTemplate, pages.NewHomePage(details, viewerFrom(c)))
}

func (h *httpHandler) handleAuthor(c *gin.Context) {
	detail, err := h.catalog.LoadAuthor(c.Request.Context(), c.Param("authorSlug"))
	if err != nil {
		if errors.Is(err, catalog.ErrAuthorNotFound) {
			h.handleNotFound(c)
			return
		}
		h.renderInternalError(c, "failed to load author", err)
		return
	}
	c.HTML(http.StatusOK, pages.AuthorTemplate, pages.NewAuthorPage(detail, viewerFrom(c)))
}

func (h *httpHandler) handleModel(c *gin.Context) {
	detail, ok := h.loadModel(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, pages.ModelTemplate, pages.NewModelPage(detail, viewerFrom(c), h.links))
}

func (h *httpHandler) loadModel(c *gin.Context) (catalog.ModelDetail, bool) {
	detail, err := h.catalog.LoadModel(c.Request.Context(), c.Param("modelSlug"), c.Param("authorSlug"))
	if err != nil {
		if errors.Is(err, catalog.ErrModelNotFound) {
			h.handleNotFound(c)
			return catalog.ModelDetail{}, false
		}
		h.renderInternalError(c, "failed to load model", err)
		return catalog.ModelDetail{}, false
	}
	return detail, true
}

func (h *httpHandler) handleSubmitReview(c *gin.Context) {
	viewer := viewerFrom(c)
	session, signedIn := viewer.Session()
	if !signedIn {
		h.renderStatus(c, http.StatusUnauthorized, "Sign in required", "Sign in to review models.")
		return
	}

	detail, ok := h.loadModel(c)
	if !ok {
		return
	}

	var payload reviewFormPayload
	if err := c.ShouldBind(&payload); err != nil {
		h.renderReviewError(c, detail, viewer, payload.Text, "The review could not be read.")
		return
	}

	reviewer, err := h.reviewers.ResolveReviewer(c.Request.Context(), session)
	if err != nil {
		h.renderInternalError(c, "failed to resolve reviewer", err)
		return
	}

	review, err := h.catalog.SubmitReview(c.Request.Context(), catalog.ReviewInput{
		ModelID:      detail.Model.ID,
		ReviewerID:   reviewer.UserID,
		ReviewerName: reviewer.DisplayName,
		Text:         payload.Text,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidReview) {
			h.renderReviewError(c, detail, viewer, payload.Text, "Reviews need between 1 and 4000 characters.")
			return
		}
		h.renderInternalError(c, "failed to submit review", err)
		return
	}

	h.metrics.reviewsSubmitted.Inc()
	h.logger.Info("review submitted",
		zap.String("review_id", review.ID),
		zap.String("model_id", review.ModelID),
		zap.String("reviewer_id", review.ReviewerID),
	)
	c.Redirect(http.StatusSeeOther, pages.ModelPath(detail.Author.Slug, detail.Model.Slug))
}

func (h *httpHandler) renderReviewError(c *gin.Context, detail catalog.ModelDetail, viewer pages.Viewer, text, message string) {
	page := pages.NewModelPage(detail, viewer, h.links).WithReviewError(text, message)
	c.HTML(http.StatusUnprocessableEntity, pages.ModelTemplate, page)
}
