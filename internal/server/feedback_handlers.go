package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MarcoPoloResearchLab/modelhub/internal/feedback"
	"github.com/MarcoPoloResearchLab/modelhub/internal/pages"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	labelOutcomeSaved   = "saved"
	labelOutcomeInvalid = "invalid"
	labelOutcomeFailed  = "failed"
)

var errInvalidQuality = errors.New("quality must be a number")

// handleFeedback serves both sample routes: an all-digit ref is a display id
// and gets the label panel, anything else is a storage id.
func (h *httpHandler) handleFeedback(c *gin.Context) {
	ref := c.Param("ref")
	numID, byNumID := feedback.ParseNumID(ref)

	var (
		detail feedback.Detail
		err    error
	)
	if byNumID {
		detail, err = h.feedback.LoadByNumID(c.Request.Context(), numID)
	} else {
		detail, err = h.feedback.Load(c.Request.Context(), ref)
	}
	if err != nil {
		if errors.Is(err, feedback.ErrFeedbackNotFound) {
			h.handleNotFound(c)
			return
		}
		h.renderInternalError(c, "failed to load feedback", err)
		return
	}

	page, err := pages.NewFeedbackPage(detail, viewerFrom(c), h.markdown)
	if err != nil {
		h.renderInternalError(c, "failed to render feedback transcript", err)
		return
	}
	if byNumID {
		suggested, err := h.feedback.SuggestedTags(c.Request.Context())
		if err != nil {
			h.renderInternalError(c, "failed to load suggested tags", err)
			return
		}
		page = page.WithPanel(pages.NewLabelPanel(detail, suggested, pages.PanelStateFromQuery(c.Query("label"))))
	}
	c.HTML(http.StatusOK, pages.FeedbackTemplate, page)
}

func (h *httpHandler) handleLabel(c *gin.Context) {
	ctx := c.Request.Context()
	detail, err := h.feedback.Load(ctx, c.Param("ref"))
	if err != nil {
		if errors.Is(err, feedback.ErrFeedbackNotFound) {
			h.handleNotFound(c)
			return
		}
		h.renderInternalError(c, "failed to load feedback", err)
		return
	}
	suggested, err := h.feedback.SuggestedTags(ctx)
	if err != nil {
		h.renderInternalError(c, "failed to load suggested tags", err)
		return
	}

	panel := pages.NewLabelPanel(detail, suggested, pages.PanelOpen)
	state, err := panel.State.Next(pages.EventSubmit)
	if err != nil {
		h.renderInternalError(c, "label panel rejected submission", err)
		return
	}
	panel.State = state

	input, err := parseLabelForm(c)
	if err != nil {
		h.metrics.observeLabel(labelOutcomeInvalid)
		h.renderLabelFailure(c, http.StatusUnprocessableEntity, detail, panel.Failed(input, suggested, "Quality must be between 1 and 5 stars."))
		return
	}

	result, err := h.feedback.Label(ctx, detail.ID, input)
	switch {
	case err == nil:
	case errors.Is(err, feedback.ErrInvalidLabel):
		h.metrics.observeLabel(labelOutcomeInvalid)
		h.renderLabelFailure(c, http.StatusUnprocessableEntity, detail, panel.Failed(input, suggested, "Check the quality rating and keep tags under 64 characters."))
		return
	case errors.Is(err, feedback.ErrFeedbackNotFound):
		h.handleNotFound(c)
		return
	default:
		h.metrics.observeLabel(labelOutcomeFailed)
		h.logger.Error("failed to label feedback", zap.String("feedback_id", detail.ID), zap.Error(err))
		_ = c.Error(err)
		h.renderLabelFailure(c, http.StatusInternalServerError, detail, panel.Failed(input, suggested, "Labels could not be saved. Try again."))
		return
	}

	h.metrics.observeLabel(labelOutcomeSaved)
	h.logger.Debug("label submission applied",
		zap.String("feedback_id", detail.ID),
		zap.Strings("added", result.Added),
		zap.Strings("removed", result.Removed),
	)
	c.Redirect(http.StatusSeeOther, pages.FeedbackPath(strconv.FormatInt(detail.NumID, 10))+"?label="+string(pages.PanelSaved))
}

func (h *httpHandler) renderLabelFailure(c *gin.Context, status int, detail feedback.Detail, panel pages.LabelPanel) {
	page, err := pages.NewFeedbackPage(detail, viewerFrom(c), h.markdown)
	if err != nil {
		h.renderInternalError(c, "failed to render feedback transcript", err)
		return
	}
	c.HTML(status, pages.FeedbackTemplate, page.WithPanel(panel))
}

// parseLabelForm reads quality, tags, tags_extra and nsfw. The nsfw checkbox
// counts when present, whatever its value.
func parseLabelForm(c *gin.Context) (feedback.LabelInput, error) {
	input := feedback.LabelInput{}
	_, input.NSFW = c.GetPostForm("nsfw")

	for _, tag := range c.PostFormArray("tags") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			input.Tags = append(input.Tags, trimmed)
		}
	}
	for _, tag := range strings.Split(c.PostForm("tags_extra"), ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			input.Tags = append(input.Tags, trimmed)
		}
	}

	rawQuality := strings.TrimSpace(c.PostForm("quality"))
	if rawQuality == "" {
		return input, nil
	}
	quality, err := strconv.Atoi(rawQuality)
	if err != nil {
		return input, errInvalidQuality
	}
	input.Quality = &quality
	return input, nil
}
