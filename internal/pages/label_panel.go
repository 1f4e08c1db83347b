package pages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/modelhub/internal/feedback"
)

// LabelPanelState is the lifecycle of the label sample panel.
type LabelPanelState string

const (
	PanelClosed     LabelPanelState = "closed"
	PanelOpen       LabelPanelState = "open"
	PanelSubmitting LabelPanelState = "submitting"
	PanelSaved      LabelPanelState = "saved"
	PanelFailed     LabelPanelState = "failed"
)

// PanelEvent drives LabelPanelState transitions.
type PanelEvent string

const (
	EventOpen    PanelEvent = "open"
	EventSubmit  PanelEvent = "submit"
	EventSucceed PanelEvent = "succeed"
	EventFail    PanelEvent = "fail"
	EventDismiss PanelEvent = "dismiss"
)

// ErrInvalidTransition is returned for events the current state does not accept.
var ErrInvalidTransition = errors.New("pages: invalid label panel transition")

var panelTransitions = map[LabelPanelState]map[PanelEvent]LabelPanelState{
	PanelClosed: {
		EventOpen: PanelOpen,
	},
	PanelOpen: {
		EventSubmit:  PanelSubmitting,
		EventDismiss: PanelClosed,
	},
	PanelSubmitting: {
		EventSucceed: PanelSaved,
		EventFail:    PanelFailed,
	},
	PanelSaved: {
		EventOpen:    PanelOpen,
		EventDismiss: PanelClosed,
	},
	PanelFailed: {
		EventSubmit:  PanelSubmitting,
		EventDismiss: PanelClosed,
	},
}

// Next returns the state reached from s on event.
func (s LabelPanelState) Next(event PanelEvent) (LabelPanelState, error) {
	next, ok := panelTransitions[s][event]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, s, event)
	}
	return next, nil
}

// PanelStateFromQuery maps the label query parameter to a panel state. Only
// states reachable by navigation are accepted.
func PanelStateFromQuery(value string) LabelPanelState {
	switch LabelPanelState(strings.TrimSpace(value)) {
	case PanelOpen:
		return PanelOpen
	case PanelSaved:
		return PanelSaved
	default:
		return PanelClosed
	}
}

// QualityOption is one selectable quality rating.
type QualityOption struct {
	Value   int
	Checked bool
	Stars   []Star
}

// TagOption is one selectable tag.
type TagOption struct {
	Name    string
	Checked bool
}

// LabelPanel is the view model of the label sample panel.
type LabelPanel struct {
	State          LabelPanelState
	NumID          int64
	Action         string
	OpenHref       string
	CloseHref      string
	QualityOptions []QualityOption
	TagOptions     []TagOption
	ExtraTags      string
	NSFW           bool
	Error          string
}

const qualityScale = 5

// NewLabelPanel builds the panel for a loaded sample, pre-filled with its current labels.
func NewLabelPanel(detail feedback.Detail, suggestedTags []string, state LabelPanelState) LabelPanel {
	page := FeedbackPath(fmt.Sprint(detail.NumID))
	panel := LabelPanel{
		State:     state,
		NumID:     detail.NumID,
		Action:    LabelPath(detail.ID),
		OpenHref:  page + "?label=" + string(PanelOpen),
		CloseHref: page,
	}
	panel.fill(detail.Quality, detail.Tags, suggestedTags, detail.NSFW)
	return panel
}

func (p *LabelPanel) fill(quality *int, tags []string, suggestedTags []string, nsfw bool) {
	selected := 0
	if quality != nil {
		selected = *quality
	}
	p.QualityOptions = make([]QualityOption, 0, qualityScale)
	for value := 1; value <= qualityScale; value++ {
		p.QualityOptions = append(p.QualityOptions, QualityOption{
			Value:   value,
			Checked: value == selected,
			Stars:   StarRating(value),
		})
	}

	chosen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		chosen[strings.ToLower(strings.TrimSpace(tag))] = true
	}
	offered := make(map[string]bool, len(suggestedTags))
	p.TagOptions = make([]TagOption, 0, len(suggestedTags))
	for _, name := range suggestedTags {
		offered[name] = true
		p.TagOptions = append(p.TagOptions, TagOption{Name: name, Checked: chosen[name]})
	}

	var extra []string
	for _, tag := range tags {
		name := strings.ToLower(strings.TrimSpace(tag))
		if name != "" && !offered[name] {
			extra = append(extra, name)
		}
	}
	p.ExtraTags = strings.Join(extra, ", ")
	p.NSFW = nsfw
}

// Open reports whether the panel body is rendered.
func (p LabelPanel) Open() bool {
	switch p.State {
	case PanelOpen, PanelSubmitting, PanelFailed:
		return true
	default:
		return false
	}
}

// Saved reports whether the confirmation banner is rendered.
func (p LabelPanel) Saved() bool {
	return p.State == PanelSaved
}

// Failed returns the panel after a rejected submission, showing the submitted
// values and the failure message.
func (p LabelPanel) Failed(input feedback.LabelInput, suggestedTags []string, message string) LabelPanel {
	state, err := p.State.Next(EventFail)
	if err != nil {
		state = PanelFailed
	}
	p.State = state
	p.fill(input.Quality, input.Tags, suggestedTags, input.NSFW)
	p.Error = message
	return p
}
