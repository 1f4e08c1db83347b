package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MarcoPoloResearchLab/modelhub/internal/auth"
	"github.com/MarcoPoloResearchLab/modelhub/internal/pages"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubSessionValidator struct {
	session auth.Session
	err     error
}

func (s stubSessionValidator) ValidateRequest(*http.Request) (auth.Session, error) {
	return s.session, s.err
}

func runResolveViewer(t *testing.T, validator SessionValidator) (pages.Viewer, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)

	core, logs := observer.New(zapcore.DebugLevel)
	handler := &httpHandler{sessions: validator, logger: zap.New(core)}
	handler.resolveViewer(ctx)

	if ctx.IsAborted() {
		t.Fatalf("expected request to continue without a session")
	}
	return viewerFrom(ctx), logs
}

func TestResolveViewerAttachesSession(t *testing.T) {
	viewer, logs := runResolveViewer(t, stubSessionValidator{session: auth.Session{UserID: "user-1", DisplayName: "Ada"}})

	session, ok := viewer.Session()
	if !ok {
		t.Fatalf("expected signed-in viewer")
	}
	if session.UserID != "user-1" {
		t.Fatalf("unexpected session %+v", session)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no log entries, got %d", logs.Len())
	}
}

func TestResolveViewerTreatsMissingCookieAsAnonymous(t *testing.T) {
	viewer, logs := runResolveViewer(t, stubSessionValidator{err: auth.ErrMissingSessionToken})

	if viewer.SignedIn() {
		t.Fatalf("expected anonymous viewer")
	}
	if logs.Len() != 0 {
		t.Fatalf("expected missing cookie to be silent, got %d entries", logs.Len())
	}
}

func TestResolveViewerLogsExpiredSessionAtInfoLevel(t *testing.T) {
	viewer, logs := runResolveViewer(t, stubSessionValidator{err: auth.ErrExpiredSessionToken})

	if viewer.SignedIn() {
		t.Fatalf("expected anonymous viewer")
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.InfoLevel {
		t.Fatalf("expected info level for expired session, got %s", entry.Level)
	}
	if entry.Message != "session validation failed" {
		t.Fatalf("unexpected log message: %q", entry.Message)
	}
	hasExpired := false
	for _, field := range entry.Context {
		if field.Type == zapcore.ErrorType && errors.Is(field.Interface.(error), auth.ErrExpiredSessionToken) {
			hasExpired = true
			break
		}
	}
	if !hasExpired {
		t.Fatalf("expected expired session error context, got %v", entry.Context)
	}
}

func TestResolveViewerLogsUnexpectedSessionErrorAtWarnLevel(t *testing.T) {
	viewer, logs := runResolveViewer(t, stubSessionValidator{err: errors.New("signature mismatch")})

	if viewer.SignedIn() {
		t.Fatalf("expected anonymous viewer")
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level for unexpected error, got %s", entries[0].Level)
	}
}
