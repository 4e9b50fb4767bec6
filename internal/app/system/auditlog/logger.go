// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/tribehub/internal/app/store/audit"
	"github.com/dalemusser/tribehub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// ValidMode reports whether m is one of the destination settings.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Auth covers login and logout.
	Auth string
	// Admin covers tribe creation and lifecycle changes made by admins.
	Admin string
	// Member covers joins, leaves and persona refreshes.
	Member string
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via audit.Store) and/or structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.TribeID != nil {
		fields = append(fields, zap.String("tribe_id", event.TribeID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryAdmin:
		m = l.config.Admin
	case audit.CategoryMember:
		m = l.config.Member
	}
	if m == "" {
		return ModeAll
	}
	return m
}

// Log records an audit event based on configuration. A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.mode(event.Category)
	if setting == ModeOff {
		return
	}
	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, e audit.Event) audit.Event {
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	}))
}

// LoginFailed logs a rejected login. userID is nil when no account matched.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, userID *primitive.ObjectID, email, reason string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		UserID:        userID,
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": email},
	}))
}

// LoginRateLimited logs a login refused by the rate limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginRateLimited,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"attempted_email": email},
	}))
}

// Logout logs a user logout. userIDStr comes from the session and may be empty.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		Success:   true,
	}))
}

// --- Admin Events ---

// TribeCreated logs an admin forming a tribe.
func (l *Logger) TribeCreated(ctx context.Context, r *http.Request, actorID, tribeID primitive.ObjectID, name string, members, score int) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventTribeCreated,
		ActorID:   &actorID,
		TribeID:   &tribeID,
		Success:   true,
		Details: map[string]string{
			"name":    name,
			"members": strconv.Itoa(members),
			"score":   strconv.Itoa(score),
		},
	}))
}

// TribeChanged logs an admin lifecycle action (activate, deactivate,
// archive, delete); eventType is one of the audit.EventTribe* constants.
func (l *Logger) TribeChanged(ctx context.Context, r *http.Request, eventType string, actorID, tribeID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &actorID,
		TribeID:   &tribeID,
		Success:   true,
	}))
}

// --- Member Events ---

// TribeJoined logs a member joining a tribe with the recomputed score.
func (l *Logger) TribeJoined(ctx context.Context, r *http.Request, userID, tribeID primitive.ObjectID, score int) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryMember,
		EventType: audit.EventTribeJoined,
		UserID:    &userID,
		TribeID:   &tribeID,
		Success:   true,
		Details:   map[string]string{"score": strconv.Itoa(score)},
	}))
}

// TribeLeft logs a member leaving a tribe.
func (l *Logger) TribeLeft(ctx context.Context, r *http.Request, userID, tribeID primitive.ObjectID) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryMember,
		EventType: audit.EventTribeLeft,
		UserID:    &userID,
		TribeID:   &tribeID,
		Success:   true,
	}))
}

// PersonaRefreshed logs a regenerated persona.
func (l *Logger) PersonaRefreshed(ctx context.Context, r *http.Request, userID primitive.ObjectID, hobbies int) {
	l.Log(ctx, fromRequest(r, audit.Event{
		Category:  audit.CategoryMember,
		EventType: audit.EventPersonaRefreshed,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"hobbies": strconv.Itoa(hobbies)},
	}))
}

// --- System Events ---

// TribeAutoArchived logs the archive worker retiring a tribe after its meetup.
func (l *Logger) TribeAutoArchived(ctx context.Context, tribeID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySystem,
		EventType: audit.EventTribeAutoArchived,
		TribeID:   &tribeID,
		Success:   true,
	})
}
