package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/audit"
	"github.com/nerrad567/gray-logic-home/internal/auth"
	"github.com/nerrad567/gray-logic-home/internal/autolock"
	"github.com/nerrad567/gray-logic-home/internal/childdevice"
	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/database/dbtest"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-home/internal/notification"
	"github.com/nerrad567/gray-logic-home/internal/realtime"
	"github.com/nerrad567/gray-logic-home/internal/room"
	"github.com/nerrad567/gray-logic-home/internal/safety"
	"github.com/nerrad567/gray-logic-home/internal/security"
	"github.com/nerrad567/gray-logic-home/internal/settings"
	"github.com/nerrad567/gray-logic-home/internal/voice"
)

const (
	testSecret = "test-secret-key-at-least-32-characters-long"
	testIssuer = "gray-logic-test"
	testUser   = "user-1"
)

type testEnv struct {
	srv      *Server
	router   http.Handler
	bus      *events.Bus
	broker   *realtime.Broker
	rooms    *room.Service
	devices  *childdevice.SQLiteRepository
	security *security.SQLiteRepository
	notes    *notification.SQLiteRepository
	autolock *autolock.Service
}

// testServer builds a Server over a migrated SQLite database with real
// repositories, a real change broker and a real event bus.
func testServer(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.Open(t)
	broker := realtime.NewBroker(0)
	t.Cleanup(broker.Close)
	bus := events.NewBus()

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	auditRepo := audit.NewSQLiteRepository(db)
	recorder := audit.NewRecorder(auditRepo, log)

	roomRepo := room.NewSQLiteRepository(db, broker)
	rooms := room.NewService(roomRepo, room.ServiceDeps{Events: bus, Logger: log})
	devices := childdevice.NewSQLiteRepository(db, broker)
	secRepo := security.NewSQLiteRepository(db, broker)
	notes := notification.NewSQLiteRepository(db, broker)
	settingsSvc := settings.NewService(settings.NewSQLiteRepository(db, broker), nil, recorder)
	al := autolock.New(time.Hour, autolock.Deps{Rooms: roomRepo, Settings: settingsSvc, Events: bus, Logger: log})

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: testSecret, Issuer: testIssuer, AccessTokenTTL: 15},
		},
		Logger:        log,
		Version:       "test",
		Bus:           bus,
		Feed:          broker,
		Rooms:         rooms,
		Safety:        safety.NewSQLiteRepository(db, broker),
		SecuritySvc:   security.NewService(secRepo, bus, recorder),
		Settings:      settingsSvc,
		Notifications: notes,
		Devices:       devices,
		Voice:         voice.NewService(voice.NewSQLiteRepository(db), nil),
		AutoLock:      al,
		Audit:         auditRepo,
		DB:            db,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	dispose := srv.bridgeEvents()
	t.Cleanup(dispose)

	return &testEnv{
		srv:      srv,
		router:   srv.buildRouter(),
		bus:      bus,
		broker:   broker,
		rooms:    rooms,
		devices:  devices,
		security: secRepo,
		notes:    notes,
		autolock: al,
	}
}

func testToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateAccessToken(userID, testSecret, testIssuer, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}
	return token
}

// do sends an authenticated request as testUser through the router.
func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, testUser, method, path, body)
}

func (e *testEnv) doAs(t *testing.T, userID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken(t, userID))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	env := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[map[string]any](t, w)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health = %v, want status ok and version test", resp)
	}
}

func TestMetrics(t *testing.T) {
	env := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	m := decode[SystemMetrics](t, w)
	if m.Version != "test" || m.Runtime.Goroutines == 0 {
		t.Errorf("metrics = %+v", m)
	}
	if m.MQTT.Enabled || m.MQTT.Connected {
		t.Errorf("MQTT = %+v without a client", m.MQTT)
	}
	if m.AutoLock != "idle" || m.Realtime.Subscriptions != 0 {
		t.Errorf("autolock = %q, feed subscriptions = %d; want idle and 0", m.AutoLock, m.Realtime.Subscriptions)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	env := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if e := decode[Error](t, w); e.Code != ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", e.Code, ErrCodeUnauthorized)
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	env := testServer(t)
	token, err := auth.GenerateAccessToken(testUser, "another-secret-that-is-long-enough-too", testIssuer, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestHandleMe(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/auth/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if resp := decode[map[string]any](t, w); resp["user_id"] != testUser {
		t.Errorf("user_id = %v, want %s", resp["user_id"], testUser)
	}
}

func TestCreateRoomAndUpdateAppliance(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/rooms",
		`{"name":"Lounge","appliances":[{"name":"Ceiling light","type":"lighting","intensity":40}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	created := decode[room.Room](t, w)
	if created.ID == "" || created.UserID != testUser || len(created.Appliances) != 1 {
		t.Fatalf("created room = %+v", created)
	}
	appID := created.Appliances[0].ID

	changed := make(chan events.ApplianceChanged, 1)
	dispose := events.On(env.bus, func(ev events.ApplianceChanged) { changed <- ev })
	defer dispose()

	w = env.do(t, http.MethodPatch, "/api/v1/rooms/"+created.ID+"/appliances/"+appID, `{"status":true,"intensity":75}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	updated := decode[room.Room](t, w)
	a := updated.Appliances[0]
	if !a.Status || a.Intensity == nil || *a.Intensity != 75 {
		t.Errorf("appliance = %+v, want on at 75", a)
	}

	select {
	case ev := <-changed:
		if ev.RoomID != created.ID || ev.ApplianceID != appID || !ev.Status {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no ApplianceChanged event")
	}

	w = env.do(t, http.MethodGet, "/api/v1/rooms", "")
	if resp := decode[map[string]any](t, w); resp["count"] != float64(1) {
		t.Errorf("list count = %v, want 1", resp["count"])
	}
}

func TestCreateRoom_Validation(t *testing.T) {
	env := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"appliances":[]}`},
		{"unknown appliance type", `{"name":"Hall","appliances":[{"name":"Fan","type":"robot"}]}`},
		{"intensity out of range", `{"name":"Hall","appliances":[{"name":"Lamp","type":"lighting","intensity":150}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/rooms", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
			if e := decode[Error](t, w); e.Code != ErrCodeValidation {
				t.Errorf("code = %q, want %q", e.Code, ErrCodeValidation)
			}
		})
	}

	w := env.do(t, http.MethodPost, "/api/v1/rooms", "not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUpdateAppliance_NotFound(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPatch, "/api/v1/rooms/room-missing/appliances/a1", `{"status":true}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusNotFound, w.Body.String())
	}

	w = env.do(t, http.MethodPatch, "/api/v1/rooms/room-missing/appliances/a1", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty update status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSetSecurityMode_PublishesChange(t *testing.T) {
	env := testServer(t)
	ctx := context.Background()

	sys := &security.System{ID: "sec-1", UserID: testUser, Name: "Front door", LockStatus: security.Locked, SecurityMode: security.ModeHome}
	if err := env.security.Create(ctx, sys); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	modes := make(chan events.SecurityModeChanged, 1)
	dispose := events.On(env.bus, func(ev events.SecurityModeChanged) { modes <- ev })
	defer dispose()

	w := env.do(t, http.MethodPut, "/api/v1/security/sec-1/mode", `{"mode":"away"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	select {
	case ev := <-modes:
		if ev.Mode != string(security.ModeAway) || ev.UserID != testUser {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no SecurityModeChanged event")
	}

	w = env.do(t, http.MethodPut, "/api/v1/security/sec-1/mode", `{"mode":"vacation"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid mode status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAutoLock_StatusAndCancel(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/autolock/cancel", "")
	if resp := decode[map[string]bool](t, w); resp["cancelled"] {
		t.Error("cancel while idle reported cancelled=true")
	}

	env.autolock.Arm(testUser)
	defer env.autolock.Cancel()

	w = env.do(t, http.MethodGet, "/api/v1/autolock", "")
	if st := decode[autolock.Status](t, w); !st.Armed || st.UserID != testUser {
		t.Errorf("status = %+v, want armed for %s", st, testUser)
	}

	w = env.do(t, http.MethodPost, "/api/v1/autolock/cancel", "")
	if resp := decode[map[string]bool](t, w); !resp["cancelled"] {
		t.Error("cancel while armed reported cancelled=false")
	}
	if env.autolock.Status().Armed {
		t.Error("still armed after cancel")
	}
}

func TestAutoLock_ScopedToCaller(t *testing.T) {
	env := testServer(t)

	env.autolock.Arm("user-2")
	defer env.autolock.Cancel()

	w := env.do(t, http.MethodGet, "/api/v1/autolock", "")
	if st := decode[autolock.Status](t, w); st.Armed || st.UserID != "" || st.State != autolock.Idle {
		t.Errorf("status for %s = %+v, want idle", testUser, st)
	}

	w = env.do(t, http.MethodPost, "/api/v1/autolock/cancel", "")
	if resp := decode[map[string]bool](t, w); resp["cancelled"] {
		t.Error("another user's cancel reported cancelled=true")
	}
	if st := env.autolock.Status(); !st.Armed || st.UserID != "user-2" {
		t.Fatalf("status = %+v, want still armed for user-2", st)
	}

	w = env.doAs(t, "user-2", http.MethodGet, "/api/v1/autolock", "")
	if st := decode[autolock.Status](t, w); !st.Armed || st.UserID != "user-2" {
		t.Errorf("status for user-2 = %+v, want armed", st)
	}

	w = env.doAs(t, "user-2", http.MethodPost, "/api/v1/autolock/cancel", "")
	if resp := decode[map[string]bool](t, w); !resp["cancelled"] {
		t.Error("owner's cancel reported cancelled=false")
	}
}

func TestSecuritySystem_CreateAndDelete(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/security", `{"name":"Front door","shutdown_exceptions":["Fridge"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	sys := decode[security.System](t, w)
	if !strings.HasPrefix(sys.ID, "sec-") || sys.UserID != testUser {
		t.Errorf("created = %+v", sys)
	}
	if sys.LockStatus != security.Unlocked || sys.SecurityMode != security.ModeHome {
		t.Errorf("lock = %q, mode = %q; want unlocked and home", sys.LockStatus, sys.SecurityMode)
	}

	modes := make(chan events.SecurityModeChanged, 1)
	dispose := events.On(env.bus, func(ev events.SecurityModeChanged) { modes <- ev })
	defer dispose()

	w = env.do(t, http.MethodPut, "/api/v1/security/"+sys.ID+"/mode", `{"mode":"away"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("mode status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	select {
	case ev := <-modes:
		if ev.SystemID != sys.ID || ev.Mode != string(security.ModeAway) {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no SecurityModeChanged event")
	}

	w = env.doAs(t, "user-2", http.MethodDelete, "/api/v1/security/"+sys.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("delete by other user status = %d, want %d", w.Code, http.StatusNotFound)
	}
	w = env.do(t, http.MethodDelete, "/api/v1/security/"+sys.ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d; body: %s", w.Code, http.StatusNoContent, w.Body.String())
	}
	w = env.do(t, http.MethodPut, "/api/v1/security/"+sys.ID+"/mode", `{"mode":"home"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("mode after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSecuritySystem_CreateValidation(t *testing.T) {
	env := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{}`},
		{"bad lock status", `{"name":"Door","lock_status":"ajar"}`},
		{"bad mode", `{"name":"Door","security_mode":"vacation"}`},
		{"empty exception", `{"name":"Door","shutdown_exceptions":[""]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/security", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
		})
	}
}

func TestSafetySystem_CreateAndDelete(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/safety", `{"room_name":"Kitchen","system_type":"window_rain"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	sys := decode[safety.System](t, w)
	if !strings.HasPrefix(sys.ID, "safety-") || sys.Status != safety.StatusUnknown || sys.SystemType != safety.SystemType("window_rain") {
		t.Errorf("created = %+v", sys)
	}

	w = env.do(t, http.MethodGet, "/api/v1/safety/"+sys.ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d, want %d", w.Code, http.StatusOK)
	}

	w = env.do(t, http.MethodPost, "/api/v1/safety", `{"room_name":"Kitchen","system_type":"flood"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid type status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = env.do(t, http.MethodDelete, "/api/v1/safety/"+sys.ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d; body: %s", w.Code, http.StatusNoContent, w.Body.String())
	}
	w = env.do(t, http.MethodGet, "/api/v1/safety/"+sys.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDevice_CreateAndDelete(t *testing.T) {
	env := testServer(t)
	body := `{"id":"dev-42","name":"Lamp plug","device_type_id":"smart-plug","state":{"power":"on"}}`

	w := env.do(t, http.MethodPost, "/api/v1/devices", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	d := decode[childdevice.Device](t, w)
	if d.ID != "dev-42" || d.UserID != testUser || d.Protocol != "mqtt" {
		t.Errorf("created = %+v", d)
	}

	w = env.do(t, http.MethodPost, "/api/v1/devices", body)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", w.Code, http.StatusConflict)
	}

	w = env.do(t, http.MethodPost, "/api/v1/devices", `{"id":"dev/1","name":"Bad","device_type_id":"relay"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("topic characters in id status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = env.do(t, http.MethodDelete, "/api/v1/devices/dev-42", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d; body: %s", w.Code, http.StatusNoContent, w.Body.String())
	}
	w = env.do(t, http.MethodDelete, "/api/v1/devices/dev-42", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestNotifications_ReadFlow(t *testing.T) {
	env := testServer(t)
	ctx := context.Background()

	for _, title := range []string{"Filter due", "Smoke detector alert"} {
		if err := env.notes.Create(ctx, &notification.Notification{UserID: testUser, Type: notification.TypeSystem, Title: title}); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	w := env.do(t, http.MethodGet, "/api/v1/notifications/unread-count", "")
	if resp := decode[map[string]int](t, w); resp["unread"] != 2 {
		t.Fatalf("unread = %v, want 2", resp)
	}

	w = env.do(t, http.MethodPost, "/api/v1/notifications/read-all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("read-all status = %d; body: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/notifications/unread-count", "")
	if resp := decode[map[string]int](t, w); resp["unread"] != 0 {
		t.Errorf("unread after read-all = %v, want 0", resp)
	}
}

func TestVoiceResolve_NoMatch(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/voice/resolve", `{"transcript":"sing me a song"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusNotFound, w.Body.String())
	}
}

func TestConfirmPayment_FunctionsDisabled(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/settings/payment/confirm", `{"session_id":"cs_test_123"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusServiceUnavailable, w.Body.String())
	}
}

func TestWSTicket_SingleUse(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/ws-ticket", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	ticket, _ := decode[map[string]any](t, w)["ticket"].(string)
	if ticket == "" {
		t.Fatal("empty ticket")
	}

	entry, ok := env.srv.validateTicket(ticket)
	if !ok || entry.userID != testUser {
		t.Fatalf("validateTicket() = %+v, %v; want bound to %s", entry, ok, testUser)
	}
	if _, ok := env.srv.validateTicket(ticket); ok {
		t.Error("ticket accepted twice")
	}
}

func TestWSTicket_Expired(t *testing.T) {
	env := testServer(t)

	env.srv.tickets.mu.Lock()
	env.srv.tickets.tickets["stale"] = ticketEntry{userID: testUser, expiresAt: time.Now().Add(-time.Second)}

	env.srv.tickets.tickets["old"] = ticketEntry{userID: testUser, expiresAt: time.Now().Add(-time.Minute)}
	env.srv.tickets.mu.Unlock()

	if _, ok := env.srv.validateTicket("stale"); ok {
		t.Error("expired ticket accepted")
	}

	env.srv.cleanExpiredTickets()
	env.srv.tickets.mu.Lock()
	remaining := len(env.srv.tickets.tickets)
	env.srv.tickets.mu.Unlock()
	if remaining != 0 {
		t.Errorf("tickets after cleanup = %d, want 0", remaining)
	}
}

func TestAuditLog_RecordsLockChanges(t *testing.T) {
	env := testServer(t)
	sys := &security.System{ID: "sec-1", UserID: testUser, Name: "Front door", LockStatus: security.Locked}
	if err := env.security.Create(context.Background(), sys); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	w := env.do(t, http.MethodPut, "/api/v1/security/sec-1/lock", `{"lock_status":"unlocked"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("lock status = %d; body: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/audit?action=unlock", "")
	if w.Code != http.StatusOK {
		t.Fatalf("audit status = %d; body: %s", w.Code, w.Body.String())
	}
	res := decode[audit.ListResult](t, w)
	if res.Total != 1 || res.Entries[0].EntityID != "sec-1" {
		t.Errorf("audit = %+v, want one unlock of sec-1", res)
	}

	for _, q := range []string{"?action=explode", "?limit=abc", "?limit=500", "?offset=-1"} {
		if w := env.do(t, http.MethodGet, "/api/v1/audit"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("GET /audit%s status = %d, want 400", q, w.Code)
		}
	}
}
