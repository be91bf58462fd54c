package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/app"
	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/handler"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/schedule"
	"github.com/stemsi/certify-backend/internal/store"
	"github.com/stemsi/certify-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail = "admin@certify.example"
	adminPass  = "rahasia123"
)

type apiResponse struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

type testEnv struct {
	engine *gin.Engine
	svc    *app.Services
	bus    *bus.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zerolog.Nop()
	cfg := &config.Config{
		GinMode:           gin.TestMode,
		JWTSecret:         "router-test-secret",
		JWTExpiry:         time.Hour,
		BcryptCost:        4,
		BuiltinAdminEmail: adminEmail,
		Location:          time.UTC,
	}
	b := bus.New()
	st := store.New(store.NewMemoryKV(), b, log)
	svc := app.NewServices(ctx, cfg, st, nil, log)

	_, err := svc.Auth.EnsureAccount(ctx, adminEmail, "Administrator", model.RoleAdmin, adminPass)
	require.NoError(t, err)

	handlers := &Handlers{
		Auth:         handler.NewAuthHandler(svc.Auth),
		Setting:      handler.NewSettingHandler(svc.Setting),
		Schedule:     handler.NewScheduleHandler(svc.Booking),
		Appointment:  handler.NewAppointmentHandler(svc.Booking, svc.Admin),
		Dashboard:    handler.NewDashboardHandler(svc.Dashboard),
		Notification: handler.NewNotificationHandler(svc.Notification, svc.Admin),
		Quiz:         handler.NewQuizHandler(svc.Quiz),
		Test:         handler.NewTestHandler(svc.Admin),
		User:         handler.NewUserHandler(svc.Admin),
		WS:           handler.NewWSHandler(b, svc.Auth, log, nil),
	}
	return &testEnv{engine: SetupRouter(ctx, svc.Auth, handlers, cfg, log), svc: svc, bus: b}
}

func (e *testEnv) call(t *testing.T, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var res apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return w.Code, res
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	code, res := e.call(t, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, code, string(res.Data))
	var session model.AuthSession
	require.NoError(t, json.Unmarshal(res.Data, &session))
	return session.Token
}

func (e *testEnv) register(t *testing.T, email, name string) string {
	t.Helper()
	code, res := e.call(t, http.MethodPost, "/api/v1/auth/register", "", model.RegisterRequest{Email: email, FullName: name, Password: "sandi123"})
	require.Equal(t, http.StatusCreated, code)
	var session model.AuthSession
	require.NoError(t, json.Unmarshal(res.Data, &session))
	return session.Token
}

func decode[T any](t *testing.T, res apiResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(res.Data, &v))
	return v
}

func errCode(res apiResponse) response.ErrCode {
	if res.Error == nil {
		return ""
	}
	return res.Error.Code
}

// firstBookableSlot looks past the default lead time for an open slot.
func (e *testEnv) firstBookableSlot(t *testing.T) (string, schedule.SlotAvailability) {
	t.Helper()
	from := time.Now().UTC().AddDate(0, 0, 3).Format(model.DateLayout)
	code, res := e.call(t, http.MethodGet, "/api/v1/schedule/days?count=5&from="+from, "", nil)
	require.Equal(t, http.StatusOK, code)
	days := decode[struct {
		Days []schedule.DayAvailability `json:"days"`
	}](t, res).Days
	require.NotEmpty(t, days)

	code, res = e.call(t, http.MethodGet, "/api/v1/schedule/days/"+days[0].Date+"/slots", "", nil)
	require.Equal(t, http.StatusOK, code)
	slots := decode[struct {
		Slots []schedule.SlotAvailability `json:"slots"`
	}](t, res).Slots
	require.NotEmpty(t, slots)
	return days[0].Date, slots[0]
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"request_id":"req-42"`)
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)

	code, res := e.call(t, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: adminEmail, Password: "salah-sandi"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, response.ErrInvalidCredentials, errCode(res))

	code, res = e.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrValidation, errCode(res))
	assert.Contains(t, res.Error.Fields, "email")
	assert.Contains(t, res.Error.Fields, "password")

	token := e.register(t, "budi@example.com", "Budi Santoso")

	code, res = e.call(t, http.MethodPost, "/api/v1/auth/register", "", model.RegisterRequest{Email: "BUDI@example.com", FullName: "Budi", Password: "sandi123"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrEmailTaken, errCode(res))

	code, res = e.call(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[struct {
		User model.AdminUserRecord `json:"user"`
	}](t, res).User
	assert.Equal(t, "budi@example.com", me.Email)
	assert.Equal(t, model.RoleUser, me.Role)

	code, res = e.call(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, response.ErrTokenRequired, errCode(res))

	code, res = e.call(t, http.MethodGet, "/api/v1/auth/me", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, response.ErrTokenInvalid, errCode(res))

	// A second login replaces the first session.
	newer := e.login(t, "budi@example.com", "sandi123")
	code, res = e.call(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, response.ErrSessionInvalidated, errCode(res))

	code, _ = e.call(t, http.MethodPost, "/api/v1/auth/logout", newer, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.call(t, http.MethodGet, "/api/v1/auth/me", newer, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "siti@example.com", "Siti Aminah")

	code, res := e.call(t, http.MethodGet, "/api/v1/admin/settings", token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, response.ErrAdminAccessOnly, errCode(res))

	adminToken := e.login(t, adminEmail, adminPass)
	code, _ = e.call(t, http.MethodGet, "/api/v1/admin/settings", adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.call(t, http.MethodGet, "/api/v1/admin/dashboard", adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestScheduleValidation(t *testing.T) {
	e := newTestEnv(t)

	code, res := e.call(t, http.MethodGet, "/api/v1/schedule/days?count=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, res.Error.Fields, "count")

	code, _ = e.call(t, http.MethodGet, "/api/v1/schedule/days/31-12-2030/slots", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// 2030-01-01 is a Tuesday.
	code, res = e.call(t, http.MethodGet, "/api/v1/schedule/days/2030-01-01/slots", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, response.ErrDayNotAllowed, errCode(res))
}

func TestBookingAndReviewFlow(t *testing.T) {
	e := newTestEnv(t)
	userToken := e.register(t, "rina@example.com", "Rina Wati")
	adminToken := e.login(t, adminEmail, adminPass)

	code, res := e.call(t, http.MethodPost, "/api/v1/appointments", userToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrValidation, errCode(res))

	date, slot := e.firstBookableSlot(t)
	booking := model.BookingRequest{FullName: "Rina Wati", IDOrPhone: "081298765432", Date: date, StartTime: slot.Start, EndTime: slot.End}

	code, res = e.call(t, http.MethodPost, "/api/v1/appointments", userToken, booking)
	require.Equal(t, http.StatusCreated, code, res.Error)
	appt := decode[struct {
		Appointment model.AdminAppointmentRecord `json:"appointment"`
	}](t, res).Appointment
	assert.Equal(t, model.AppointmentPending, appt.Status)
	assert.Equal(t, "rina@example.com", appt.UserEmail)

	code, res = e.call(t, http.MethodPost, "/api/v1/appointments", userToken, booking)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrActiveAppointment, errCode(res))

	// Other candidates cannot touch it.
	otherToken := e.register(t, "mallory@example.com", "Mallory")
	code, res = e.call(t, http.MethodPost, "/api/v1/appointments/"+appt.ID+"/cancel", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, response.ErrNotOwner, errCode(res))

	code, res = e.call(t, http.MethodPut, "/api/v1/admin/appointments/"+appt.ID+"/status", adminToken, model.SetStatusRequest{Status: model.AppointmentApproved, AdminNote: "Bawa KTP"})
	require.Equal(t, http.StatusOK, code)
	approved := decode[struct {
		Appointment model.AdminAppointmentRecord `json:"appointment"`
	}](t, res).Appointment
	assert.Equal(t, model.AppointmentApproved, approved.Status)

	code, res = e.call(t, http.MethodPut, "/api/v1/admin/appointments/"+appt.ID+"/status", adminToken, model.SetStatusRequest{Status: model.AppointmentPending})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, response.ErrInvalidTransition, errCode(res))

	code, res = e.call(t, http.MethodGet, "/api/v1/notifications", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	inbox := decode[struct {
		Notifications []model.AppNotification `json:"notifications"`
		Unread        int                     `json:"unread"`
	}](t, res)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, 1, inbox.Unread)
	assert.Equal(t, "Appointment approved", inbox.Notifications[0].Title)

	code, _ = e.call(t, http.MethodPost, "/api/v1/notifications/"+inbox.Notifications[0].ID+"/read", userToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, res = e.call(t, http.MethodPost, "/api/v1/notifications/missing/read", userToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, res = e.call(t, http.MethodGet, "/api/v1/admin/appointments?status=approved", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[struct {
		Appointments []model.AdminAppointmentRecord `json:"appointments"`
	}](t, res).Appointments
	require.Len(t, list, 1)
	assert.Equal(t, appt.ID, list[0].ID)

	code, _ = e.call(t, http.MethodGet, "/api/v1/admin/appointments?status=done", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = e.call(t, http.MethodPost, "/api/v1/appointments/"+appt.ID+"/cancel", userToken, model.CancelRequest{Reason: "Sakit"})
	require.Equal(t, http.StatusOK, code)
	cancelled := decode[struct {
		Appointment model.AdminAppointmentRecord `json:"appointment"`
	}](t, res).Appointment
	assert.Equal(t, model.AppointmentCancelled, cancelled.Status)
	assert.Equal(t, model.ActorUser, cancelled.CancelledBy)
}

func TestTestManagement(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.login(t, adminEmail, adminPass)
	userToken := e.register(t, "joko@example.com", "Joko Susilo")

	code, res := e.call(t, http.MethodPost, "/api/v1/admin/tests", adminToken, model.TestInput{Title: "Kosong"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, response.ErrValidation, errCode(res))

	input := model.TestInput{
		Title: "Tahapan Pemilu",
		Questions: []model.QuestionInput{
			{Text: "Kapan masa tenang dimulai?", Options: []string{"H-3", "H-1", "H-7", "Hari H"}, CorrectAnswer: 0},
		},
	}
	code, res = e.call(t, http.MethodPost, "/api/v1/admin/tests", adminToken, input)
	require.Equal(t, http.StatusCreated, code)
	created := decode[struct {
		Test model.AdminTest `json:"test"`
	}](t, res).Test
	require.NotEmpty(t, created.ID)
	assert.Len(t, created.Questions, 1)

	code, res = e.call(t, http.MethodGet, "/api/v1/tests/"+created.ID, userToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = e.call(t, http.MethodPost, "/api/v1/admin/tests", userToken, input)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = e.call(t, http.MethodDelete, "/api/v1/admin/tests/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, res = e.call(t, http.MethodGet, "/api/v1/tests/"+created.ID, userToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, response.ErrNotFound, errCode(res))

	code, _ = e.call(t, http.MethodDelete, "/api/v1/admin/tests/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBroadcastAndBlock(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.login(t, adminEmail, adminPass)
	userToken := e.register(t, "ika@example.com", "Ika Sari")

	code, res := e.call(t, http.MethodPost, "/api/v1/admin/notifications", adminToken, model.BroadcastRequest{Target: model.TargetEmail, TargetEmail: "ghost@example.com", Title: "Info", Message: "Halo"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, response.ErrNoRecipients, errCode(res))

	code, res = e.call(t, http.MethodPost, "/api/v1/admin/notifications", adminToken, model.BroadcastRequest{Target: model.TargetEmail, Title: "Info", Message: "Halo"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, res.Error.Fields, "targetEmail")

	code, res = e.call(t, http.MethodPost, "/api/v1/admin/notifications", adminToken, model.BroadcastRequest{Target: model.TargetUsers, Title: "Info", Message: "Halo"})
	require.Equal(t, http.StatusCreated, code)
	sent := decode[struct {
		Notification model.SentNotificationLog `json:"notification"`
	}](t, res).Notification
	assert.Equal(t, 1, sent.RecipientCount)

	user, ok := e.svc.Admin.UserByEmail("ika@example.com")
	require.True(t, ok)
	code, _ = e.call(t, http.MethodPost, "/api/v1/admin/users/"+user.ID+"/toggle-block", adminToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, res = e.call(t, http.MethodGet, "/api/v1/notifications", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, response.ErrAccountBlocked, errCode(res))

	adminUser, _ := e.svc.Admin.UserByEmail(adminEmail)
	code, _ = e.call(t, http.MethodPost, "/api/v1/admin/users/"+adminUser.ID+"/toggle-block", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestChangeStream(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "dodi@example.com", "Dodi Kusuma")

	srv := httptest.NewServer(e.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/changes?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var ready struct {
		Event string   `json:"event"`
		Keys  []string `json:"keys"`
		Inbox string   `json:"inbox"`
	}
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, "ready", ready.Event)
	assert.NotContains(t, ready.Keys, config.StoreKey.Users)
	assert.Equal(t, "notifications_user_dodi@example.com", ready.Inbox)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))
	var pong struct {
		Event string `json:"event"`
	}
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Event)

	// Users are hidden from candidates, settings are not.
	ctx := context.Background()
	_, err = e.svc.Auth.EnsureAccount(ctx, "other@example.com", "Other", model.RoleUser, "sandi123")
	require.NoError(t, err)
	set := e.svc.Setting.Get()
	set.ExamRoom = "Room 2"
	_, err = e.svc.Setting.Update(ctx, set)
	require.NoError(t, err)

	var change struct {
		Event string `json:"event"`
		Key   string `json:"key"`
	}
	require.NoError(t, conn.ReadJSON(&change))
	assert.Equal(t, "change", change.Event)
	assert.Equal(t, config.StoreKey.ExamSettings, change.Key)
}
