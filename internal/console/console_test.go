package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hookpanel/internal/auth"
	"github.com/2389/hookpanel/internal/draft"
	"github.com/2389/hookpanel/internal/store"
	"github.com/2389/hookpanel/internal/webhook"
)

const (
	testPlugin  = "com.zentavr.pingdom"
	testSetting = "PingdomHooksConfigs"
)

var testSecret = []byte("console-test-secret-of-32-bytes!")

// fakeProvisioner records channels and fails for configured teams.
type fakeProvisioner struct {
	calls []string
	fail  map[string]bool
}

func (p *fakeProvisioner) EnsureChannel(ctx context.Context, team, channel string) (string, error) {
	p.calls = append(p.calls, team+"/"+channel)
	if p.fail[team] {
		return "", errors.New("homeserver unavailable")
	}
	return "!" + team + "-" + channel + ":example.com", nil
}

type testEnv struct {
	t           *testing.T
	store       *store.MockStore
	provisioner *fakeProvisioner
	handler     http.Handler
	verifier    *auth.JWTVerifier
	token       string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	verifier, err := auth.NewJWTVerifier(testSecret)
	require.NoError(t, err)
	token, err := verifier.Generate("alice", time.Hour)
	require.NoError(t, err)

	st := store.NewMockStore()
	drafts := draft.NewCache(time.Hour, 16)
	t.Cleanup(drafts.Close)

	prov := &fakeProvisioner{fail: map[string]bool{}}
	c, err := New(st, drafts, prov, verifier, Config{
		BaseURL:   "https://chat.example.com",
		PluginID:  testPlugin,
		SettingID: testSetting,
	})
	require.NoError(t, err)

	return &testEnv{
		t:           t,
		store:       st,
		provisioner: prov,
		handler:     c.Handler(),
		verifier:    verifier,
		token:       token,
	}
}

// seed stores an initial webhook mapping and enabled flag.
func (e *testEnv) seed(records map[string]webhook.Record, enabled bool) {
	e.t.Helper()
	recordsJSON, err := json.Marshal(records)
	require.NoError(e.t, err)
	enabledJSON, _ := json.Marshal(enabled)
	require.NoError(e.t, e.store.SaveSettings(context.Background(), testPlugin, map[string]json.RawMessage{
		testSetting:       recordsJSON,
		EnabledSettingKey: enabledJSON,
	}, "seed"))
}

func (e *testEnv) doAs(token, method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	return e.doAs(e.token, method, path, body)
}

type testState struct {
	PluginID    string       `json:"plugin_id"`
	Enabled     bool         `json:"enabled"`
	SaveNeeded  bool         `json:"save_needed"`
	Webhooks    webhook.View `json:"webhooks"`
	Key         string       `json:"key"`
	Provisioned []struct {
		Key    string `json:"key"`
		RoomID string `json:"room_id"`
		Error  string `json:"error"`
	} `json:"provisioned"`
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) testState {
	t.Helper()
	var st testState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st), rec.Body.String())
	return st
}

func keysOf(v webhook.View) []string {
	keys := make([]string, 0, len(v.Entries))
	for _, e := range v.Entries {
		keys = append(keys, e.Key)
	}
	return keys
}

type problemDoc struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) problemDoc {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p problemDoc
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doAs("", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPI_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doAs("", http.MethodGet, "/api/plugins/"+testPlugin+"/webhooks", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeProblem(t, rec).Type)
}

func TestAPI_UnknownPlugin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/plugins/other.plugin/webhooks", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeProblem(t, rec).Type)
}

func TestGetState_EmptyStoreHydratesDefault(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/plugins/"+testPlugin+"/webhooks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeState(t, rec)
	assert.Equal(t, testPlugin, st.PluginID)
	assert.False(t, st.Enabled)
	assert.False(t, st.SaveNeeded, "hydration does not report a change")
	assert.Equal(t, []string{"0"}, keysOf(st.Webhooks))
	assert.Equal(t, webhook.AddLabel, st.Webhooks.AddLabel)
	assert.True(t, st.Webhooks.Entries[0].Enabled)
	assert.True(t, st.Webhooks.Entries[0].Errors.Team)
}

func TestGetState_LoadsStoredSettings(t *testing.T) {
	env := newTestEnv(t)
	env.seed(map[string]webhook.Record{
		"10": {Team: "ops", Channel: "alerts", Seed: "abc"},
		"2":  {Disabled: true, Team: "dev", Channel: "ci", Seed: "def"},
	}, true)

	st := decodeState(t, env.do(http.MethodGet, "/api/plugins/"+testPlugin+"/webhooks", nil))

	assert.True(t, st.Enabled)
	assert.Equal(t, []string{"2", "10"}, keysOf(st.Webhooks))
	assert.False(t, st.Webhooks.Entries[0].Enabled)
	assert.Equal(t, "https://chat.example.com/plugins/com.zentavr.pingdom/api/webhook?seed=abc", st.Webhooks.Entries[1].URL)
}

func TestAddRecord(t *testing.T) {
	env := newTestEnv(t)
	env.seed(map[string]webhook.Record{
		"0": {Team: "ops", Channel: "alerts", Seed: "abc"},
		"4": {Team: "dev", Channel: "ci", Seed: "def"},
	}, true)

	rec := env.do(http.MethodPost, "/api/plugins/"+testPlugin+"/webhooks", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	st := decodeState(t, rec)
	assert.Equal(t, "5", st.Key)
	assert.Equal(t, []string{"0", "4", "5"}, keysOf(st.Webhooks))
	assert.True(t, st.SaveNeeded)
}

func TestPutRecord_Upsert(t *testing.T) {
	env := newTestEnv(t)
	env.seed(map[string]webhook.Record{
		"0": {Team: "ops", Channel: "alerts", Seed: "abc"},
		"1": {Team: "dev", Channel: "ci", Seed: "def"},
	}, true)

	rec := env.do(http.MethodPut, "/api/plugins/"+testPlugin+"/webhooks/0", webhook.Record{
		Team: "sre", Channel: "pager", Seed: "xyz",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeState(t, rec)
	assert.Equal(t, []string{"0", "1"}, keysOf(st.Webhooks))
	assert.Equal(t, "sre", st.Webhooks.Entries[0].Record.Team)
	assert.Equal(t, "dev", st.Webhooks.Entries[1].Record.Team)
	assert.True(t, st.SaveNeeded)
}

func TestPutRecord_IgnoresUnknownFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPut, "/api/plugins/"+testPlugin+"/webhooks/0", map[string]any{
		"id":       "0",
		"disabled": false,
		"team":     "ops",
		"channel":  "alerts",
		"seed":     "abc",
		"token":    "",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	st := decodeState(t, rec)
	require.Len(t, st.Webhooks.Entries, 1)
	assert.Equal(t, "ops", st.Webhooks.Entries[0].Record.Team)
}

func TestPutRecord_BadBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPut, "/api/plugins/"+testPlugin+"/webhooks/0", bytes.NewBufferString("{nope"))
	req.Header.Set("Authorization", "Bearer "+env.token)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeProblem(t, rec).Type)
}

func TestPatchRecord(t *testing.T) {
	env := newTestEnv(t)
	env.seed(map[string]webhook.Record{
		"0": {Team: "ops", Channel: "alerts", Seed: "abc", Token: "old"},
	}, true)

	rec := env.do(http.MethodPatch, "/api/plugins/"+testPlugin+"/webhooks/0", map[string]any{
		"enabled": false,
		"channel": "incidents",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeState(t, rec).Webhooks.Entries[0]
	assert.Equal(t, webhook.Record{Disabled: true, Team: "ops", Channel: "incidents", Seed: "abc", Token: "old"}, got.Record)
}

func TestPatchRecord_MissingKey(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPatch, "/api/plugins/"+testPlugin+"/webhooks/99", map[string]any{"team": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeProblem(t, rec).Type)
}

func TestRegenerateSeed(t *testing.T) {
	env := newTestEnv(t)
	env.seed(map[string]webhook.Record{
		"0": {Team: "ops", Channel: "alerts", Seed: "abc"},
	}, true)

	rec := env.do(http.MethodPost, "/api/plugins/"+testPlugin+"/webhooks/0/seed", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	seed := decodeState(t, rec).Webhooks.Entries[0].Record.Seed
	assert.NotEqual(t, "abc", seed)
	assert.Len(t, seed, 43)

	action := store.AuditRegenerateSeed
	entries, err := env.store.ListAuditLog(context.Background(), store.AuditFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Actor)
	assert.Equal(t, testSetting+"/0", entries[0].TargetID)
}

func TestDeleteFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seed(map[string]webhook.Record{
		"0": {Team: "ops", Channel: "alerts", Seed: "abc"},
		"1": {Team: "dev", Channel: "ci", Seed: "def"},
	}, true)
	base := "/api/plugins/" + testPlugin

	// Request shows the dialog without touching the collection
	st := decodeState(t, env.do(http.MethodPost, base+"/webhooks/0/delete", nil))
	assert.True(t, st.Webhooks.Dialog.Show)
	assert.Equal(t, "0", st.Webhooks.Dialog.Key)
	assert.Equal(t, webhook.DeleteConfirmLabel, st.Webhooks.Dialog.ConfirmLabel)
	assert.Equal(t, []string{"0", "1"}, keysOf(st.Webhooks))
	assert.False(t, st.SaveNeeded)

	// Cancel hides it
	st = decodeState(t, env.do(http.MethodPost, base+"/delete/cancel", nil))
	assert.False(t, st.Webhooks.Dialog.Show)
	assert.Equal(t, []string{"0", "1"}, keysOf(st.Webhooks))

	// Confirm with nothing pending is a conflict
	rec := env.do(http.MethodPost, base+"/delete/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Request then confirm removes the record
	env.do(http.MethodPost, base+"/webhooks/0/delete", nil)
	st = decodeState(t, env.do(http.MethodPost, base+"/delete/confirm", nil))
	assert.False(t, st.Webhooks.Dialog.Show)
	assert.Equal(t, []string{"1"}, keysOf(st.Webhooks))
	assert.True(t, st.SaveNeeded)
}

func TestDeleteLastRecord_ShowsPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/plugins/" + testPlugin

	env.do(http.MethodPost, base+"/webhooks/0/delete", nil)
	st := decodeState(t, env.do(http.MethodPost, base+"/delete/confirm", nil))

	assert.Empty(t, st.Webhooks.Entries)
	assert.Equal(t, webhook.PlaceholderText, st.Webhooks.Placeholder)
}

func TestSetEnabled(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/plugins/" + testPlugin

	st := decodeState(t, env.do(http.MethodPut, base+"/enabled", map[string]bool{"enabled": true}))
	assert.True(t, st.Enabled)
	assert.True(t, st.SaveNeeded)

	rec := env.do(http.MethodPut, base+"/enabled", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSave_PersistsAndProvisions(t *testing.T) {
	env := newTestEnv(t)
	env.seed(map[string]webhook.Record{
		"0": {Team: "ops", Channel: "alerts", Seed: "abc"},
		"1": {Disabled: true, Team: "muted", Channel: "x", Seed: "def"},
		"2": {Team: "broken", Channel: "pager", Seed: "ghi"},
	}, false)
	env.provisioner.fail["broken"] = true
	base := "/api/plugins/" + testPlugin

	env.do(http.MethodPut, base+"/enabled", map[string]bool{"enabled": true})
	env.do(http.MethodPatch, base+"/webhooks/0", map[string]string{"channel": "incidents"})

	rec := env.do(http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeState(t, rec)
	assert.False(t, st.SaveNeeded)
	require.Len(t, st.Provisioned, 2)
	assert.Equal(t, "!ops-incidents:example.com", st.Provisioned[0].RoomID)
	assert.Equal(t, "2", st.Provisioned[1].Key)
	assert.NotEmpty(t, st.Provisioned[1].Error)
	assert.Equal(t, []string{"ops/incidents", "broken/pager"}, env.provisioner.calls)

	setting, err := env.store.GetSetting(context.Background(), testPlugin, testSetting)
	require.NoError(t, err)
	var stored map[string]webhook.Record
	require.NoError(t, json.Unmarshal(setting.Value, &stored))
	assert.Equal(t, "incidents", stored["0"].Channel)
	assert.Len(t, stored, 3)
	assert.Equal(t, "alice", setting.UpdatedBy)

	enabled, err := env.store.GetSetting(context.Background(), testPlugin, EnabledSettingKey)
	require.NoError(t, err)
	assert.JSONEq(t, `true`, string(enabled.Value))

	saveAction := store.AuditSaveSettings
	saves, err := env.store.ListAuditLog(context.Background(), store.AuditFilter{Action: &saveAction})
	require.NoError(t, err)
	assert.Len(t, saves, 1)

	provAction := store.AuditProvisionChannel
	provs, err := env.store.ListAuditLog(context.Background(), store.AuditFilter{Action: &provAction})
	require.NoError(t, err)
	assert.Len(t, provs, 1)
}

func TestSave_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.SaveErr = errors.New("disk full")
	base := "/api/plugins/" + testPlugin

	env.do(http.MethodPost, base+"/webhooks", nil)
	rec := env.do(http.MethodPost, base+"/save", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeProblem(t, rec).Type)

	// The draft still needs saving
	st := decodeState(t, env.do(http.MethodGet, base+"/webhooks", nil))
	assert.True(t, st.SaveNeeded)
	assert.Empty(t, env.provisioner.calls)
}

func TestCancel_RestoresStoredValue(t *testing.T) {
	env := newTestEnv(t)
	env.seed(map[string]webhook.Record{
		"0": {Team: "ops", Channel: "alerts", Seed: "abc"},
	}, true)
	base := "/api/plugins/" + testPlugin

	env.do(http.MethodPost, base+"/webhooks", nil)
	env.do(http.MethodPut, base+"/enabled", map[string]bool{"enabled": false})

	rec := env.do(http.MethodPost, base+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	st := decodeState(t, rec)
	assert.Equal(t, []string{"0"}, keysOf(st.Webhooks))
	assert.True(t, st.Enabled)
	assert.False(t, st.SaveNeeded)

	action := store.AuditDiscardSettings
	entries, err := env.store.ListAuditLog(context.Background(), store.AuditFilter{Action: &action})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDrafts_ArePerAdmin(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/plugins/" + testPlugin
	bobToken, err := env.verifier.Generate("bob", time.Hour)
	require.NoError(t, err)

	env.do(http.MethodPost, base+"/webhooks", nil)

	st := decodeState(t, env.doAs(bobToken, http.MethodGet, base+"/webhooks", nil))
	assert.Equal(t, []string{"0"}, keysOf(st.Webhooks))
	assert.False(t, st.SaveNeeded)
}

func TestAudit_List(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/plugins/" + testPlugin

	env.do(http.MethodPost, base+"/save", nil)

	rec := env.do(http.MethodGet, base+"/audit?limit=10&action=save_settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries []struct {
			Actor  string `json:"actor"`
			Action string `json:"action"`
			Target string `json:"target"`
		} `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "alice", body.Entries[0].Actor)
	assert.Equal(t, testSetting, body.Entries[0].Target)

	rec = env.do(http.MethodGet, base+"/audit?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
