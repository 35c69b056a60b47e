package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ak/mealplanner/internal/app/middleware"
	"github.com/ak/mealplanner/internal/infrastructure/config"
	"github.com/ak/mealplanner/internal/infrastructure/repositories"
	"github.com/ak/mealplanner/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "mealplanner", Env: "test"},
		Storage: config.StorageConfig{
			Driver:       config.StorageDriverFile,
			DataDir:      "/data",
			DishesFile:   "dishes.json",
			ScheduleFile: "schedule.json",
			TrackingFile: "ingredient_tracking.json",
		},
		JWT: config.JWTConfig{Issuer: "mealplanner", AccessTokenTTL: time.Hour},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	log := logger.NewNop()
	repos := repositories.NewFileProvider(afero.NewMemMapFs(), cfg.Storage, log)
	a, err := New(cfg, log, repos)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	return a
}

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, body any, header ...string) (int, testResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp testResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, resp
}

func TestHealthAndReady(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s = %d", path, w.Code)
		}
		if w.Header().Get(middleware.RequestIDHeader) == "" {
			t.Errorf("%s: missing request id header", path)
		}
	}
}

func TestSaveMealPlacesLeftovers(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	status, resp := do(t, h, http.MethodPut, "/api/v1/schedule/2024-01-01/lunch",
		map[string]any{"type": "cook", "dish_name": "Lasagna", "leftover_meals": 3})
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("PUT = %d %+v", status, resp.Error)
	}

	var result struct {
		Placed []struct {
			Date     string `json:"date"`
			MealType string `json:"meal_type"`
		} `json:"leftovers_placed"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Placed) != 3 || result.Placed[0].Date != "2024-01-01" || result.Placed[0].MealType != "dinner" {
		t.Errorf("placed = %+v", result.Placed)
	}

	status, resp = do(t, h, http.MethodGet, "/api/v1/leftovers/lasagna-2024-01-01", nil)
	if status != http.StatusOK {
		t.Fatalf("GET chain = %d", status)
	}
	var chain []json.RawMessage
	_ = json.Unmarshal(resp.Data, &chain)
	if len(chain) != 3 {
		t.Errorf("chain length = %d, want 3", len(chain))
	}

	status, resp = do(t, h, http.MethodDelete, "/api/v1/leftovers/lasagna-2024-01-01", nil)
	if status != http.StatusOK {
		t.Fatalf("DELETE chain = %d", status)
	}
	var removed struct {
		Removed int `json:"removed"`
	}
	_ = json.Unmarshal(resp.Data, &removed)
	if removed.Removed != 3 {
		t.Errorf("removed = %d, want 3", removed.Removed)
	}
}

func TestScheduleErrors(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"bad date", http.MethodPut, "/api/v1/schedule/2024-13-01/lunch", map[string]any{"type": "none"}, http.StatusBadRequest, "PARSE_ERROR"},
		{"bad meal", http.MethodGet, "/api/v1/schedule/2024-01-01/supper", nil, http.StatusBadRequest, "PARSE_ERROR"},
		{"missing dish", http.MethodPut, "/api/v1/schedule/2024-01-01/lunch", map[string]any{"type": "cook"}, http.StatusBadRequest, "MISSING_FIELD"},
		{"missing type", http.MethodPut, "/api/v1/schedule/2024-01-01/lunch", map[string]any{"dish_name": "Soup"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty slot", http.MethodGet, "/api/v1/schedule/2024-01-01/lunch", nil, http.StatusNotFound, "NOT_FOUND"},
		{"bad count", http.MethodGet, "/api/v1/schedule/2024-01-01/lunch/next-slots?count=x", nil, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := do(t, h, tt.method, tt.path, tt.body)
			if status != tt.status {
				t.Fatalf("status = %d, want %d", status, tt.status)
			}
			if resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.code)
			}
		})
	}
}

func TestNextSlotsAndWeek(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	do(t, h, http.MethodPut, "/api/v1/schedule/2024-01-02/lunch", map[string]any{"type": "bought", "description": "Pizza"})

	status, resp := do(t, h, http.MethodGet, "/api/v1/schedule/2024-01-01/dinner/next-slots?count=2", nil)
	if status != http.StatusOK {
		t.Fatalf("next-slots = %d", status)
	}
	var slots []struct {
		Date     string `json:"date"`
		MealType string `json:"meal_type"`
	}
	_ = json.Unmarshal(resp.Data, &slots)
	if len(slots) != 2 || slots[0].Date != "2024-01-02" || slots[0].MealType != "dinner" {
		t.Errorf("slots = %+v", slots)
	}

	status, resp = do(t, h, http.MethodGet, "/api/v1/schedule/week", nil)
	if status != http.StatusOK {
		t.Fatalf("week = %d", status)
	}
	var week struct {
		Start string `json:"start"`
		Days  []struct {
			Lunch *struct {
				Description string `json:"description"`
			} `json:"lunch"`
		} `json:"days"`
	}
	_ = json.Unmarshal(resp.Data, &week)
	if week.Start != "2024-01-01" || len(week.Days) != 7 || week.Days[1].Lunch == nil || week.Days[1].Lunch.Description != "Pizza" {
		t.Errorf("week = %+v", week)
	}
}

func TestDishEndpoints(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	status, _ := do(t, h, http.MethodPost, "/api/v1/dishes", map[string]any{"name": "Curry", "tags": []string{"spicy"}})
	if status != http.StatusCreated {
		t.Fatalf("create = %d", status)
	}
	status, resp := do(t, h, http.MethodPost, "/api/v1/dishes", map[string]any{"name": "curry"})
	if status != http.StatusConflict || resp.Error.Code != "ALREADY_EXISTS" {
		t.Errorf("duplicate create = %d %+v", status, resp.Error)
	}

	status, resp = do(t, h, http.MethodGet, "/api/v1/dishes?q=SPI", nil)
	var dishes []struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(resp.Data, &dishes)
	if status != http.StatusOK || len(dishes) != 1 || dishes[0].Name != "Curry" {
		t.Errorf("list = %d %+v", status, dishes)
	}

	if status, _ := do(t, h, http.MethodDelete, "/api/v1/dishes/curry", nil); status != http.StatusOK {
		t.Errorf("delete = %d", status)
	}
	if status, _ := do(t, h, http.MethodGet, "/api/v1/dishes/Curry", nil); status != http.StatusNotFound {
		t.Errorf("get after delete = %d", status)
	}
}

func TestTrackingEndpoints(t *testing.T) {
	h := newTestApp(t, testConfig()).Router()

	do(t, h, http.MethodPost, "/api/v1/dishes", map[string]any{"name": "Roast", "ingredients": []string{"beef"}})
	do(t, h, http.MethodPut, "/api/v1/schedule/2024-01-02/dinner", map[string]any{"type": "cook", "dish_name": "Roast"})

	status, resp := do(t, h, http.MethodPost, "/api/v1/tracking", map[string]any{"dish_name": "Roast", "date": "2024-01-02"})
	if status != http.StatusCreated {
		t.Fatalf("track = %d %+v", status, resp.Error)
	}

	status, resp = do(t, h, http.MethodGet, "/api/v1/tracking/upcoming", nil)
	var upcoming []struct {
		DishName string   `json:"dish_name"`
		Tracked  bool     `json:"tracked"`
		Missing  []string `json:"missing"`
	}
	_ = json.Unmarshal(resp.Data, &upcoming)
	if status != http.StatusOK || len(upcoming) != 1 || !upcoming[0].Tracked || len(upcoming[0].Missing) != 1 {
		t.Fatalf("upcoming = %d %+v", status, upcoming)
	}

	status, _ = do(t, h, http.MethodPut, "/api/v1/tracking/obtained",
		map[string]any{"dish_name": "Roast", "date": "2024-01-02", "ingredient": "beef", "obtained": true})
	if status != http.StatusOK {
		t.Errorf("obtained = %d", status)
	}

	upcoming = nil
	status, resp = do(t, h, http.MethodGet, "/api/v1/tracking/upcoming", nil)
	_ = json.Unmarshal(resp.Data, &upcoming)
	if status != http.StatusOK || len(upcoming) != 0 {
		t.Errorf("upcoming after obtaining everything = %d %+v", status, upcoming)
	}

	status, resp = do(t, h, http.MethodPost, "/api/v1/tracking/prune?now=2024-02-02", nil)
	var pruned struct {
		Removed int `json:"removed"`
	}
	_ = json.Unmarshal(resp.Data, &pruned)
	if status != http.StatusOK || pruned.Removed != 1 {
		t.Errorf("prune = %d removed %d", status, pruned.Removed)
	}
}

func TestJWTProtectsAPI(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.Secret = "test-secret"
	h := newTestApp(t, cfg).Router()

	status, resp := do(t, h, http.MethodGet, "/api/v1/info", nil)
	if status != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("without token = %d %+v", status, resp.Error)
	}

	token, err := middleware.GenerateToken(middleware.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessTokenTTL: time.Hour,
	}, "kitchen", "home")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	status, _ = do(t, h, http.MethodGet, "/api/v1/info", nil, "Authorization", "Bearer "+token)
	if status != http.StatusOK {
		t.Errorf("with token = %d", status)
	}

	status, resp = do(t, h, http.MethodGet, "/api/v1/info", nil, "Authorization", "Bearer garbage")
	if status != http.StatusUnauthorized || resp.Error.Code != "TOKEN_INVALID" {
		t.Errorf("bad token = %d %+v", status, resp.Error)
	}

	if status, _ := do(t, h, http.MethodGet, "/health", nil); status != http.StatusOK {
		t.Errorf("health should stay public, got %d", status)
	}
}
