package repositories

import (
	"context"
	"strings"
	"testing"

	"github.com/ak/mealplanner/internal/domain/models"
	"github.com/ak/mealplanner/internal/infrastructure/config"
	"github.com/ak/mealplanner/internal/pkg/logger"
	"github.com/spf13/afero"
)

func testStorage() config.StorageConfig {
	return config.StorageConfig{
		Driver:       config.StorageDriverFile,
		DataDir:      "/data",
		DishesFile:   "dishes.json",
		ScheduleFile: "schedule.json",
		TrackingFile: "ingredient_tracking.json",
	}
}

func TestFileProviderMissingFilesLoadDefaults(t *testing.T) {
	ctx := context.Background()
	p := NewFileProvider(afero.NewMemMapFs(), testStorage(), logger.NewNop())

	dishes, err := p.Dish.Load(ctx)
	if err != nil || dishes == nil || len(dishes) != 0 {
		t.Errorf("dishes = %v, %v", dishes, err)
	}
	schedule, err := p.Schedule.Load(ctx)
	if err != nil || schedule.Len() != 0 {
		t.Errorf("schedule = %+v, %v", schedule, err)
	}
	tracking, err := p.Tracking.Load(ctx)
	if err != nil || tracking.Acquisitions == nil || len(tracking.Acquisitions) != 0 {
		t.Errorf("tracking = %+v, %v", tracking, err)
	}
	if err := p.Health(ctx); err != nil {
		t.Errorf("Health before first save: %v", err)
	}
}

func TestFileProviderCorruptFilesLoadDefaults(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	for _, name := range []string{"/data/dishes.json", "/data/schedule.json", "/data/ingredient_tracking.json"} {
		if err := afero.WriteFile(fs, name, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	p := NewFileProvider(fs, testStorage(), logger.NewNop())

	if dishes, err := p.Dish.Load(ctx); err != nil || len(dishes) != 0 {
		t.Errorf("dishes = %v, %v", dishes, err)
	}
	if schedule, err := p.Schedule.Load(ctx); err != nil || schedule.Len() != 0 {
		t.Errorf("schedule = %+v, %v", schedule, err)
	}
	if tracking, err := p.Tracking.Load(ctx); err != nil || len(tracking.Acquisitions) != 0 {
		t.Errorf("tracking = %+v, %v", tracking, err)
	}
}

func TestFileProviderNullDocuments(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/data/schedule.json", []byte("null"), 0o644)
	_ = afero.WriteFile(fs, "/data/dishes.json", []byte("null"), 0o644)
	p := NewFileProvider(fs, testStorage(), logger.NewNop())

	schedule, err := p.Schedule.Load(ctx)
	if err != nil || schedule == nil {
		t.Fatalf("schedule = %v, %v", schedule, err)
	}
	dishes, err := p.Dish.Load(ctx)
	if err != nil || dishes == nil {
		t.Fatalf("dishes = %v, %v", dishes, err)
	}
}

func TestFileScheduleRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	p := NewFileProvider(fs, testStorage(), logger.NewNop())

	s := models.NewSchedule()
	lunch, _ := models.ParseSlotKey("2024-01-01", "lunch")
	s.Set(lunch, models.CookMeal("Lasagna", 1, "2024-01-01"))
	s.Set(lunch.Next(), models.LeftoverMeal("Lasagna", "2024-01-01", "lasagna-2024-01-01"))

	if err := p.Schedule.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := afero.ReadFile(fs, "/data/schedule.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "{\n    \"schedule\"") {
		t.Errorf("expected 4-space indented document, got:\n%s", text)
	}
	if strings.Contains(text, `"none"`) {
		t.Errorf("empty slots must not be written:\n%s", text)
	}
	if exists, _ := afero.Exists(fs, "/data/schedule.json.tmp"); exists {
		t.Error("temp file left behind")
	}

	loaded, err := p.Schedule.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rec, ok := loaded.Get(lunch.Next())
	if !ok || rec.LeftoverID != "lasagna-2024-01-01" {
		t.Errorf("leftover lost in round trip: %+v", rec)
	}
}

func TestFileScheduleLoadDropsNone(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	doc := `{"schedule": {"2024-01-01": {"lunch": {"type": "none"}, "dinner": {"type": "frozen", "description": "Pie"}}}}`
	_ = afero.WriteFile(fs, "/data/schedule.json", []byte(doc), 0o644)
	p := NewFileProvider(fs, testStorage(), logger.NewNop())

	s, err := p.Schedule.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestFileTrackingRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	p := NewFileProvider(fs, testStorage(), logger.NewNop())

	tracking := &models.IngredientTracking{Acquisitions: []models.IngredientAcquisition{{
		DishName:           "Roast",
		PlannedCookingDate: "2024-02-11",
		Ingredients:        map[string]models.IngredientStatus{"beef": {Obtained: true}},
	}}}
	if err := p.Tracking.Save(ctx, tracking); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := p.Tracking.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Acquisitions) != 1 || !loaded.Acquisitions[0].Ingredients["beef"].Obtained {
		t.Errorf("unexpected tracking %+v", loaded)
	}
}

func TestFileDishRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := NewFileProvider(afero.NewMemMapFs(), testStorage(), logger.NewNop())

	dishes := []models.Dish{{Name: "Curry", Tags: []string{"spicy"}, Ingredients: []string{"rice"}, Recipe: "Cook it."}}
	if err := p.Dish.Save(ctx, dishes); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := p.Dish.Load(ctx)
	if err != nil || len(loaded) != 1 || loaded[0].Recipe != "Cook it." {
		t.Errorf("loaded = %+v, %v", loaded, err)
	}
}

func TestFileProviderHealthRejectsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/data", []byte("oops"), 0o644)
	p := NewFileProvider(fs, testStorage(), logger.NewNop())

	if err := p.Health(context.Background()); err == nil {
		t.Error("expected error when data dir is a file")
	}
}
