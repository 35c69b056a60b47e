package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/ak/mealplanner/internal/domain/models"
	"github.com/ak/mealplanner/internal/domain/repositories"
	"github.com/ak/mealplanner/internal/infrastructure/database"
	"github.com/ak/mealplanner/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// mongoDocument reads and replaces one document of the documents collection.
type mongoDocument struct {
	collection *mongo.Collection
	id         string
	logger     *logger.Logger
}

func newMongoDocument(db *database.MongoDB, id string, log *logger.Logger) mongoDocument {
	return mongoDocument{
		collection: db.Collection(database.CollectionDocuments),
		id:         id,
		logger:     log.WithFields(zap.String("document", id)),
	}
}

// load decodes the document into v. It reports false when the document is
// missing or does not decode, leaving the caller to use its default.
func (d mongoDocument) load(ctx context.Context, v any) (bool, error) {
	raw, err := d.collection.FindOne(ctx, bson.M{"_id": d.id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load %s: %w", d.id, err)
	}
	if err := bson.Unmarshal(raw, v); err != nil {
		d.logger.Warn("Document is corrupt, starting empty", zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (d mongoDocument) save(ctx context.Context, doc any) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := d.collection.ReplaceOne(ctx, bson.M{"_id": d.id}, doc, opts); err != nil {
		return fmt.Errorf("failed to save %s: %w", d.id, err)
	}
	return nil
}

type dishesDocument struct {
	ID     string        `bson:"_id"`
	Dishes []models.Dish `bson:"dishes"`
}

type scheduleDocument struct {
	ID   string                                          `bson:"_id"`
	Days map[string]map[models.MealType]models.MealRecord `bson:"schedule"`
}

type trackingDocument struct {
	ID           string                         `bson:"_id"`
	Acquisitions []models.IngredientAcquisition `bson:"ingredient_acquisitions"`
}

type mongoDishRepository struct {
	doc mongoDocument
}

// NewMongoDishRepository creates a new dish repository backed by MongoDB
func NewMongoDishRepository(db *database.MongoDB, log *logger.Logger) repositories.DishRepository {
	return &mongoDishRepository{doc: newMongoDocument(db, database.DocumentDishes, log)}
}

func (r *mongoDishRepository) Load(ctx context.Context) ([]models.Dish, error) {
	var doc dishesDocument
	found, err := r.doc.load(ctx, &doc)
	if err != nil {
		return nil, err
	}
	if !found || doc.Dishes == nil {
		return []models.Dish{}, nil
	}
	return doc.Dishes, nil
}

func (r *mongoDishRepository) Save(ctx context.Context, dishes []models.Dish) error {
	if dishes == nil {
		dishes = []models.Dish{}
	}
	return r.doc.save(ctx, dishesDocument{ID: database.DocumentDishes, Dishes: dishes})
}

type mongoScheduleRepository struct {
	doc mongoDocument
}

// NewMongoScheduleRepository creates a new schedule repository backed by MongoDB
func NewMongoScheduleRepository(db *database.MongoDB, log *logger.Logger) repositories.ScheduleRepository {
	return &mongoScheduleRepository{doc: newMongoDocument(db, database.DocumentSchedule, log)}
}

func (r *mongoScheduleRepository) Load(ctx context.Context) (*models.Schedule, error) {
	var doc scheduleDocument
	found, err := r.doc.load(ctx, &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return models.NewSchedule(), nil
	}
	schedule := &models.Schedule{Days: doc.Days}
	schedule.Normalize()
	return schedule, nil
}

func (r *mongoScheduleRepository) Save(ctx context.Context, schedule *models.Schedule) error {
	if schedule == nil {
		schedule = models.NewSchedule()
	}
	schedule.Normalize()
	return r.doc.save(ctx, scheduleDocument{ID: database.DocumentSchedule, Days: schedule.Days})
}

type mongoTrackingRepository struct {
	doc mongoDocument
}

// NewMongoTrackingRepository creates a new tracking repository backed by MongoDB
func NewMongoTrackingRepository(db *database.MongoDB, log *logger.Logger) repositories.TrackingRepository {
	return &mongoTrackingRepository{doc: newMongoDocument(db, database.DocumentTracking, log)}
}

func (r *mongoTrackingRepository) Load(ctx context.Context) (*models.IngredientTracking, error) {
	var doc trackingDocument
	found, err := r.doc.load(ctx, &doc)
	if err != nil {
		return nil, err
	}
	if !found || doc.Acquisitions == nil {
		return models.NewIngredientTracking(), nil
	}
	return &models.IngredientTracking{Acquisitions: doc.Acquisitions}, nil
}

func (r *mongoTrackingRepository) Save(ctx context.Context, tracking *models.IngredientTracking) error {
	acquisitions := []models.IngredientAcquisition{}
	if tracking != nil && tracking.Acquisitions != nil {
		acquisitions = tracking.Acquisitions
	}
	return r.doc.save(ctx, trackingDocument{ID: database.DocumentTracking, Acquisitions: acquisitions})
}
