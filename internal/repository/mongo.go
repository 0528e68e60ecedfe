package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/BerylCAtieno/health-records-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	reportsCollection       = "reports"
	medicationsCollection   = "medications"
	timelineCollection      = "healthTimeline"
	sharedReportsCollection = "sharedReports"
	usersCollection         = "users"
)

// NewMongoClient connects to uri and verifies the connection.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// NewMongoStore returns a Store backed by a MongoDB database. It creates the
// unique (patientId, reportId) index that backs shared report deduplication.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	if err := ensureMongoIndexes(ctx, db); err != nil {
		return nil, err
	}

	return &Store{
		Reports:       &mongoReports{coll: db.Collection(reportsCollection)},
		Medications:   &mongoMedications{coll: db.Collection(medicationsCollection)},
		Timeline:      &mongoTimeline{coll: db.Collection(timelineCollection)},
		SharedReports: &mongoSharedReports{coll: db.Collection(sharedReportsCollection)},
		Users:         &mongoUsers{coll: db.Collection(usersCollection)},
	}, nil
}

func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		sharedReportsCollection: {
			{
				Keys:    bson.D{{Key: "patientId", Value: 1}, {Key: "reportId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("patient_report_unique"),
			},
			{Keys: bson.D{{Key: "doctorEmail", Value: 1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "specialization", Value: 1}}},
		},
		reportsCollection:     {{Keys: bson.D{{Key: "patientId", Value: 1}}}},
		medicationsCollection: {{Keys: bson.D{{Key: "patientId", Value: 1}}}},
		timelineCollection:    {{Keys: bson.D{{Key: "userId", Value: 1}}}},
	}

	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func mongoInsert(ctx context.Context, coll *mongo.Collection, doc any) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func mongoFindOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func mongoFind[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mongoUpdate(ctx context.Context, coll *mongo.Collection, filter, update bson.M) error {
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mongoDelete(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// caseInsensitive builds an anchored, case-insensitive equality match.
func caseInsensitive(value string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(value) + "$", "$options": "i"}
}

type mongoReports struct {
	coll *mongo.Collection
}

func (r *mongoReports) Create(ctx context.Context, report *models.Report) error {
	return mongoInsert(ctx, r.coll, report)
}

func (r *mongoReports) GetByID(ctx context.Context, id string) (*models.Report, error) {
	return mongoFindOne[models.Report](ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoReports) ListByPatient(ctx context.Context, patientID string) ([]*models.Report, error) {
	return mongoFind[models.Report](ctx, r.coll, bson.M{"patientId": patientID})
}

func (r *mongoReports) UpdateExtraction(ctx context.Context, id, text string, reportType models.ReportType) error {
	err := mongoUpdate(ctx, r.coll,
		bson.M{"_id": id, "status": models.StatusProcessing},
		bson.M{"$set": bson.M{"originalText": text, "reportType": reportType, "updatedAt": now()}},
	)
	if err == ErrNotFound {
		return r.missingOrStale(ctx, id)
	}
	return err
}

func (r *mongoReports) Finish(ctx context.Context, id string, outcome models.ReportOutcome) error {
	if err := outcome.Validate(); err != nil {
		return err
	}
	err := mongoUpdate(ctx, r.coll,
		bson.M{"_id": id, "status": models.StatusProcessing},
		bson.M{"$set": bson.M{
			"status":        outcome.Status,
			"summary":       outcome.Summary,
			"extractedData": outcome.ExtractedData,
			"updatedAt":     now(),
		}},
	)
	if err == ErrNotFound {
		return r.missingOrStale(ctx, id)
	}
	return err
}

func (r *mongoReports) Delete(ctx context.Context, id string) error {
	return mongoDelete(ctx, r.coll, id)
}

func (r *mongoReports) missingOrStale(ctx context.Context, id string) error {
	report, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if report == nil {
		return ErrNotFound
	}
	return fmt.Errorf("report %s is %s: %w", id, report.Status, ErrStaleState)
}

type mongoMedications struct {
	coll *mongo.Collection
}

func (r *mongoMedications) Create(ctx context.Context, med *models.Medication) error {
	return mongoInsert(ctx, r.coll, med)
}

func (r *mongoMedications) GetByID(ctx context.Context, id string) (*models.Medication, error) {
	return mongoFindOne[models.Medication](ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoMedications) ListByPatient(ctx context.Context, patientID string) ([]*models.Medication, error) {
	return mongoFind[models.Medication](ctx, r.coll, bson.M{"patientId": patientID})
}

func (r *mongoMedications) SetActive(ctx context.Context, id string, active bool) error {
	return mongoUpdate(ctx, r.coll, bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": now()}})
}

func (r *mongoMedications) Delete(ctx context.Context, id string) error {
	return mongoDelete(ctx, r.coll, id)
}

type mongoTimeline struct {
	coll *mongo.Collection
}

func (r *mongoTimeline) Create(ctx context.Context, entry *models.TimelineEntry) error {
	return mongoInsert(ctx, r.coll, entry)
}

// ListByUser filters on a single field only, so no composite index is needed.
func (r *mongoTimeline) ListByUser(ctx context.Context, userID string) ([]*models.TimelineEntry, error) {
	return mongoFind[models.TimelineEntry](ctx, r.coll, bson.M{"userId": userID})
}

type mongoSharedReports struct {
	coll *mongo.Collection
}

func (r *mongoSharedReports) Create(ctx context.Context, sr *models.SharedReport) error {
	return mongoInsert(ctx, r.coll, sr)
}

func (r *mongoSharedReports) GetByID(ctx context.Context, id string) (*models.SharedReport, error) {
	return mongoFindOne[models.SharedReport](ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoSharedReports) GetByPatientAndReport(ctx context.Context, patientID, reportID string) (*models.SharedReport, error) {
	return mongoFindOne[models.SharedReport](ctx, r.coll, bson.M{"patientId": patientID, "reportId": reportID})
}

func (r *mongoSharedReports) ListByPatient(ctx context.Context, patientID string) ([]*models.SharedReport, error) {
	return mongoFind[models.SharedReport](ctx, r.coll, bson.M{"patientId": patientID})
}

func (r *mongoSharedReports) ListByDoctorEmail(ctx context.Context, email string, status models.ApprovalStatus) ([]*models.SharedReport, error) {
	return mongoFind[models.SharedReport](ctx, r.coll, bson.M{
		"doctorEmail":    caseInsensitive(email),
		"approvalStatus": status,
	})
}

func (r *mongoSharedReports) UpdateApproval(ctx context.Context, id string, from, to models.ApprovalStatus) error {
	err := mongoUpdate(ctx, r.coll,
		bson.M{"_id": id, "approvalStatus": from},
		bson.M{"$set": bson.M{"approvalStatus": to, "updatedAt": now()}},
	)
	if err != ErrNotFound {
		return err
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	return fmt.Errorf("shared report %s is %s: %w", id, current.ApprovalStatus, ErrStaleState)
}

func (r *mongoSharedReports) UpdateTreatment(ctx context.Context, id string, status models.TreatmentStatus) error {
	return mongoUpdate(ctx, r.coll, bson.M{"_id": id},
		bson.M{"$set": bson.M{"treatmentStatus": status, "updatedAt": now()}})
}

func (r *mongoSharedReports) SetHidden(ctx context.Context, id string, hidden bool) error {
	return mongoUpdate(ctx, r.coll, bson.M{"_id": id},
		bson.M{"$set": bson.M{"hideFromDashboard": hidden, "updatedAt": now()}})
}

func (r *mongoSharedReports) IncrementViews(ctx context.Context, id string) error {
	return mongoUpdate(ctx, r.coll, bson.M{"_id": id}, bson.M{"$inc": bson.M{"viewCount": 1}})
}

func (r *mongoSharedReports) DeactivateExpired(ctx context.Context, at time.Time) (int, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"isActive": true, "expiresAt": bson.M{"$lte": at}},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": now()}},
	)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

type mongoUsers struct {
	coll *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, user *models.User) error {
	return mongoInsert(ctx, r.coll, user)
}

func (r *mongoUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return mongoFindOne[models.User](ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return mongoFindOne[models.User](ctx, r.coll, bson.M{"email": caseInsensitive(email)})
}

// FindDoctorsBySpecialization sorts in memory after the single-field filter.
func (r *mongoUsers) FindDoctorsBySpecialization(ctx context.Context, specialization string) ([]*models.User, error) {
	doctors, err := mongoFind[models.User](ctx, r.coll, bson.M{
		"role":           models.RoleDoctor,
		"specialization": caseInsensitive(specialization),
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(doctors, func(i, j int) bool {
		if doctors[i].CreatedAt.Equal(doctors[j].CreatedAt) {
			return doctors[i].ID < doctors[j].ID
		}
		return doctors[i].CreatedAt.Before(doctors[j].CreatedAt)
	})
	return doctors, nil
}
