package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Bijush/Avoter/models"
)

const recordsCollection = "records"

// recordDoc is the document shape of a record. Attachments decode through
// an untyped field because legacy documents stored a single address as a
// bare string instead of an array.
type recordDoc struct {
	ID           string  `bson:"_id"`
	Name         string  `bson:"name"`
	Epic         string  `bson:"epic"`
	PS           string  `bson:"ps"`
	OldHouse     string  `bson:"old_house"`
	NewHouse     string  `bson:"new_house"`
	Payment      float64 `bson:"payment"`
	Paid         string  `bson:"paid"`
	Complete     string  `bson:"complete"`
	WifeName     string  `bson:"wife_name"`
	WifeEpic     string  `bson:"wife_epic"`
	WifePayment  float64 `bson:"wife_payment"`
	WifePaid     string  `bson:"wife_paid"`
	WifeComplete string  `bson:"wife_complete"`
	Remark       string  `bson:"remark"`
	Attachments  any     `bson:"attachments"`
	CreatedAt    string  `bson:"created_at"`
	UpdatedAt    string  `bson:"updated_at"`
}

// MongoStore persists records as documents keyed by the record identifier.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// OpenMongo connects to the given URI and verifies the connection. The
// collection is created lazily by the server on first write.
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		col:    client.Database(dbName).Collection(recordsCollection),
	}, nil
}

func (s *MongoStore) Name() string { return "mongo" }

// Close releases the underlying client connections.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) List(ctx context.Context) ([]models.Record, error) {
	cur, err := s.col.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	recs := []models.Record{}
	for cur.Next(ctx) {
		var doc recordDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		recs = append(recs, doc.toRecord())
	}
	return recs, cur.Err()
}

func (s *MongoStore) Get(ctx context.Context, id string) (models.Record, error) {
	var doc recordDoc
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Record{}, ErrNotFound
	}
	if err != nil {
		return models.Record{}, err
	}
	return doc.toRecord(), nil
}

func (s *MongoStore) Create(ctx context.Context, rec models.Record) error {
	_, err := s.col.InsertOne(ctx, fromRecordDoc(rec))
	return err
}

func (s *MongoStore) Update(ctx context.Context, rec models.Record) error {
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": rec.ID}, fromRecordDoc(rec))
	return err
}

func (s *MongoStore) UpdateRemark(ctx context.Context, id, remark string) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"remark": remark}})
	return err
}

func (s *MongoStore) SetAttachments(ctx context.Context, id string, addrs []string) error {
	if addrs == nil {
		addrs = []string{}
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"attachments": addrs}})
	return err
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (doc recordDoc) toRecord() models.Record {
	// the driver decodes untyped arrays as bson.A, a named type the
	// bson-free models package does not recognize
	if a, ok := doc.Attachments.(bson.A); ok {
		doc.Attachments = []any(a)
	}
	return models.Record{
		ID:           doc.ID,
		Name:         doc.Name,
		Epic:         doc.Epic,
		PS:           doc.PS,
		OldHouse:     doc.OldHouse,
		NewHouse:     doc.NewHouse,
		Payment:      doc.Payment,
		Paid:         doc.Paid,
		Complete:     doc.Complete,
		WifeName:     doc.WifeName,
		WifeEpic:     doc.WifeEpic,
		WifePayment:  doc.WifePayment,
		WifePaid:     doc.WifePaid,
		WifeComplete: doc.WifeComplete,
		Remark:       doc.Remark,
		Attachments:  models.NormalizeAttachments(doc.Attachments),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

func fromRecordDoc(rec models.Record) recordDoc {
	attachments := rec.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return recordDoc{
		ID:           rec.ID,
		Name:         rec.Name,
		Epic:         rec.Epic,
		PS:           rec.PS,
		OldHouse:     rec.OldHouse,
		NewHouse:     rec.NewHouse,
		Payment:      rec.Payment,
		Paid:         rec.Paid,
		Complete:     rec.Complete,
		WifeName:     rec.WifeName,
		WifeEpic:     rec.WifeEpic,
		WifePayment:  rec.WifePayment,
		WifePaid:     rec.WifePaid,
		WifeComplete: rec.WifeComplete,
		Remark:       rec.Remark,
		Attachments:  attachments,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
