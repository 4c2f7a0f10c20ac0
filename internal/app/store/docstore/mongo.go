package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo is a Client backed by a MongoDB database. Document ids are ObjectID
// hex strings; an id that is not valid hex is treated as absent.
type Mongo struct {
	db *mongo.Database
}

// NewMongo returns a Client over db.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (s *Mongo) List(ctx context.Context, collection string) ([]Document, error) {
	return s.find(ctx, collection, bson.M{})
}

func (s *Mongo) Get(ctx context.Context, collection, id string) (Document, error) {
	oid, ok := parseID(id)
	if !ok {
		return Document{}, ErrNoDocument
	}
	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, ErrNoDocument
	}
	if err != nil {
		return Document{}, err
	}
	return toDocument(m), nil
}

func (s *Mongo) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	doc := bson.M{}
	for k, v := range fields {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	oid := primitive.NewObjectID()
	doc["_id"] = oid
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return oid.Hex(), nil
}

func (s *Mongo) Update(ctx context.Context, collection, id string, upd Update) error {
	oid, ok := parseID(id)
	if !ok {
		return ErrNoDocument
	}
	coll := s.db.Collection(collection)

	if upd.IsZero() {
		err := coll.FindOne(ctx, bson.M{"_id": oid}).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNoDocument
		}
		return err
	}

	update := bson.M{}
	if len(upd.Set) > 0 {
		update["$set"] = bson.M(upd.Set)
	}
	if len(upd.ArrayUnion) > 0 {
		add := bson.M{}
		for field, vals := range upd.ArrayUnion {
			add[field] = bson.M{"$each": vals}
		}
		update["$addToSet"] = add
	}
	if len(upd.ArrayRemove) > 0 {
		pull := bson.M{}
		for field, vals := range upd.ArrayRemove {
			pull[field] = bson.M{"$in": vals}
		}
		update["$pull"] = pull
	}

	res, err := coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNoDocument
	}
	return nil
}

func (s *Mongo) Delete(ctx context.Context, collection, id string) error {
	oid, ok := parseID(id)
	if !ok {
		return ErrNoDocument
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNoDocument
	}
	return nil
}

// Where uses a plain equality filter, which Mongo also matches against
// array elements.
func (s *Mongo) Where(ctx context.Context, collection, field string, value any) ([]Document, error) {
	return s.find(ctx, collection, bson.M{field: value})
}

func (s *Mongo) find(ctx context.Context, collection string, filter bson.M) ([]Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Document
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, toDocument(m))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func toDocument(m bson.M) Document {
	var id string
	if oid, ok := m["_id"].(primitive.ObjectID); ok {
		id = oid.Hex()
	}
	delete(m, "_id")
	return Document{ID: id, Fields: Fields(m)}
}

var (
	_ Client  = (*Mongo)(nil)
	_ Querier = (*Mongo)(nil)
)
