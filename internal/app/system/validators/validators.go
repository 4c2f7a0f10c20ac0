// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// target is one collection and its optional JSON-Schema validator.
type target struct {
	name   string
	schema bson.M
}

func targets() []target {
	return []target{
		{"movies", moviesSchema()},
		{"collections", collectionsSchema()},
		{"users", usersSchema()},
		{"audit_logs", nil},
		{"rate_limits", nil},
	}
}

// EnsureAll creates the app's collections when missing and attaches
// JSON-Schema validators. Servers without collMod support (some DocumentDB
// versions) log and skip the validator.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		// fall back to create-and-tolerate-exists
		existing = nil
	}

	var problems []string
	for _, t := range targets() {
		if _, err := ensureCollection(ctx, db, t.name, existing); err != nil {
			problems = append(problems, t.name+": "+err.Error())
			continue
		}
		if t.schema == nil {
			continue
		}
		if err := setValidator(ctx, db, t.name, t.schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", t.name))
				continue
			}
			problems = append(problems, t.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ensureCollection creates name unless it is listed in existing. created is
// true only when this call created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, existing []string) (created bool, err error) {
	if slices.Contains(existing, name) {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

// commandErrIs matches err against server error codes, then against
// lowercase message fragments for drivers and vendors that omit codes.
func commandErrIs(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && slices.Contains(codes, ce.Code) {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErrIs(err, []int32{48}, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErrIs(err, []int32{59}, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErrIs(err, []int32{115}, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func moviesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "description", "year", "genre", "poster"},
			"properties": bson.M{
				"title":       nonBlank,
				"description": nonBlank,
				"year":        bson.M{"bsonType": bson.A{"int", "long"}},
				"genre":       nonBlank,
				"poster":      nonBlank,
			},
		},
	}
}

func collectionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "movie_ids"},
			"properties": bson.M{
				"name":    bson.M{"bsonType": "string", "pattern": "^[A-Za-z0-9 ]+$"},
				"name_ci": nonBlank,
				"movie_ids": bson.M{
					"bsonType": "array",
					"items":    bson.M{"bsonType": "string"},
				},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "username", "role", "password_hash"},
			"properties": bson.M{
				"email":         nonBlank,
				"username":      nonBlank,
				"password_hash": nonBlank,
				"role":          bson.M{"enum": bson.A{"user", "admin"}},
			},
		},
	}
}
