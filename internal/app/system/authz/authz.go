// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/stratareel/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserID returns the signed-in user's ObjectID. ok is false for anonymous
// requests and for sessions holding a malformed id.
func UserID(r *http.Request) (primitive.ObjectID, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// ActorID returns the hex id of the user acting on the request, or "" when
// nobody is signed in. Audit events record it as the actor.
func ActorID(r *http.Request) string {
	id, ok := UserID(r)
	if !ok {
		return ""
	}
	return id.Hex()
}
