// internal/database/user_repository.go
package database

import (
	"context"
	"time"

	"leaflog/internal/models"
	"leaflog/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserDocument represents the MongoDB schema for a user profile.
type UserDocument struct {
	UID         string    `bson:"_id"`
	DisplayName string    `bson:"displayName"`
	Email       string    `bson:"email"`
	PhotoURL    string    `bson:"photoURL"`
	Bio         string    `bson:"bio"`
	Followers   []string  `bson:"followers"`
	Following   []string  `bson:"following"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func profileToDocument(p *models.UserProfile) *UserDocument {
	return &UserDocument{
		UID:         p.UID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		PhotoURL:    p.PhotoURL,
		Bio:         p.Bio,
		Followers:   p.Followers,
		Following:   p.Following,
		CreatedAt:   p.CreatedAt,
	}
}

func documentToProfile(doc *UserDocument) *models.UserProfile {
	return &models.UserProfile{
		UID:         doc.UID,
		DisplayName: doc.DisplayName,
		Email:       doc.Email,
		PhotoURL:    doc.PhotoURL,
		Bio:         doc.Bio,
		Followers:   doc.Followers,
		Following:   doc.Following,
		CreatedAt:   doc.CreatedAt,
	}
}

// SaveProfile creates or updates a user profile.
func (m *MongoDB) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	doc := profileToDocument(profile)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": profile.UID}
	update := bson.M{"$set": doc}

	if _, err := m.Users.UpdateOne(ctx, filter, update, opts); err != nil {
		return storeError("save profile", err)
	}
	return nil
}

// GetProfile retrieves a user profile by its identifier.
func (m *MongoDB) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Profile not found", err)
	}
	if err != nil {
		return nil, storeError("get profile", err)
	}

	return documentToProfile(&doc), nil
}

// SetFollow adds or removes the bidirectional follow relationship in a
// single transaction: the viewer appears in the target's followers
// exactly when the target appears in the viewer's following.
func (m *MongoDB) SetFollow(ctx context.Context, viewerID, targetID string, follow bool) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return storeError("follow", err)
	}
	defer session.EndSession(ctx)

	op := "$addToSet"
	if !follow {
		op = "$pull"
	}

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := m.Users.UpdateOne(sc,
			bson.M{"_id": targetID},
			bson.M{op: bson.M{"followers": viewerID}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, utils.NewAppError(utils.ErrNotFound, "Target profile not found", nil)
		}

		res, err = m.Users.UpdateOne(sc,
			bson.M{"_id": viewerID},
			bson.M{op: bson.M{"following": targetID}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, utils.NewAppError(utils.ErrNotFound, "Viewer profile not found", nil)
		}
		return nil, nil
	})
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			return appErr
		}
		return storeError("follow", err)
	}
	return nil
}
