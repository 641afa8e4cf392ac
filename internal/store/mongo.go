// Package store implements the durable side of the hub on MongoDB.
// Rooms are addressed by their shareable code, users by object id; the
// participants collection keeps one record per admission.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmaslov/pairdesk/internal/domain"
)

var ErrDuplicateEmail = errors.New("email already registered")

const connectTimeout = 10 * time.Second

type userDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
}

type roomDoc struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	HostID         primitive.ObjectID   `bson:"host_id"`
	Code           string               `bson:"code"`
	ParticipantsID []primitive.ObjectID `bson:"participants_id"`
}

type participantDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	UserID   primitive.ObjectID `bson:"user_id"`
	RoomCode string             `bson:"room_code"`
}

// Mongo holds the three collections backing the hub.
type Mongo struct {
	client       *mongo.Client
	users        *mongo.Collection
	rooms        *mongo.Collection
	participants *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	return &Mongo{
		client:       client,
		users:        db.Collection("users"),
		rooms:        db.Collection("rooms"),
		participants: db.Collection("participants"),
	}, nil
}

func (s *Mongo) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Mongo) GetRoomByCode(ctx context.Context, code string) (*domain.Room, error) {
	var doc roomDoc
	err := s.rooms.FindOne(ctx, bson.M{"code": code}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	room := &domain.Room{
		Code:         doc.Code,
		HostID:       domain.UserID(doc.HostID.Hex()),
		Participants: make([]domain.UserID, 0, len(doc.ParticipantsID)),
	}
	for _, p := range doc.ParticipantsID {
		room.Participants = append(room.Participants, domain.UserID(p.Hex()))
	}
	return room, nil
}

func (s *Mongo) GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return nil, nil
	}
	var doc userDoc
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return docToUser(&doc), nil
}

func (s *Mongo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return docToUser(&doc), nil
}

// CreateUser inserts a new account and returns its id. The email must
// be unused.
func (s *Mongo) CreateUser(ctx context.Context, user *domain.User) (domain.UserID, error) {
	existing, err := s.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrDuplicateEmail
	}
	doc := userDoc{
		ID:       primitive.NewObjectID(),
		Username: user.Username,
		Email:    user.Email,
		Password: user.Password,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return domain.UserID(doc.ID.Hex()), nil
}

// CreateRoom inserts a room with an empty participant list and records
// the host's own participant entry.
func (s *Mongo) CreateRoom(ctx context.Context, code string, host domain.UserID) error {
	hostOID, err := primitive.ObjectIDFromHex(string(host))
	if err != nil {
		return fmt.Errorf("host id: %w", err)
	}
	doc := roomDoc{
		ID:             primitive.NewObjectID(),
		HostID:         hostOID,
		Code:           code,
		ParticipantsID: []primitive.ObjectID{},
	}
	if _, err := s.rooms.InsertOne(ctx, doc); err != nil {
		return err
	}
	_, err = s.participants.InsertOne(ctx, participantDoc{
		ID:       primitive.NewObjectID(),
		UserID:   hostOID,
		RoomCode: code,
	})
	return err
}

// AddParticipant appends id to the room's participant list ($addToSet,
// so repeats are no-ops) and records a participant entry.
func (s *Mongo) AddParticipant(ctx context.Context, code string, id domain.UserID) error {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return fmt.Errorf("participant id: %w", err)
	}
	_, err = s.rooms.UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{"$addToSet": bson.M{"participants_id": oid}},
	)
	if err != nil {
		return err
	}
	_, err = s.participants.InsertOne(ctx, participantDoc{
		ID:       primitive.NewObjectID(),
		UserID:   oid,
		RoomCode: code,
	})
	return err
}

func (s *Mongo) RemoveParticipant(ctx context.Context, code string, id domain.UserID) error {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return fmt.Errorf("participant id: %w", err)
	}
	_, err = s.rooms.UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{"$pull": bson.M{"participants_id": oid}},
	)
	return err
}

func (s *Mongo) SetHost(ctx context.Context, code string, id domain.UserID) error {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return fmt.Errorf("host id: %w", err)
	}
	_, err = s.rooms.UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{"$set": bson.M{"host_id": oid}},
	)
	return err
}

func (s *Mongo) DeleteRoom(ctx context.Context, code string) error {
	_, err := s.rooms.DeleteOne(ctx, bson.M{"code": code})
	return err
}

func docToUser(doc *userDoc) *domain.User {
	return &domain.User{
		ID:       domain.UserID(doc.ID.Hex()),
		Username: doc.Username,
		Email:    doc.Email,
		Password: doc.Password,
	}
}
