package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps each key as one document in a collection.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// firestoreDoc is the stored document shape. The value is kept as raw
// bytes so the serialized tree is persisted verbatim.
type firestoreDoc struct {
	Data      []byte    `firestore:"data"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// NewFirestoreStore opens a client for the given project. An empty
// databaseID selects the "(default)" database; an empty credentialsFile
// uses application default credentials.
func NewFirestoreStore(ctx context.Context, projectID, databaseID, collection, credentialsFile string) (*FirestoreStore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &FirestoreStore{client: client, collection: collection}, nil
}

func (f *FirestoreStore) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := f.client.Collection(f.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	var doc firestoreDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return doc.Data, nil
}

func (f *FirestoreStore) Set(ctx context.Context, key string, value []byte) error {
	doc := firestoreDoc{Data: value, UpdatedAt: time.Now()}
	if _, err := f.client.Collection(f.collection).Doc(key).Set(ctx, doc); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (f *FirestoreStore) Close() error {
	return f.client.Close()
}
