package mongo

import (
	"coachdesk/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// mongoTxRunner implements repository.TxRunner on top of MongoDB sessions.
// The multi-document workflows (offer/accept/decline, assignment acceptance)
// run through this so a failure between writes never leaves half a transition
// behind.
type mongoTxRunner struct {
	client *mongo.Client
}

// NewMongoTxRunner creates a transaction runner bound to the given client.
// Requires the deployment to support transactions (replica set or mongos).
func NewMongoTxRunner(client *mongo.Client) repository.TxRunner {
	return &mongoTxRunner{client: client}
}

// WithinTransaction runs fn inside a session transaction. Repository calls
// made with the context fn receives join the transaction automatically.
func (r *mongoTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sctx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sctx)
	})
	return err
}
