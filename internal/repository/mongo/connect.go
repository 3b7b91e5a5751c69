// Package mongo adapts MongoDB as the optional persistence store for
// operator-tunable transcode settings. It is never consulted on the
// request path; the Connection Handler talks only to the in-memory
// ports it was constructed with.
package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect dials uri and returns a client. Extra client options (such as
// an otelmongo monitor) can be layered on via extra.
func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	return mongo.Connect(ctx, opts...)
}
