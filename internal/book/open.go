package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultMongoDatabase is used when neither the DSN nor OpenOptions name one.
const DefaultMongoDatabase = "bookstore"

// OpenOptions tune the repository returned by Open.
type OpenOptions struct {
	// Database overrides the MongoDB database named in the DSN.
	Database string
	// Timeout bounds every repository call.
	Timeout time.Duration
}

// Backend names the store a DSN selects.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongo"
)

// BackendFor reports the store selected by the DSN scheme.
func BackendFor(dsn string) (Backend, error) {
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		return "", fmt.Errorf("dsn has no scheme")
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	default:
		return "", fmt.Errorf("unsupported dsn scheme %q", scheme)
	}
}

// Open connects to the store named by dsn and returns its repository along
// with a function that releases the connection.
func Open(ctx context.Context, dsn string, opts OpenOptions) (Repository, func(), error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	backend, err := BackendFor(dsn)
	if err != nil {
		return nil, nil, err
	}

	switch backend {
	case BackendPostgres:
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return NewPostgresRepo(pool, opts.Timeout), pool.Close, nil
	default:
		cs, err := connstring.ParseAndValidate(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("parse mongo dsn: %w", err)
		}
		database := opts.Database
		if database == "" {
			database = cs.Database
		}
		if database == "" {
			database = DefaultMongoDatabase
		}

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn).SetTimeout(opts.Timeout))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		return NewMongoRepo(client, database, opts.Timeout), closeFn, nil
	}
}
