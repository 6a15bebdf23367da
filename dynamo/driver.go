// Package dynamo is a DynamoDB backend for docket. Each collection is a
// table with a string hash key named "id"; the database name prefixes the
// table names.
//
// Raw filters must be an Expression.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/jacentio/docket/connect"
	"github.com/jacentio/docket/store"
)

// API is the subset of the DynamoDB client used by the driver.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// Driver implements connect.Driver for DynamoDB.
type Driver struct {
	cfg    Config
	logger *slog.Logger
	newAPI func(cfg aws.Config, endpoint string) API
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDriver creates a DynamoDB driver.
func NewDriver(cfg Config, opts ...Option) *Driver {
	cfg.validate()
	d := &Driver{
		cfg:    cfg,
		logger: slog.Default(),
		newAPI: newClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func newClient(cfg aws.Config, endpoint string) API {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// Name implements connect.Driver.
func (d *Driver) Name() string { return "dynamo" }

// Connect implements connect.Driver. No request is made; the SDK client
// dials lazily, so unreachable endpoints surface on the first table call.
func (d *Driver) Connect(ctx context.Context, cfg connect.Config) (connect.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(d.cfg.Region),
	}

	var endpoint string
	if d.cfg.Local {
		endpoint = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
		// DynamoDB Local accepts any signature, but one is still required.
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &client{
		driver:   d,
		awsCfg:   awsCfg,
		endpoint: endpoint,
		api:      d.newAPI(awsCfg, endpoint),
	}, nil
}

type client struct {
	driver   *Driver
	awsCfg   aws.Config
	endpoint string
	api      API
}

func (c *client) Database(name string) connect.Database {
	return &database{client: c, name: name, api: c.api}
}

func (c *client) Close(context.Context) error { return nil }

type database struct {
	client *client
	name   string

	mu  sync.RWMutex
	api API
}

func (db *database) currentAPI() API {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.api
}

// Authenticate swaps in static credentials (access key id and secret) and
// probes them with a ListTables call. The old client stays in place if the
// probe fails.
func (db *database) Authenticate(ctx context.Context, user, password string) error {
	cfg := db.client.awsCfg.Copy()
	cfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(user, password, ""))
	api := db.client.driver.newAPI(cfg, db.client.endpoint)

	if _, err := api.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)}); err != nil {
		if isAuthError(err) {
			return fmt.Errorf("credentials rejected: %w", err)
		}
		return classify(err)
	}

	db.mu.Lock()
	db.api = api
	db.mu.Unlock()
	return nil
}

func (db *database) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := db.currentAPI().DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(TableName(db.name, name)),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, classify(err)
	}
	return true, nil
}

// CreateCollection creates the table and waits for it to become active.
// Streams are enabled with both images so the stream package can decode
// changes.
func (db *database) CreateCollection(ctx context.Context, name string) error {
	table := TableName(db.name, name)
	api := db.currentAPI()

	_, err := api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(store.IDField), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(store.IDField), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
		StreamSpecification: &types.StreamSpecification{
			StreamEnabled:  aws.Bool(true),
			StreamViewType: types.StreamViewTypeNewAndOldImages,
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return classify(err)
		}
		// Created concurrently by another process.
	}

	waiter := dynamodb.NewTableExistsWaiter(api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, db.client.driver.cfg.CreateTimeout); err != nil {
		return fmt.Errorf("wait for table %s: %w", table, classify(err))
	}

	db.client.driver.logger.Info("created table",
		"table", table,
		"collection", name,
	)
	return nil
}

func (db *database) Collection(name string) store.Collection {
	return &Collection{
		db:    db,
		name:  name,
		table: TableName(db.name, name),
	}
}

// authErrorCodes are the API error codes DynamoDB returns for bad keys.
var authErrorCodes = map[string]bool{
	"UnrecognizedClientException": true,
	"InvalidSignatureException":   true,
	"MissingAuthenticationToken":  true,
	"AccessDeniedException":       true,
}

// classify marks transport failures with connect.ErrConnectivity so the
// Manager does not mistake them for rejected credentials.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return fmt.Errorf("%w: %w", connect.ErrConnectivity, err)
	}
	return err
}

func isAuthError(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && authErrorCodes[apiErr.ErrorCode()]
}

var (
	_ connect.Driver   = (*Driver)(nil)
	_ connect.Client   = (*client)(nil)
	_ connect.Database = (*database)(nil)
)
