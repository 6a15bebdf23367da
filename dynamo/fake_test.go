package dynamo

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// fakeAPI is an in-memory DynamoDB. Scan ignores filter expressions and
// returns every item, pageSize at a time, recording the inputs it saw.
type fakeAPI struct {
	mu       sync.Mutex
	tables   map[string]map[string]map[string]types.AttributeValue
	pageSize int

	scans       []*dynamodb.ScanInput
	batches     int
	unprocessed int // unprocessed deletes reported by the next BatchWriteItem
	listErr     error
	describeErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tables:   make(map[string]map[string]map[string]types.AttributeValue),
		pageSize: 2,
	}
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[aws.ToString(in.TableName)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no table")}
	}
	id := in.Item["id"].(*types.AttributeValueMemberS).Value
	t[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans = append(f.scans, in)

	t, ok := f.tables[aws.ToString(in.TableName)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no table")}
	}

	all := make([]string, 0, len(t))
	for id := range t {
		all = append(all, id)
	}
	sort.Strings(all)

	// Items are spread over segments by position.
	ids := all[:0:0]
	for i, id := range all {
		if in.TotalSegments == nil || int32(i)%aws.ToInt32(in.TotalSegments) == aws.ToInt32(in.Segment) {
			ids = append(ids, id)
		}
	}

	start := 0
	if in.ExclusiveStartKey != nil {
		last := in.ExclusiveStartKey["id"].(*types.AttributeValueMemberS).Value
		start = sort.SearchStrings(ids, last) + 1
	}
	end := min(start+f.pageSize, len(ids))

	out := &dynamodb.ScanOutput{}
	for _, id := range ids[start:end] {
		out.Items = append(out.Items, t[id])
	}
	if end < len(ids) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: ids[end-1]},
		}
	}
	return out, nil
}

func (f *fakeAPI) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++

	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, reqs := range in.RequestItems {
		t := f.tables[table]
		for _, r := range reqs {
			if f.unprocessed > 0 {
				f.unprocessed--
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], r)
				continue
			}
			id := r.DeleteRequest.Key["id"].(*types.AttributeValueMemberS).Value
			delete(t, id)
		}
	}
	return out, nil
}

func (f *fakeAPI) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	if _, ok := f.tables[aws.ToString(in.TableName)]; !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no table")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("exists")}
	}
	f.tables[name] = make(map[string]map[string]types.AttributeValue)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeAPI) ListTables(_ context.Context, _ *dynamodb.ListTablesInput, _ ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &dynamodb.ListTablesOutput{}, nil
}

func (f *fakeAPI) lastScan() *dynamodb.ScanInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.scans) == 0 {
		return nil
	}
	return f.scans[len(f.scans)-1]
}

var (
	errAuth    = &smithy.GenericAPIError{Code: "UnrecognizedClientException", Message: "The security token included in the request is invalid."}
	errNetwork = &smithyhttp.RequestSendError{Err: errors.New("dial tcp 127.0.0.1:8000: connection refused")}
)
