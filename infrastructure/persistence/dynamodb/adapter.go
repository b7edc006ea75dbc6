// Package dynamodb is the remote document store backend. All of a user's
// items share one partition:
//
//	PK=USER#<uid>  SK=META                    live generation and revision
//	PK=USER#<uid>  SK=GEN#<g>#IDEA#<id>       idea
//	PK=USER#<uid>  SK=GEN#<g>#VIBE#<id>       vibe
//
// Batches that fit in one transaction are written to the live generation
// together with a conditional META update. Larger batches are written in
// full to generation g+1, which a single conditional META write publishes.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"ideapardaz/application/ports"
	"ideapardaz/domain/core/entities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	// maxTransactItems is the DynamoDB limit on items per transaction
	maxTransactItems = 100
	// maxBatchWriteItems is the DynamoDB limit on items per BatchWriteItem
	maxBatchWriteItems = 25
	// loadAttempts bounds retries when a load races a commit
	loadAttempts = 5
)

// Client is the subset of the DynamoDB API the adapter uses
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Options configures the adapter
type Options struct {
	TableName    string
	PollInterval time.Duration
}

// Adapter is the PersistenceAdapter for one user's partition
type Adapter struct {
	client       Client
	tableName    string
	userID       string
	pk           string
	pollInterval time.Duration
	logger       *zap.Logger
}

var (
	_ ports.PersistenceAdapter = (*Adapter)(nil)
	_ ports.Subscriber         = (*Adapter)(nil)
)

// NewAdapter creates an adapter for userID
func NewAdapter(client Client, userID string, opts Options, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	return &Adapter{
		client:       client,
		tableName:    opts.TableName,
		userID:       userID,
		pk:           userPK(userID),
		pollInterval: opts.PollInterval,
		logger:       logger.With(zap.String("userID", userID)),
	}
}

// Factory opens adapters on a shared client
type Factory struct {
	client Client
	opts   Options
	logger *zap.Logger
}

// NewFactory creates a factory
func NewFactory(client Client, opts Options, logger *zap.Logger) *Factory {
	return &Factory{client: client, opts: opts, logger: logger}
}

// ForUser implements ports.AdapterFactory
func (f *Factory) ForUser(_ context.Context, userID string) (ports.PersistenceAdapter, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return NewAdapter(f.client, userID, f.opts, f.logger), nil
}

// Load reads the live generation. Query is not isolated from concurrent
// transactions, so META is read again afterwards and the load is repeated
// if the revision moved.
func (a *Adapter) Load(ctx context.Context) (ports.Snapshot, error) {
	for attempt := 0; attempt < loadAttempts; attempt++ {
		before, err := a.readMeta(ctx)
		if err != nil {
			return ports.Snapshot{}, err
		}
		state, err := a.readGeneration(ctx, before.Generation)
		if err != nil {
			return ports.Snapshot{}, err
		}
		after, err := a.readMeta(ctx)
		if err != nil {
			return ports.Snapshot{}, err
		}
		if after.Revision == before.Revision && after.Generation == before.Generation {
			return ports.Snapshot{State: state, Revision: ports.Revision(after.Revision)}, nil
		}
		a.logger.Debug("Load raced a commit, retrying", zap.Int("attempt", attempt+1))
	}
	return ports.Snapshot{}, fmt.Errorf("load: %w", ErrConcurrentModification)
}

// ApplyBatch commits the batch and returns the new revision
func (a *Adapter) ApplyBatch(ctx context.Context, batch ports.Batch) (ports.Revision, error) {
	if err := batch.Validate(); err != nil {
		return 0, fmt.Errorf("invalid batch: %w", err)
	}

	meta, err := a.readMeta(ctx)
	if err != nil {
		return 0, err
	}
	if batch.Token != "" && batch.Token == meta.LastToken {
		return ports.Revision(meta.Revision), nil
	}
	// META is conditioned on the revision just read, so a write that lands
	// in between still fails the transaction
	if err := batch.CheckBase(ports.Revision(meta.Revision)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConcurrentModification, err)
	}

	ops := collapse(batch.Operations)
	if len(ops)+1 <= maxTransactItems {
		err = a.applyTransaction(ctx, meta, ops, batch.Token)
	} else {
		err = a.applyGeneration(ctx, meta, ops, batch.Token)
	}
	if err != nil {
		return 0, err
	}

	next := ports.Revision(meta.Revision + 1)
	a.logger.Debug("Committed batch",
		zap.Int("operations", len(ops)),
		zap.Uint64("revision", uint64(next)),
	)
	return next, nil
}

// applyTransaction writes the operations into the live generation and bumps
// META in one TransactWriteItems call
func (a *Adapter) applyTransaction(ctx context.Context, meta metaItem, ops []ports.Operation, token string) error {
	items := make([]types.TransactWriteItem, 0, len(ops)+1)
	seqBase := (meta.Revision + 1) << 16

	for i, op := range ops {
		switch op.Type {
		case ports.OperationDelete:
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(a.tableName),
					Key:       key(a.pk, sortKey(meta.Generation, op)),
				},
			})
		default:
			av, err := a.marshalOp(meta.Generation, seqBase+int64(i), op)
			if err != nil {
				return err
			}
			items = append(items, types.TransactWriteItem{
				Put: &types.Put{
					TableName: aws.String(a.tableName),
					Item:      av,
				},
			})
		}
	}

	items = append(items, types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(a.tableName),
			Key:                       key(a.pk, metaSK),
			UpdateExpression:          aws.String("SET #rev = :next, #tok = :token, #gen = if_not_exists(#gen, :gen), #type = :meta"),
			ConditionExpression:       aws.String(metaCondition),
			ExpressionAttributeNames:  metaNames,
			ExpressionAttributeValues: metaValues(meta, meta.Generation, token),
		},
	})

	input := &dynamodb.TransactWriteItemsInput{TransactItems: items}
	if token != "" {
		input.ClientRequestToken = aws.String(token)
	}
	if _, err := a.client.TransactWriteItems(ctx, input); err != nil {
		return fmt.Errorf("transact write: %w", classify(err))
	}
	return nil
}

// applyGeneration materializes the full next state into a fresh generation
// and publishes it with one conditional META write. Items of the losing
// generation are removed on a best-effort basis.
func (a *Adapter) applyGeneration(ctx context.Context, meta metaItem, ops []ports.Operation, token string) error {
	current, err := a.readGeneration(ctx, meta.Generation)
	if err != nil {
		return err
	}
	next := ports.Apply(current, ops)
	nextGen := meta.Generation + 1

	puts, err := a.generationItems(nextGen, next)
	if err != nil {
		return err
	}
	if err := a.batchWrite(ctx, puts); err != nil {
		a.discardGeneration(ctx, nextGen, next)
		return err
	}

	flip, err := attributevalue.MarshalMap(metaItem{
		PK:         a.pk,
		SK:         metaSK,
		EntityType: entityMeta,
		Generation: nextGen,
		Revision:   meta.Revision + 1,
		LastToken:  token,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}
	_, err = a.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(a.tableName),
		Item:                      flip,
		ConditionExpression:       aws.String(metaCondition),
		ExpressionAttributeNames:  conditionNames,
		ExpressionAttributeValues: conditionValues(meta),
	})
	if err != nil {
		a.discardGeneration(ctx, nextGen, next)
		return fmt.Errorf("publish generation: %w", classify(err))
	}

	a.logger.Info("Published new generation",
		zap.Int64("generation", nextGen),
		zap.Int("ideas", len(next.Ideas)),
		zap.Int("vibes", len(next.Vibes)),
	)
	a.discardGeneration(ctx, meta.Generation, current)
	return nil
}

func (a *Adapter) generationItems(gen int64, state entities.State) ([]types.WriteRequest, error) {
	reqs := make([]types.WriteRequest, 0, len(state.Ideas)+len(state.Vibes))
	for i, v := range state.Vibes {
		av, err := marshalVibe(a.pk, gen, int64(i), v)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}
	for _, idea := range state.Ideas {
		av, err := marshalIdea(a.pk, gen, idea)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}
	return reqs, nil
}

// discardGeneration deletes the items of a generation nobody reads any more
func (a *Adapter) discardGeneration(ctx context.Context, gen int64, state entities.State) {
	reqs := make([]types.WriteRequest, 0, len(state.Ideas)+len(state.Vibes))
	for _, v := range state.Vibes {
		reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key(a.pk, vibeSK(gen, v.ID))}})
	}
	for _, idea := range state.Ideas {
		reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key(a.pk, ideaSK(gen, idea.ID))}})
	}
	if err := a.batchWrite(ctx, reqs); err != nil {
		a.logger.Warn("Failed to clean up generation",
			zap.Int64("generation", gen),
			zap.Error(err),
		)
	}
}

// batchWrite writes requests in chunks, resubmitting unprocessed items
func (a *Adapter) batchWrite(ctx context.Context, reqs []types.WriteRequest) error {
	for start := 0; start < len(reqs); start += maxBatchWriteItems {
		end := start + maxBatchWriteItems
		if end > len(reqs) {
			end = len(reqs)
		}
		pending := map[string][]types.WriteRequest{a.tableName: reqs[start:end]}

		for attempt := 0; len(pending[a.tableName]) > 0; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
				}
			}
			out, err := a.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("batch write: %w", classify(err))
			}
			pending = out.UnprocessedItems
			if pending == nil {
				break
			}
		}
	}
	return nil
}

func (a *Adapter) marshalOp(gen, seq int64, op ports.Operation) (map[string]types.AttributeValue, error) {
	if op.Entity == ports.EntityVibe {
		return marshalVibe(a.pk, gen, seq, *op.Vibe)
	}
	return marshalIdea(a.pk, gen, *op.Idea)
}

// readMeta returns the META item, or a zero META if the user has none yet
func (a *Adapter) readMeta(ctx context.Context) (metaItem, error) {
	out, err := a.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(a.tableName),
		Key:            key(a.pk, metaSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return metaItem{}, fmt.Errorf("get meta: %w", classify(err))
	}
	if out.Item == nil {
		return metaItem{PK: a.pk, SK: metaSK, EntityType: entityMeta}, nil
	}
	var meta metaItem
	if err := attributevalue.UnmarshalMap(out.Item, &meta); err != nil {
		return metaItem{}, fmt.Errorf("failed to unmarshal meta: %w", err)
	}
	return meta, nil
}

// readGeneration queries every item of a generation
func (a *Adapter) readGeneration(ctx context.Context, gen int64) (entities.State, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(a.pk)).
		And(expression.Key("SK").BeginsWith(generationPrefix(gen)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return entities.State{}, fmt.Errorf("failed to build expression: %w", err)
	}

	ideas := []entities.Idea{}
	var vibes []vibeItem
	var startKey map[string]types.AttributeValue
	for {
		out, err := a.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(a.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ConsistentRead:            aws.Bool(true),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return entities.State{}, fmt.Errorf("query generation: %w", classify(err))
		}
		if err := decodeItems(out.Items, &ideas, &vibes); err != nil {
			return entities.State{}, err
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(vibes, func(i, j int) bool {
		if vibes[i].Seq != vibes[j].Seq {
			return vibes[i].Seq < vibes[j].Seq
		}
		return vibes[i].VibeID < vibes[j].VibeID
	})
	state := entities.State{Vibes: make([]entities.Vibe, 0, len(vibes)), Ideas: ideas}
	for _, v := range vibes {
		state.Vibes = append(state.Vibes, entities.Vibe{ID: v.VibeID, Name: v.Name})
	}
	ports.SortIdeas(state.Ideas)
	return state, nil
}

// Subscribe polls META and pushes the difference whenever the revision moves.
// The adapter's own commits are reported too.
func (a *Adapter) Subscribe(ctx context.Context, onChange func(ports.Change)) (func(), error) {
	initial, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	go a.poll(pollCtx, initial, onChange)

	return func() { once.Do(cancel) }, nil
}

func (a *Adapter) poll(ctx context.Context, known ports.Snapshot, onChange func(ports.Change)) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		meta, err := a.readMeta(ctx)
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Warn("Failed to poll for changes", zap.Error(err))
			}
			continue
		}
		if ports.Revision(meta.Revision) <= known.Revision {
			continue
		}

		snap, err := a.Load(ctx)
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Warn("Failed to load changed state", zap.Error(err))
			}
			continue
		}
		change := ports.Change{Revision: snap.Revision, Operations: ports.Diff(known.State, snap.State)}
		known = snap
		onChange(change)
	}
}

// Close is a no-op; the client is shared
func (a *Adapter) Close() error {
	return nil
}

// META condition shared by the transactional update and the generation flip.
// The first batch for a user creates META.
const metaCondition = "attribute_not_exists(PK) OR (#rev = :expected AND #gen = :gen)"

var conditionNames = map[string]string{
	"#rev": "Revision",
	"#gen": "Generation",
}

var metaNames = map[string]string{
	"#rev":  "Revision",
	"#gen":  "Generation",
	"#tok":  "LastToken",
	"#type": "EntityType",
}

func conditionValues(meta metaItem) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(meta.Revision, 10)},
		":gen":      &types.AttributeValueMemberN{Value: strconv.FormatInt(meta.Generation, 10)},
	}
}

func metaValues(meta metaItem, gen int64, token string) map[string]types.AttributeValue {
	values := conditionValues(meta)
	values[":gen"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(gen, 10)}
	values[":next"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(meta.Revision+1, 10)}
	values[":token"] = &types.AttributeValueMemberS{Value: token}
	values[":meta"] = &types.AttributeValueMemberS{Value: entityMeta}
	return values
}

// IsConcurrentModification reports whether err means another writer won
func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
