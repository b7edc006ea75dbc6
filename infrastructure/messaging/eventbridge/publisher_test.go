package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ideapardaz/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	calls  []*eventbridge.PutEventsInput
	err    error
	failAt int // index of an entry to reject in every call, -1 for none
}

func (f *fakeClient) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	out := &eventbridge.PutEventsOutput{}
	for i := range in.Entries {
		entry := types.PutEventsResultEntry{EventId: aws.String("id")}
		if i == f.failAt {
			entry = types.PutEventsResultEntry{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("nope")}
			out.FailedEntryCount++
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func sampleEvents(n int) []events.DomainEvent {
	at := time.Unix(1700000000, 0)
	out := make([]events.DomainEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, events.NewIdeaCreated("u1", "idea", "1", nil, at))
	}
	return out
}

func TestPublishBatchesByTen(t *testing.T) {
	client := &fakeClient{failAt: -1}
	p := NewPublisher(client, "bus", nil, nil)

	require.NoError(t, p.Publish(context.Background(), sampleEvents(23)...))

	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0].Entries, 10)
	assert.Len(t, client.calls[2].Entries, 3)

	entry := client.calls[0].Entries[0]
	assert.Equal(t, "bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeIdeaCreated, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "idea", detail["idea_id"])
	assert.Equal(t, "u1", detail["user_id"])
}

func TestPublishReportsRejectedEntries(t *testing.T) {
	client := &fakeClient{failAt: 1}
	p := NewPublisher(client, "bus", nil, nil)

	err := p.Publish(context.Background(), sampleEvents(12)...)
	require.Error(t, err)
	assert.Len(t, client.calls, 2, "later batches are still attempted")
}

func TestPublishWrapsClientErrors(t *testing.T) {
	boom := errors.New("boom")
	p := NewPublisher(&fakeClient{err: boom, failAt: -1}, "bus", nil, nil)

	assert.ErrorIs(t, p.Publish(context.Background(), sampleEvents(1)...), boom)
}

func TestPublishNothing(t *testing.T) {
	client := &fakeClient{failAt: -1}
	require.NoError(t, NewPublisher(client, "bus", nil, nil).Publish(context.Background()))
	assert.Empty(t, client.calls)
}
