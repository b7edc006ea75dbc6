package dynamodb

import (
	"fmt"

	"ideapardaz/application/ports"
	"ideapardaz/domain/core/entities"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	entityMeta = "META"
	entityIdea = "IDEA"
	entityVibe = "VIBE"

	metaSK = "META"
)

// metaItem records which generation of entity items is live and the
// revision of the last committed batch.
type metaItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Generation int64  `dynamodbav:"Generation"`
	Revision   int64  `dynamodbav:"Revision"`
	LastToken  string `dynamodbav:"LastToken"`
}

// ideaItem represents the DynamoDB item structure for an idea
type ideaItem struct {
	PK            string   `dynamodbav:"PK"`
	SK            string   `dynamodbav:"SK"`
	EntityType    string   `dynamodbav:"EntityType"`
	IdeaID        string   `dynamodbav:"IdeaID"`
	Title         string   `dynamodbav:"Title"`
	Content       string   `dynamodbav:"Content"`
	VibeID        string   `dynamodbav:"VibeID"`
	Timestamp     int64    `dynamodbav:"Timestamp"`
	LinkedIdeaIDs []string `dynamodbav:"LinkedIdeaIDs,omitempty"`
	IsArchived    bool     `dynamodbav:"IsArchived"`
	IsPinned      bool     `dynamodbav:"IsPinned"`
}

// vibeItem represents the DynamoDB item structure for a vibe.
// Seq orders vibes by creation.
type vibeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	VibeID     string `dynamodbav:"VibeID"`
	Name       string `dynamodbav:"Name"`
	Seq        int64  `dynamodbav:"Seq"`
}

type typeProbe struct {
	EntityType string `dynamodbav:"EntityType"`
}

func userPK(userID string) string {
	return fmt.Sprintf("USER#%s", userID)
}

func generationPrefix(gen int64) string {
	return fmt.Sprintf("GEN#%d#", gen)
}

func ideaSK(gen int64, id string) string {
	return fmt.Sprintf("GEN#%d#IDEA#%s", gen, id)
}

func vibeSK(gen int64, id string) string {
	return fmt.Sprintf("GEN#%d#VIBE#%s", gen, id)
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func sortKey(gen int64, op ports.Operation) string {
	if op.Entity == ports.EntityVibe {
		return vibeSK(gen, op.ID)
	}
	return ideaSK(gen, op.ID)
}

func marshalIdea(pk string, gen int64, idea entities.Idea) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(ideaItem{
		PK:            pk,
		SK:            ideaSK(gen, idea.ID),
		EntityType:    entityIdea,
		IdeaID:        idea.ID,
		Title:         idea.Title,
		Content:       idea.Content,
		VibeID:        idea.VibeID,
		Timestamp:     idea.Timestamp,
		LinkedIdeaIDs: idea.LinkedIdeaIDs,
		IsArchived:    idea.IsArchived,
		IsPinned:      idea.IsPinned,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal idea: %w", err)
	}
	return av, nil
}

func marshalVibe(pk string, gen, seq int64, vibe entities.Vibe) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(vibeItem{
		PK:         pk,
		SK:         vibeSK(gen, vibe.ID),
		EntityType: entityVibe,
		VibeID:     vibe.ID,
		Name:       vibe.Name,
		Seq:        seq,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vibe: %w", err)
	}
	return av, nil
}

// decodeItems turns a page of generation items into ideas and vibes
func decodeItems(items []map[string]types.AttributeValue, ideas *[]entities.Idea, vibes *[]vibeItem) error {
	for _, raw := range items {
		var probe typeProbe
		if err := attributevalue.UnmarshalMap(raw, &probe); err != nil {
			return fmt.Errorf("failed to unmarshal item: %w", err)
		}
		switch probe.EntityType {
		case entityIdea:
			var item ideaItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return fmt.Errorf("failed to unmarshal idea: %w", err)
			}
			links := item.LinkedIdeaIDs
			if links == nil {
				links = []string{}
			}
			*ideas = append(*ideas, entities.Idea{
				ID:            item.IdeaID,
				Title:         item.Title,
				Content:       item.Content,
				VibeID:        item.VibeID,
				Timestamp:     item.Timestamp,
				LinkedIdeaIDs: links,
				IsArchived:    item.IsArchived,
				IsPinned:      item.IsPinned,
			})
		case entityVibe:
			var item vibeItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return fmt.Errorf("failed to unmarshal vibe: %w", err)
			}
			*vibes = append(*vibes, item)
		}
	}
	return nil
}

// collapse keeps only the last operation per entity, since a transaction
// may not touch the same item twice.
func collapse(ops []ports.Operation) []ports.Operation {
	last := make(map[string]int, len(ops))
	for i, op := range ops {
		last[string(op.Entity)+"#"+op.ID] = i
	}
	out := make([]ports.Operation, 0, len(last))
	for i, op := range ops {
		if last[string(op.Entity)+"#"+op.ID] == i {
			out = append(out, op)
		}
	}
	return out
}
