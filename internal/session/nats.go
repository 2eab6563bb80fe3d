package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/voyago-ai/flight-concierge/internal/model"
	natsclient "github.com/voyago-ai/flight-concierge/internal/nats"
)

const (
	// streamName is the JetStream stream holding the append-only message log.
	streamName = "CONCIERGE_MESSAGES"

	// subjectPrefix prefixes all message subjects.
	subjectPrefix = "concierge.msg"

	// stateBucket is the KV bucket holding conversation state documents.
	stateBucket = "concierge_conversations"
)

// NATSStore persists conversations in a JetStream key-value bucket and
// messages in a JetStream stream, one subject per conversation. Messages
// are immutable once published, which matches the append-only log contract.
type NATSStore struct {
	js jetstream.JetStream
	kv jetstream.KeyValue
}

// NewNATSStore ensures the stream and bucket exist and returns a store.
func NewNATSStore(ctx context.Context, client *natsclient.Client) (*NATSStore, error) {
	js := client.JetStream()

	if _, err := js.Stream(ctx, streamName); err != nil {
		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:        streamName,
			Subjects:    []string{subjectPrefix + ".>"},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      365 * 24 * time.Hour,
			Storage:     jetstream.FileStorage,
			Replicas:    1,
			Compression: jetstream.S2Compression,
			DenyDelete:  true,
			DenyPurge:   true,
			Description: "Concierge conversation messages",
		})
		if err != nil {
			return nil, fmt.Errorf("create message stream: %w", err)
		}
	}

	kv, err := js.KeyValue(ctx, stateBucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      stateBucket,
			Description: "Concierge conversation state",
			History:     5,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open state bucket: %w", err)
	}

	return &NATSStore{js: js, kv: kv}, nil
}

func messageSubject(conversationID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, conversationID, role)
}

// LoadConversation implements Store.
func (s *NATSStore) LoadConversation(ctx context.Context, id string) (*model.Conversation, error) {
	entry, err := s.kv.Get(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", id, err)
	}

	var conv model.Conversation
	if err := json.Unmarshal(entry.Value(), &conv); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return &conv, nil
}

// SaveConversation implements Store.
func (s *NATSStore) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if _, err := s.kv.Put(ctx, conv.ID, data); err != nil {
		return fmt.Errorf("save conversation %s: %w", conv.ID, err)
	}
	return nil
}

// AppendMessage implements Store.
func (s *NATSStore) AppendMessage(ctx context.Context, conversationID string, msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if _, err := s.js.Publish(ctx, messageSubject(conversationID, msg.Role), data); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Messages implements Store. It reads the conversation's subject through an
// ephemeral ordered fetch.
func (s *NATSStore) Messages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	consumer, err := s.js.CreateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: fmt.Sprintf("%s.%s.>", subjectPrefix, conversationID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	var messages []model.Message
	for msg := range batch.Messages() {
		var m model.Message
		if err := json.Unmarshal(msg.Data(), &m); err != nil {
			continue
		}
		messages = append(messages, m)
	}
	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// ListConversations implements Store by scanning the KV bucket. Fine at
// session-store scale; a relational index would take over at larger ones.
func (s *NATSStore) ListConversations(ctx context.Context, userID string, limit, offset int) (*model.ListConversationsResponse, error) {
	keys, err := s.kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return &model.ListConversationsResponse{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	var convs []model.Conversation
	for _, key := range keys {
		conv, err := s.LoadConversation(ctx, key)
		if err != nil {
			continue
		}
		if conv.UserID == userID {
			convs = append(convs, *conv)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})

	total := len(convs)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if limit <= 0 || end > total {
		end = total
	}

	return &model.ListConversationsResponse{
		Conversations: convs[start:end],
		Total:         total,
		HasMore:       end < total,
	}, nil
}
