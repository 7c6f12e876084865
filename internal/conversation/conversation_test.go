package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"maitred/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendTurnOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), TrimPolicy{MaxMessages: 20})

	conv, err := s.GetOrCreate(ctx, "", "u1")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	assert.Empty(t, conv.Messages)

	_, err = s.AppendTurn(ctx, conv.ID, Turn{UserMessage: "A", Reply: "reply A", Agent: "general"})
	require.NoError(t, err)
	_, err = s.AppendTurn(ctx, conv.ID, Turn{UserMessage: "B", Reply: "reply B", Agent: "recommendation"})
	require.NoError(t, err)

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	var contents []string
	for _, m := range got.Messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"A", "reply A", "B", "reply B"}, contents)
	assert.Equal(t, models.RoleUser, got.Messages[2].Role)
	assert.Equal(t, models.RoleAssistant, got.Messages[3].Role)
	assert.Equal(t, "recommendation", got.LastAgent)
}

func TestStore_GetOrCreateKeepsSuppliedID(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), TrimPolicy{})

	conv, err := s.GetOrCreate(ctx, "abc", "u1")
	require.NoError(t, err)
	assert.Equal(t, "abc", conv.ID)

	again, err := s.GetOrCreate(ctx, "abc", "u1")
	require.NoError(t, err)
	assert.Equal(t, conv.CreatedAt, again.CreatedAt)
}

func TestStore_SnapshotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), TrimPolicy{})
	conv, err := s.GetOrCreate(ctx, "c1", "u1")
	require.NoError(t, err)

	conv.Messages = append(conv.Messages, models.Message{Content: "tampered"})
	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}

func TestStore_UnknownIDs(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), TrimPolicy{})

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), models.ErrNotFound)
	_, err = s.AppendTurn(ctx, "missing", Turn{UserMessage: "x", Reply: "y"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_MergesPreferences(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), TrimPolicy{})
	conv, _ := s.GetOrCreate(ctx, "c1", "u1")

	_, err := s.AppendTurn(ctx, conv.ID, Turn{UserMessage: "vegan please", Reply: "ok",
		Preferences: models.Preferences{DietaryTags: models.StringSlice{"vegan"}}})
	require.NoError(t, err)
	got, err := s.AppendTurn(ctx, conv.ID, Turn{UserMessage: "1800 calories", Reply: "ok",
		Preferences: models.Preferences{CalorieTarget: 1800}})
	require.NoError(t, err)

	assert.Equal(t, models.StringSlice{"vegan"}, got.Preferences.DietaryTags)
	assert.Equal(t, 1800, got.Preferences.CalorieTarget)
}

func TestStore_ConcurrentAppendsKeepPairs(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), TrimPolicy{})
	conv, _ := s.GetOrCreate(ctx, "c1", "u1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendTurn(ctx, conv.ID, Turn{UserMessage: fmt.Sprintf("q%d", i), Reply: fmt.Sprintf("a%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 40)
	for i := 0; i < len(got.Messages); i += 2 {
		q, a := got.Messages[i], got.Messages[i+1]
		assert.Equal(t, models.RoleUser, q.Role)
		assert.Equal(t, "a"+strings.TrimPrefix(q.Content, "q"), a.Content)
	}
}

func liveLocks(s *Store) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func TestStore_LocksReleasedAfterUse(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), TrimPolicy{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i%5)
			_, err := s.GetOrCreate(ctx, id, "u1")
			assert.NoError(t, err)
			// a concurrent delete may remove the conversation first
			if _, err := s.AppendTurn(ctx, id, Turn{UserMessage: "q", Reply: "a"}); err != nil {
				assert.ErrorIs(t, err, models.ErrNotFound)
			}
			if i%7 == 0 {
				if err := s.Delete(ctx, id); err != nil {
					assert.ErrorIs(t, err, models.ErrNotFound)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, liveLocks(s))
}

func TestStore_DeleteWaitsForHolder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository(), TrimPolicy{})
	_, err := s.GetOrCreate(ctx, "c1", "u1")
	require.NoError(t, err)

	unlock := s.lock("c1")
	done := make(chan error, 1)
	go func() { done <- s.Delete(ctx, "c1") }()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		l := s.locks["c1"]
		return l != nil && l.refs == 2
	}, time.Second, time.Millisecond)

	select {
	case <-done:
		t.Fatal("delete ran while the conversation was locked")
	default:
	}
	assert.Equal(t, 1, liveLocks(s))

	unlock()
	require.NoError(t, <-done)
	assert.Equal(t, 0, liveLocks(s))

	_, err = s.Get(ctx, "c1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTrimPolicy(t *testing.T) {
	msgs := func(contents ...string) []models.Message {
		out := make([]models.Message, len(contents))
		for i, c := range contents {
			out[i] = models.Message{Content: c}
		}
		return out
	}

	t.Run("message cap keeps newest", func(t *testing.T) {
		got := TrimPolicy{MaxMessages: 2}.Apply(msgs("1", "2", "3", "4"))
		assert.Equal(t, msgs("3", "4"), got)
	})

	t.Run("token budget evicts oldest", func(t *testing.T) {
		words := func(s string) int { return len(strings.Fields(s)) }
		p := TrimPolicy{MaxTokens: 5, Counter: words}
		got := p.Apply(msgs("one two three", "four five", "six", "seven eight"))
		assert.Equal(t, msgs("four five", "six", "seven eight"), got)
	})

	t.Run("latest turn survives an oversized budget", func(t *testing.T) {
		words := func(s string) int { return len(strings.Fields(s)) }
		p := TrimPolicy{MaxTokens: 1, Counter: words}
		got := p.Apply(msgs("a b", "c d", "e f"))
		assert.Equal(t, msgs("c d", "e f"), got)
	})

	t.Run("budget without counter is ignored", func(t *testing.T) {
		got := TrimPolicy{MaxTokens: 1}.Apply(msgs("a b", "c d", "e f"))
		assert.Len(t, got, 3)
	})
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisRepository(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	repo := NewRedisRepository(rdb, time.Hour)
	s := NewStore(repo, TrimPolicy{MaxMessages: 4})

	conv, err := s.GetOrCreate(ctx, "r1", "u1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = s.AppendTurn(ctx, conv.ID, Turn{UserMessage: fmt.Sprintf("q%d", i), Reply: fmt.Sprintf("a%d", i)})
		require.NoError(t, err)
	}

	assert.Contains(t, rdb.data, "conversation:r1")
	assert.Equal(t, time.Hour, rdb.ttls["conversation:r1"])

	got, err := repo.Load(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "q1", got.Messages[0].Content)

	require.NoError(t, repo.Delete(ctx, "r1"))
	_, err = repo.Load(ctx, "r1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "r1"), models.ErrNotFound)
}

type fakeDynamo struct {
	mu     sync.Mutex
	items  map[string]map[string]types.AttributeValue
	tables int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func idOf(key map[string]types.AttributeValue) string {
	return key["ConversationID"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[idOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[idOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := idOf(in.Key)
	old := f.items[id]
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{Attributes: old}, nil
}

func (f *fakeDynamo) CreateTable(context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables++
	if f.tables > 1 {
		return nil, &types.ResourceInUseException{}
	}
	return &dynamodb.CreateTableOutput{}, nil
}

func TestDynamoRepository(t *testing.T) {
	ctx := context.Background()
	db := newFakeDynamo()
	repo := NewDynamoRepository(db, "Conversations", 24*time.Hour)
	require.NoError(t, repo.EnsureTable(ctx))
	require.NoError(t, repo.EnsureTable(ctx))

	s := NewStore(repo, TrimPolicy{})
	conv, err := s.GetOrCreate(ctx, "d1", "u1")
	require.NoError(t, err)
	_, err = s.AppendTurn(ctx, conv.ID, Turn{UserMessage: "hi", Reply: "hello"})
	require.NoError(t, err)

	item := db.items["d1"]
	require.NotNil(t, item)
	assert.Equal(t, "u1", item["UserID"].(*types.AttributeValueMemberS).Value)
	assert.IsType(t, &types.AttributeValueMemberN{}, item["ExpiresAt"])

	got, err := s.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)

	require.NoError(t, s.Delete(ctx, "d1"))
	assert.ErrorIs(t, s.Delete(ctx, "d1"), models.ErrNotFound)
}
