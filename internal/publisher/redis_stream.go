package publisher

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/fortuna/puckline/internal/pbp"
)

// DefaultStream is the stream prefix when none is configured.
const DefaultStream = "puckline.games"

// maxStreamLen caps each stream; Redis trims approximately.
const maxStreamLen = 10000

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamPublisher publishes game summaries to Redis streams. Live
// snapshots go to "<stream>.live" and finished games to "<stream>.final".
type RedisStreamPublisher struct {
	client streamClient
	stream string
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	return newPublisher(client, stream)
}

func newPublisher(client streamClient, stream string) *RedisStreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamPublisher{client: client, stream: stream}
}

// Name identifies the publisher as a sink.
func (rsp *RedisStreamPublisher) Name() string {
	return "redis-stream"
}

// Write publishes the record's summary.
func (rsp *RedisStreamPublisher) Write(ctx context.Context, rec *pbp.GameRecord) error {
	if rec.Live {
		return rsp.PublishLiveGameUpdate(ctx, pbp.Summarize(rec))
	}
	return rsp.PublishFinalGame(ctx, pbp.Summarize(rec))
}

// PublishLiveGameUpdate publishes a live game snapshot
func (rsp *RedisStreamPublisher) PublishLiveGameUpdate(ctx context.Context, s pbp.Summary) error {
	return rsp.publish(ctx, rsp.stream+".live", s)
}

// PublishFinalGame publishes a finished game
func (rsp *RedisStreamPublisher) PublishFinalGame(ctx context.Context, s pbp.Summary) error {
	return rsp.publish(ctx, rsp.stream+".final", s)
}

func (rsp *RedisStreamPublisher) publish(ctx context.Context, stream string, s pbp.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"game_id":   s.GameID,
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
