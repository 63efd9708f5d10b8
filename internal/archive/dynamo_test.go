package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/puckline/internal/pbp"
)

type fakeDDB struct {
	puts []*dynamodb.PutItemInput
	err  error
}

func (f *fakeDDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.err
}

func TestArchiveWrite(t *testing.T) {
	fake := &fakeDDB{}
	a := New(fake, "puckline-games")

	rec := &pbp.GameRecord{
		GameID:           "2023020001",
		Season:           "20232024",
		GameDate:         time.Date(2023, 10, 14, 0, 0, 0, 0, time.UTC),
		HomeTeam:         "FLA",
		AwayTeam:         "TBL",
		CoordinateSource: pbp.SourceAPI,
		Rows:             []pbp.Row{{Event: pbp.Event{Type: pbp.TypeGEnd}, AwayScore: 1}},
	}
	require.NoError(t, a.Write(context.Background(), rec))
	require.Len(t, fake.puts, 1)

	in := fake.puts[0]
	assert.Equal(t, "puckline-games", aws.ToString(in.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "20232024"}, in.Item["Season"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2023020001"}, in.Item["GameID"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1"}, in.Item["AwayScore"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2023-10-14"}, in.Item["GameDate"])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: false}, in.Item["Live"])
	assert.NotContains(t, in.Item, "Warning")
}

func TestArchiveWriteErrors(t *testing.T) {
	fake := &fakeDDB{err: errors.New("throttled")}
	a := New(fake, "t")

	err := a.Write(context.Background(), &pbp.GameRecord{GameID: "2023020001", Season: "20232024"})
	assert.ErrorContains(t, err, "throttled")

	err = a.Write(context.Background(), &pbp.GameRecord{GameID: "2023020001"})
	assert.Error(t, err)
	assert.Len(t, fake.puts, 1)
}
