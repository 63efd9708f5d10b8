// Package archive keeps per-game summaries in DynamoDB, keyed by season and
// game id.
package archive

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fortuna/puckline/internal/pbp"
)

// DynamoDBAPI is the subset of the DynamoDB client the archive uses.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Archive writes one item per game: PK=Season (S), SK=GameID (S).
type Archive struct {
	ddb   DynamoDBAPI
	table string
}

// New wraps an existing client.
func New(ddb DynamoDBAPI, table string) *Archive {
	return &Archive{ddb: ddb, table: table}
}

// NewFromEnv builds a client from the default AWS credential chain.
func NewFromEnv(ctx context.Context, region, table string) (*Archive, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table), nil
}

// Name identifies the archive as a sink.
func (a *Archive) Name() string {
	return "dynamodb"
}

// Write stores the record's summary, replacing an earlier one.
func (a *Archive) Write(ctx context.Context, rec *pbp.GameRecord) error {
	if rec.Season == "" || rec.GameID == "" {
		return fmt.Errorf("record without season or game id")
	}
	s := pbp.Summarize(rec)
	item := map[string]types.AttributeValue{
		"Season":           &types.AttributeValueMemberS{Value: s.Season}, // PK
		"GameID":           &types.AttributeValueMemberS{Value: s.GameID}, // SK
		"HomeTeam":         &types.AttributeValueMemberS{Value: s.HomeTeam},
		"AwayTeam":         &types.AttributeValueMemberS{Value: s.AwayTeam},
		"HomeScore":        &types.AttributeValueMemberN{Value: strconv.Itoa(s.HomeScore)},
		"AwayScore":        &types.AttributeValueMemberN{Value: strconv.Itoa(s.AwayScore)},
		"Events":           &types.AttributeValueMemberN{Value: strconv.Itoa(s.Events)},
		"Located":          &types.AttributeValueMemberN{Value: strconv.Itoa(s.Located)},
		"CoordinateSource": &types.AttributeValueMemberS{Value: string(s.CoordinateSource)},
		"Live":             &types.AttributeValueMemberBOOL{Value: s.Live},
		"UpdatedAt":        &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
	}
	if !s.GameDate.IsZero() {
		item["GameDate"] = &types.AttributeValueMemberS{Value: s.GameDate.Format("2006-01-02")}
	}
	if s.Warning != "" {
		item["Warning"] = &types.AttributeValueMemberS{Value: s.Warning}
	}

	_, err := a.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.GameID, err)
	}
	return nil
}
