package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/TriB-P/mediabox-sub008/internal/platform/awsclient"
	"github.com/TriB-P/mediabox-sub008/internal/utils"
)

// tacticKeyVersion prefixes every tactic document key. Bump it when the key
// fields change.
const tacticKeyVersion = "TB1"

// objectAPI is the subset of *s3.Client used by S3TacticStore.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3TacticStore keeps one JSON document per tactic.
type S3TacticStore struct {
	api    objectAPI
	bucket string
	prefix string
}

// NewS3TacticStore uses the bucket and prefix configured on client.
func NewS3TacticStore(client *awsclient.S3Client) *S3TacticStore {
	return &S3TacticStore{api: client.Client, bucket: client.BucketName, prefix: client.Prefix}
}

// ObjectKey returns the key a tactic document is stored under: a business key
// of the campaign and tactic IDs.
//
// Example:
//
//	s.ObjectKey("camp-7", "tac-42") // "tactics/TB1_<hash>.json"
func (s *S3TacticStore) ObjectKey(campaignID, tacticID string) string {
	key := utils.GenerateBusinessKey(tacticKeyVersion, map[string]string{
		"campaign": campaignID,
		"tactic":   tacticID,
	})
	return path.Join(s.prefix, key+".json")
}

// Load reads a tactic document.
func (s *S3TacticStore) Load(ctx context.Context, campaignID, tacticID string) (*TacticDocument, error) {
	key := s.ObjectKey(campaignID, tacticID)

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tactic document %s: %w", key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tactic document %s: %w", key, err)
	}

	var doc TacticDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode tactic document %s: %w", key, err)
	}
	return &doc, nil
}

// Save overwrites the tactic document.
func (s *S3TacticStore) Save(ctx context.Context, doc *TacticDocument) error {
	key := s.ObjectKey(doc.Tactic.CampaignID, doc.Tactic.ID)

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode tactic document %s: %w", key, err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put tactic document %s: %w", key, err)
	}
	return nil
}
