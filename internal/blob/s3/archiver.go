package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/albionflip/flipperd/internal/domain"
)

// keyTimeLayout formats snapshot timestamps into object keys. Colons are
// avoided because several S3-compatible stores mishandle them in keys.
const keyTimeLayout = "2006-01-02T15-04-05Z"

// Archiver implements domain.BookSink by uploading each snapshot as a
// timestamped JSON object, keeping a history of the books rather than only
// the latest state.
type Archiver struct {
	client *s3.Client
	bucket string
	now    func() time.Time
}

// NewArchiver creates an Archiver uploading to the client's bucket.
func NewArchiver(c *Client) *Archiver {
	return &Archiver{
		client: c.S3(),
		bucket: c.Bucket(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Flush uploads the snapshot under books/{kind}/{timestamp}.json.
func (a *Archiver) Flush(ctx context.Context, kind domain.BookKind, orders []domain.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("s3blob: encode %s snapshot: %w", kind, err)
	}

	key := fmt.Sprintf("books/%s/%s.json", kind, a.now().Format(keyTimeLayout))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3blob: put snapshot %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.BookSink = (*Archiver)(nil)
