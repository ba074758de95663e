package archive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCS saves under gs://Bucket/Prefix/<kind>/<firm>/.
type GCS struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

// NewGCSClient opens a storage client from service account JSON, falling
// back to application default credentials.
func NewGCSClient(ctx context.Context, credentialsJSON string) (*storage.Client, error) {
	if strings.TrimSpace(credentialsJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	return storage.NewClient(ctx)
}

// Save uploads data under the first object name not already taken.
func (g GCS) Save(ctx context.Context, kind, firm, name string, data []byte) (string, error) {
	const op = "GCSArchive"
	if g.Client == nil || g.Bucket == "" {
		return "", fmt.Errorf("%s: bucket not configured", op)
	}

	bucket := g.Client.Bucket(g.Bucket)
	dir := path.Join(strings.Trim(g.Prefix, "/"), kind, folder(firm))
	for i := 0; i < maxAttempts; i++ {
		object := path.Join(dir, candidate(name, i))
		obj := bucket.Object(object)
		_, err := obj.Attrs(ctx)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("%s: stat %s: %w", op, object, err)
		}

		// The precondition keeps a concurrent writer from being overwritten.
		w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
		w.ContentType = "application/pdf"
		_, err = w.Write(data)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if precondition(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%s: upload %s: %w", op, object, err)
		}
		return fmt.Sprintf("gs://%s/%s", g.Bucket, object), nil
	}
	return "", fmt.Errorf("%s: no free name for %s in %s", op, name, dir)
}

// precondition reports a failed DoesNotExist condition, meaning another
// writer took the name first.
func precondition(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
