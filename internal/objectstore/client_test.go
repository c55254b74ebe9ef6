package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodarr/vodarr/internal/models"
)

type notFoundErr struct{ code string }

func (e *notFoundErr) Error() string                 { return e.code }
func (e *notFoundErr) ErrorCode() string             { return e.code }
func (e *notFoundErr) ErrorMessage() string          { return e.code }
func (e *notFoundErr) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

type fakeS3 struct {
	objects map[string][]byte

	headCalls  []string
	listPages  []*s3.ListObjectsV2Output
	listCalls  int
	deleted    []string
	deleteErrs map[string]string
	batchSizes []int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	key := aws.ToString(in.Key)
	f.headCalls = append(f.headCalls, key)
	if _, ok := f.objects[key]; !ok {
		return nil, &notFoundErr{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listCalls >= len(f.listPages) {
		return &s3.ListObjectsV2Output{}, nil
	}
	page := f.listPages[f.listCalls]
	f.listCalls++
	return page, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(in.Key)
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.batchSizes = append(f.batchSizes, len(in.Delete.Objects))
	out := &s3.DeleteObjectsOutput{}
	for _, id := range in.Delete.Objects {
		key := aws.ToString(id.Key)
		if code, ok := f.deleteErrs[key]; ok {
			out.Errors = append(out.Errors, types.Error{
				Key:  id.Key,
				Code: aws.String(code),
			})
			continue
		}
		f.deleted = append(f.deleted, key)
	}
	return out, nil
}

type fakeUploader struct {
	store   *fakeS3
	uploads []string
	noETag  bool
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := aws.ToString(in.Key)
	f.uploads = append(f.uploads, key)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.store.objects[key] = body
	if f.noETag {
		return &manager.UploadOutput{Key: in.Key}, nil
	}
	return &manager.UploadOutput{
		Key:  in.Key,
		ETag: aws.String(`"abc123"`),
	}, nil
}

func newTestClient(api *fakeS3, up *fakeUploader) *Client {
	return &Client{
		api:      api,
		uploader: up,
		bucket:   "vodarr-media",
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExists(t *testing.T) {
	api := newFakeS3()
	api.objects["videos/abc/_720p.mp4"] = []byte("payload")
	client := newTestClient(api, &fakeUploader{store: api})

	ok, err := client.Exists(context.Background(), "videos/abc/_720p.mp4")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Exists(context.Background(), "videos/abc/_480p.mp4")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUploadIfAbsent(t *testing.T) {
	api := newFakeS3()
	up := &fakeUploader{store: api}
	client := newTestClient(api, up)
	path := writeTempFile(t, "out.mp4", "rendition bytes")

	uploaded, err := client.UploadIfAbsent(context.Background(), path, "videos/abc/_1080p.mp4")
	require.NoError(t, err)
	assert.True(t, uploaded)
	assert.Equal(t, []byte("rendition bytes"), api.objects["videos/abc/_1080p.mp4"])

	// Second call must not upload again.
	uploaded, err = client.UploadIfAbsent(context.Background(), path, "videos/abc/_1080p.mp4")
	require.NoError(t, err)
	assert.False(t, uploaded)
	assert.Len(t, up.uploads, 1)
}

func TestUploadIfAbsentMissingFile(t *testing.T) {
	api := newFakeS3()
	client := newTestClient(api, &fakeUploader{store: api})

	_, err := client.UploadIfAbsent(context.Background(), "/nonexistent/file.mp4", "videos/abc/_720p.mp4")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUploadFailure)
}

func TestUploadIfAbsentMissingETag(t *testing.T) {
	api := newFakeS3()
	client := newTestClient(api, &fakeUploader{store: api, noETag: true})
	path := writeTempFile(t, "cover.jpg", "jpeg bytes")

	_, err := client.UploadIfAbsent(context.Background(), path, "covers/abc/cover.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUploadFailure)
}

func TestUploadIfAbsentUploaderError(t *testing.T) {
	api := newFakeS3()
	client := newTestClient(api, &fakeUploader{store: api, err: fmt.Errorf("connection reset")})
	path := writeTempFile(t, "en.vtt", "WEBVTT")

	_, err := client.UploadIfAbsent(context.Background(), path, "videos/abc/en.vtt")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUploadFailure)
}

func TestDelete(t *testing.T) {
	api := newFakeS3()
	api.objects["covers/abc/cover.jpg"] = []byte("jpeg bytes")
	client := newTestClient(api, &fakeUploader{store: api})

	require.NoError(t, client.Delete(context.Background(), "covers/abc/cover.jpg"))
	assert.Empty(t, api.objects)

	// Absent key is not an error.
	require.NoError(t, client.Delete(context.Background(), "covers/abc/cover.jpg"))
}

func TestDeleteByPrefix(t *testing.T) {
	api := newFakeS3()
	api.listPages = []*s3.ListObjectsV2Output{
		{
			Contents: []types.Object{
				{Key: aws.String("videos/abc/_480p.mp4")},
				{Key: aws.String("videos/abc/_720p.mp4")},
			},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("token-1"),
		},
		{
			Contents: []types.Object{
				{Key: aws.String("videos/abc/en.vtt")},
			},
			IsTruncated: aws.Bool(false),
		},
	}
	client := newTestClient(api, &fakeUploader{store: api})

	removed, err := client.DeleteByPrefix(context.Background(), "videos/abc/")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 2, api.listCalls)
	assert.Equal(t, []string{
		"videos/abc/_480p.mp4",
		"videos/abc/_720p.mp4",
		"videos/abc/en.vtt",
	}, api.deleted)
}

func TestDeleteByPrefixPartialFailure(t *testing.T) {
	api := newFakeS3()
	api.listPages = []*s3.ListObjectsV2Output{
		{
			Contents: []types.Object{
				{Key: aws.String("covers/abc/cover.jpg")},
				{Key: aws.String("covers/abc/stale.jpg")},
			},
			IsTruncated: aws.Bool(false),
		},
	}
	api.deleteErrs = map[string]string{"covers/abc/stale.jpg": "AccessDenied"}
	client := newTestClient(api, &fakeUploader{store: api})

	removed, err := client.DeleteByPrefix(context.Background(), "covers/abc/")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"covers/abc/cover.jpg"}, api.deleted)
}

func TestDeleteByPrefixBatching(t *testing.T) {
	contents := make([]types.Object, 0, deleteBatchSize+5)
	for i := 0; i < deleteBatchSize+5; i++ {
		contents = append(contents, types.Object{Key: aws.String(fmt.Sprintf("videos/abc/part-%04d", i))})
	}
	api := newFakeS3()
	api.listPages = []*s3.ListObjectsV2Output{
		{Contents: contents, IsTruncated: aws.Bool(false)},
	}
	client := newTestClient(api, &fakeUploader{store: api})

	removed, err := client.DeleteByPrefix(context.Background(), "videos/abc/")
	require.NoError(t, err)
	assert.Equal(t, deleteBatchSize+5, removed)
	assert.Equal(t, []int{deleteBatchSize, 5}, api.batchSizes)
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"videos/abc/_1080p.mp4", "video/mp4"},
		{"videos/abc/en.vtt", "text/vtt"},
		{"covers/abc/cover.jpg", "image/jpeg"},
		{"misc/readme.txt", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, contentTypeFor(tt.key), tt.key)
	}
}
