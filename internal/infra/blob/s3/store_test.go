package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"euclidcore/pkg/domain"
)

// fakeAPI is an in-memory stand-in for the S3 client.
type fakeAPI struct {
	objects map[string][]byte
	failPut bool
}

func newFakeAPI() *fakeAPI { return &fakeAPI{objects: make(map[string][]byte)} }

func (f *fakeAPI) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.failPut {
		return nil, fmt.Errorf("simulated put failure")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, fmt.Errorf("no such key %s", aws.ToString(in.Key))
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeAPI) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	out := &awss3.ListObjectsV2Output{}
	prefix := aws.ToString(in.Prefix)
	for key := range f.objects {
		if len(prefix) > 0 && (len(key) < len(prefix) || key[:len(prefix)] != prefix) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func newTestExporter(fake *fakeAPI) *Exporter {
	return &Exporter{
		client: fake,
		bucket: "constructions",
		prefix: "snapshots/",
		presign: func(_ context.Context, key string, expiry time.Duration) (string, error) {
			return fmt.Sprintf("https://example.test/%s?expires=%d", key, int(expiry.Seconds())), nil
		},
	}
}

func sampleSpace() domain.ConstructionSpace {
	now := time.Now().UTC()
	s := domain.NewConstructionSpace()
	s.Points["p1"] = domain.Point{ID: "p1", Position: domain.Position{X: 7, Y: 9}, CreatedAt: now}
	s.PointOrder = []string{"p1"}
	s.History = []domain.HistoryEntry{{Action: domain.ActionAddPoint, ElementIDs: []string{"p1"}, CreatedAt: now}}
	return s
}

func TestExportAndFetch(t *testing.T) {
	fake := newFakeAPI()
	exp := newTestExporter(fake)
	ctx := context.Background()

	key, err := exp.Export(ctx, "session1", sampleSpace())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if key != "snapshots/session1.json" {
		t.Fatalf("unexpected key %q", key)
	}

	fetched, err := exp.Fetch(ctx, "session1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fetched.Points["p1"].Position.X != 7 {
		t.Fatalf("round trip lost data: %+v", fetched)
	}
}

func TestExportFailureSurfaces(t *testing.T) {
	fake := newFakeAPI()
	fake.failPut = true
	exp := newTestExporter(fake)
	if _, err := exp.Export(context.Background(), "session1", sampleSpace()); err == nil {
		t.Fatalf("expected put failure to surface")
	}
}

func TestFetchRejectsCorruptExport(t *testing.T) {
	fake := newFakeAPI()
	exp := newTestExporter(fake)
	fake.objects["snapshots/bad.json"] = []byte(`{"points":{},"lines":{},"circles":{},"point_order":["ghost"],"history":null}`)
	if _, err := exp.Fetch(context.Background(), "bad"); err == nil {
		t.Fatalf("expected integrity rejection")
	}
}

func TestListExports(t *testing.T) {
	fake := newFakeAPI()
	exp := newTestExporter(fake)
	ctx := context.Background()
	for _, id := range []string{"bravo", "alpha"} {
		if _, err := exp.Export(ctx, id, sampleSpace()); err != nil {
			t.Fatalf("export %s: %v", id, err)
		}
	}
	got, err := exp.ListExports(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0] != "alpha" || got[1] != "bravo" {
		t.Fatalf("expected sorted session ids, got %v", got)
	}
}

func TestShareURL(t *testing.T) {
	exp := newTestExporter(newFakeAPI())
	url, err := exp.ShareURL(context.Background(), "session1", 0)
	if err != nil {
		t.Fatalf("share url: %v", err)
	}
	if url != "https://example.test/snapshots/session1.json?expires=900" {
		t.Fatalf("unexpected url %q", url)
	}
}
