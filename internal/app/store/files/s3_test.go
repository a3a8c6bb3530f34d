package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

func TestS3_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		asDir  bool
		want   string
	}{
		{"", "", true, ""},
		{"", "docs", true, "docs/"},
		{"", "docs/readme.md", false, "docs/readme.md"},
		{"", "/docs/readme.md", false, "docs/readme.md"},
		{"data/", "", true, "data/"},
		{"data/", "docs", true, "data/docs/"},
		{"data/", "docs/", true, "data/docs/"},
		{"data/", "docs/readme.md", false, "data/docs/readme.md"},
	}

	for _, tt := range tests {
		b := &S3{prefix: tt.prefix}
		if got := b.key(tt.path, tt.asDir); got != tt.want {
			t.Errorf("key(prefix=%q, path=%q, asDir=%v) = %q, want %q",
				tt.prefix, tt.path, tt.asDir, got, tt.want)
		}
	}
}

func TestS3_MapErr(t *testing.T) {
	b := &S3{}

	for _, err := range []error{
		&types.NoSuchKey{},
		&types.NoSuchBucket{},
		&types.NotFound{},
		fmt.Errorf("get object: %w", &types.NoSuchKey{}),
	} {
		if got := b.mapErr(err); !errors.Is(got, ErrNotFound) {
			t.Errorf("mapErr(%T) = %v, want ErrNotFound", err, got)
		}
	}

	plain := errors.New("throttled")
	if got := b.mapErr(plain); got != plain {
		t.Errorf("mapErr(plain) = %v, want the original error", got)
	}
}

// fakeS3 serves the slice of the S3 REST API the browser uses: delimited
// ListObjectsV2 with continuation tokens, and GetObject. The browser is
// pointed at it through the S3Config endpoint override, the same wiring
// used against MinIO.
type fakeS3 struct {
	bucket   string
	objects  map[string][]byte
	pageSize int // raw keys examined per List page
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("list-type") == "2" {
		f.list(w, r)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/"+f.bucket+"/")
	data, ok := f.objects[key]
	if !ok {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (f *fakeS3) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefix := q.Get("prefix")
	delim := q.Get("delimiter")
	after := q.Get("continuation-token")

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var contents, prefixes []string
	seen := map[string]bool{}
	taken := 0
	truncated := false
	next := ""
	for _, k := range keys {
		if after != "" && k <= after {
			continue
		}
		if taken == f.pageSize {
			truncated = true
			break
		}
		taken++
		next = k

		rest := strings.TrimPrefix(k, prefix)
		if delim != "" {
			if i := strings.Index(rest, delim); i >= 0 {
				cp := prefix + rest[:i+1]
				if !seen[cp] {
					seen[cp] = true
					prefixes = append(prefixes, cp)
				}
				continue
			}
		}
		contents = append(contents, k)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><IsTruncated>%v</IsTruncated>", f.bucket, prefix, truncated)
	if truncated {
		fmt.Fprintf(&b, "<NextContinuationToken>%s</NextContinuationToken>", next)
	}
	for _, k := range contents {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", k, len(f.objects[k]))
	}
	for _, cp := range prefixes {
		fmt.Fprintf(&b, "<CommonPrefixes><Prefix>%s</Prefix></CommonPrefixes>", cp)
	}
	b.WriteString("</ListBucketResult>")

	w.Header().Set("Content-Type", "application/xml")
	io.WriteString(w, b.String())
}

func setupS3(t *testing.T, objects map[string][]byte, pageSize int, prefix string) *S3 {
	t.Helper()

	srv := httptest.NewServer(&fakeS3{
		bucket:   "strataview-test",
		objects:  objects,
		pageSize: pageSize,
	})
	t.Cleanup(srv.Close)

	b, err := NewS3(context.Background(), S3Config{
		Region:    "us-east-1",
		Bucket:    "strataview-test",
		Prefix:    prefix,
		AccessKey: "test",
		SecretKey: "test",
		Endpoint:  srv.URL,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewS3 failed: %v", err)
	}
	return b
}

func browseObjects() map[string][]byte {
	return map[string][]byte{
		"root/":                     {}, // placeholder object for the prefix itself
		"root/hello.txt":            []byte("hello world"),
		"root/docs/readme.md":       []byte("# readme"),
		"root/docs/guides/intro.md": []byte("intro"),
	}
}

func TestS3_List(t *testing.T) {
	b := setupS3(t, browseObjects(), 1000, "root")
	ctx := context.Background()

	entries, err := b.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	byName := map[string]bool{}
	for _, e := range entries {
		byName[e.Name] = e.IsDir
		if e.Name == "hello.txt" {
			if e.Size == nil || *e.Size != 11 {
				t.Errorf("hello.txt size = %v, want 11", e.Size)
			}
		}
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (%v)", len(entries), byName)
	}
	if !byName["docs"] {
		t.Error("expected docs to be listed as a directory")
	}
	if isDir, ok := byName["hello.txt"]; !ok || isDir {
		t.Error("expected hello.txt to be listed as a file")
	}
}

func TestS3_List_Pagination(t *testing.T) {
	objects := map[string][]byte{}
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		objects["root/"+name] = []byte(name)
	}
	// Two keys per page forces three ListObjectsV2 round trips.
	b := setupS3(t, objects, 2, "root")

	entries, err := b.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
		if e.IsDir {
			t.Errorf("%s should be a file", e.Name)
		}
	}
	for _, want := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		if !names[want] {
			t.Errorf("missing entry %s", want)
		}
	}
}

func TestS3_List_EmptyPrefix(t *testing.T) {
	b := setupS3(t, browseObjects(), 1000, "root")

	entries, err := b.List(context.Background(), "missing")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if entries == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestS3_Download(t *testing.T) {
	b := setupS3(t, browseObjects(), 1000, "root")
	ctx := context.Background()

	data, err := b.Download(ctx, "docs/readme.md")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(data) != "# readme" {
		t.Errorf("content = %q, want %q", data, "# readme")
	}

	if _, err := b.Download(ctx, "nope.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key: got %v, want ErrNotFound", err)
	}
}

func TestS3_Tree(t *testing.T) {
	b := setupS3(t, browseObjects(), 1000, "root")

	tree, err := b.Tree(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("got %d root nodes, want 2", len(tree))
	}

	docs := -1
	for i, n := range tree {
		if n.Name == "docs" {
			docs = i
		}
	}
	if docs == -1 {
		t.Fatal("docs not in tree")
	}
	if !tree[docs].IsDir || len(tree[docs].Children) != 2 {
		t.Fatalf("docs children = %v", tree[docs].Children)
	}
	for _, child := range tree[docs].Children {
		if child.Name == "guides" && child.Children != nil {
			t.Error("guides sits at the depth bound, children should be nil")
		}
	}
}

func TestNewS3_NormalizesPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", ""},
		{"data", "data/"},
		{"data/", "data/"},
		{"/data", "data/"},
		{"/data/sub", "data/sub/"},
	}

	for _, tt := range tests {
		b, err := NewS3(context.Background(), S3Config{
			Region:    "us-east-1",
			Bucket:    "strataview-test",
			Prefix:    tt.prefix,
			AccessKey: "test",
			SecretKey: "test",
		}, zap.NewNop())
		if err != nil {
			t.Fatalf("NewS3(prefix=%q) failed: %v", tt.prefix, err)
		}
		if b.prefix != tt.want {
			t.Errorf("NewS3(prefix=%q) root prefix = %q, want %q", tt.prefix, b.prefix, tt.want)
		}
	}
}
