package s3

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5" //nolint:gosec // ETag parity with S3, not security
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const mockBucket = "mock-bucket"

// Fake is an in-memory stand-in for the subset of the S3 REST API the store
// uses: Head, Get, Put and Delete on objects plus ListObjectsV2.
type Fake struct {
	mu       sync.Mutex
	objects  map[string]fakeObject
	pageSize int
	// Fail forces an AccessDenied response for the given HTTP method.
	Fail map[string]bool
	// Requests counts calls per HTTP method.
	Requests map[string]int
}

type fakeObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

// NewMockForTests returns a Store wired to a fresh Fake. It never touches the
// network or the default credential chain.
func NewMockForTests() *Store {
	s, _ := NewMock(1000)
	return s
}

// NewMock returns a Store and its Fake; ListObjectsV2 pages hold at most
// pageSize keys.
func NewMock(pageSize int) (*Store, *Fake) {
	if pageSize <= 0 {
		pageSize = 1000
	}
	fake := &Fake{
		objects:  make(map[string]fakeObject),
		pageSize: pageSize,
		Fail:     make(map[string]bool),
		Requests: make(map[string]int),
	}
	s, err := New(context.Background(), Config{
		Region:          defaultRegion,
		Bucket:          mockBucket,
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIAMOCK",
		SecretAccessKey: "mock-secret",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: fake},
	})
	if err != nil {
		panic(fmt.Sprintf("mock s3 store: %v", err))
	}
	return s, fake
}

// Keys returns stored keys in order.
func (f *Fake) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RoundTrip implements http.RoundTripper.
func (f *Fake) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests[req.Method]++
	if f.Fail[req.Method] {
		return errorResponse(http.StatusForbidden, "AccessDenied"), nil
	}
	key := ""
	if parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2); len(parts) == 2 {
		key = parts[1]
	}
	switch {
	case req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2":
		return f.list(req), nil
	case req.Method == http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			return response(http.StatusNotFound, nil, http.Header{}), nil
		}
		return response(http.StatusOK, nil, obj.header()), nil
	case req.Method == http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			return errorResponse(http.StatusNotFound, "NoSuchKey"), nil
		}
		return response(http.StatusOK, obj.body, obj.header()), nil
	case req.Method == http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			if body, err = decodeChunked(body); err != nil {
				return errorResponse(http.StatusBadRequest, "InvalidRequest"), nil
			}
		}
		obj := fakeObject{body: body, contentType: req.Header.Get("Content-Type"), modified: time.Now().UTC().Truncate(time.Second)}
		for name, values := range req.Header {
			if strings.HasPrefix(strings.ToLower(name), "x-amz-meta-") && len(values) > 0 {
				if obj.metadata == nil {
					obj.metadata = make(map[string]string)
				}
				obj.metadata[strings.ToLower(name[len("x-amz-meta-"):])] = values[0]
			}
		}
		f.objects[key] = obj
		return response(http.StatusOK, nil, http.Header{"Etag": {obj.etag()}}), nil
	case req.Method == http.MethodDelete:
		delete(f.objects, key)
		return response(http.StatusNoContent, nil, http.Header{}), nil
	}
	return errorResponse(http.StatusNotImplemented, "NotImplemented"), nil
}

func (f *Fake) list(req *http.Request) *http.Response {
	q := req.URL.Query()
	prefix := q.Get("prefix")
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	start, _ := strconv.Atoi(q.Get("continuation-token"))
	if start > len(keys) {
		start = len(keys)
	}
	end := min(start+f.pageSize, len(keys))

	type content struct {
		Key          string `xml:"Key"`
		Size         int    `xml:"Size"`
		ETag         string `xml:"ETag"`
		LastModified string `xml:"LastModified"`
	}
	result := struct {
		XMLName     xml.Name  `xml:"ListBucketResult"`
		Name        string    `xml:"Name"`
		Prefix      string    `xml:"Prefix"`
		KeyCount    int       `xml:"KeyCount"`
		IsTruncated bool      `xml:"IsTruncated"`
		NextToken   string    `xml:"NextContinuationToken,omitempty"`
		Contents    []content `xml:"Contents"`
	}{Name: mockBucket, Prefix: prefix, KeyCount: end - start, IsTruncated: end < len(keys)}
	if result.IsTruncated {
		result.NextToken = strconv.Itoa(end)
	}
	for _, k := range keys[start:end] {
		obj := f.objects[k]
		result.Contents = append(result.Contents, content{
			Key:          k,
			Size:         len(obj.body),
			ETag:         obj.etag(),
			LastModified: obj.modified.Format(time.RFC3339),
		})
	}
	body, _ := xml.Marshal(result)
	return response(http.StatusOK, append([]byte(xml.Header), body...), http.Header{"Content-Type": {"application/xml"}})
}

func (o fakeObject) etag() string {
	sum := md5.Sum(o.body) //nolint:gosec
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func (o fakeObject) header() http.Header {
	h := http.Header{
		"Content-Length": {strconv.Itoa(len(o.body))},
		"Etag":           {o.etag()},
		"Last-Modified":  {o.modified.Format(http.TimeFormat)},
	}
	if o.contentType != "" {
		h.Set("Content-Type", o.contentType)
	}
	for k, v := range o.metadata {
		h.Set("X-Amz-Meta-"+k, v)
	}
	return h
}

func response(status int, body []byte, header http.Header) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

func errorResponse(status int, code string) *http.Response {
	body := fmt.Sprintf(`%s<Error><Code>%s</Code><Message>%s</Message></Error>`, xml.Header, code, http.StatusText(status))
	return response(status, []byte(body), http.Header{"Content-Type": {"application/xml"}})
}

// decodeChunked strips aws-chunked framing: `<hex>[;ext]\r\n<data>\r\n`
// repeated until a zero-length chunk, followed by optional trailers.
func decodeChunked(b []byte) ([]byte, error) {
	r := bufio.NewReader(bytes.NewReader(b))
	var out bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("chunk header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		size, err := strconv.ParseInt(line, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk size %q: %w", line, err)
		}
		if size == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, r, size); err != nil {
			return nil, fmt.Errorf("chunk body: %w", err)
		}
		if _, err := r.Discard(2); err != nil {
			return nil, fmt.Errorf("chunk terminator: %w", err)
		}
	}
}
