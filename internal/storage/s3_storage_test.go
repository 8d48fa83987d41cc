package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	respErr := &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusForbidden}},
			Err:      errors.New("access denied"),
		},
	}

	assert.Equal(t, http.StatusForbidden, StatusCode(fmt.Errorf("failed to put object k: %w", respErr)))
	assert.Equal(t, 0, StatusCode(errors.New("dial tcp: connection refused")))
	assert.Equal(t, 0, StatusCode(nil))
}

func TestPublicURL(t *testing.T) {
	s := &s3Storage{baseURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/real-estate/abc.jpg", s.PublicURL("real-estate/abc.jpg"))
}

type receivedPut struct {
	path          string
	contentLength int64
	contentType   string
	body          []byte
}

// fakeS3 answers PutObject like S3 does, refusing bodies without a Content-Length.
func fakeS3(t *testing.T, status int) (*s3Storage, func() receivedPut) {
	t.Helper()
	var (
		mu  sync.Mutex
		got receivedPut
	)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = receivedPut{path: r.URL.Path, contentLength: r.ContentLength, contentType: r.Header.Get("Content-Type"), body: body}
		mu.Unlock()

		if r.ContentLength < 0 {
			w.WriteHeader(http.StatusLengthRequired)
			_, _ = w.Write([]byte(`<Error><Code>MissingContentLength</Code></Error>`))
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
			return
		}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		HTTPClient:   srv.Client(),
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		Retryer:      aws.NopRetryer{},
	})
	st := &s3Storage{bucket: "listings", baseURL: "https://cdn.example.com", client: client}
	return st, func() receivedPut {
		mu.Lock()
		defer mu.Unlock()
		return got
	}
}

func TestPut_SendsContentLength(t *testing.T) {
	st, received := fakeS3(t, http.StatusOK)
	data := bytes.Repeat([]byte("x"), 4096)

	err := st.Put(context.Background(), "real-estate/a.png", "image/png", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	got := received()
	assert.Equal(t, "/listings/real-estate/a.png", got.path)
	assert.Equal(t, int64(len(data)), got.contentLength)
	assert.Equal(t, "image/png", got.contentType)
	assert.Equal(t, data, got.body)
}

func TestPut_ProviderStatus(t *testing.T) {
	st, _ := fakeS3(t, http.StatusForbidden)

	err := st.Put(context.Background(), "real-estate/a.png", "image/png", bytes.NewReader([]byte("img")), 3)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
}
