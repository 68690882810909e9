package cos

import (
	"context"
	"fmt"
	"hash/crc64"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicefin/voicefin/artifact"
)

func TestSaveAndLoad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			assert.Equal(t, "/audio/run1.mp3", r.URL.Path)
			assert.Equal(t, "audio/mpeg", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, []byte("mp3-bytes"), body)
			// The SDK verifies the upload against this CRC header.
			crc := crc64.Checksum(body, crc64.MakeTable(crc64.ECMA))
			w.Header().Set("x-cos-hash-crc64ecma", strconv.FormatUint(crc, 10))
		case http.MethodGet:
			assert.Equal(t, "/audio/run1.mp3", r.URL.Path)
			w.Header().Set("Content-Type", "audio/mpeg")
			fmt.Fprint(w, "mp3-bytes")
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	s, err := NewStore(server.URL, WithPrefix("audio"),
		WithSecretID("id"), WithSecretKey("key"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "run1.mp3", &artifact.Artifact{
		Data:     []byte("mp3-bytes"),
		MimeType: "audio/mpeg",
		Name:     "run1.mp3",
	}))

	got, err := s.Load(ctx, "run1.mp3")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("mp3-bytes"), got.Data)
	assert.Equal(t, "audio/mpeg", got.MimeType)
}

func TestLoadAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s, err := NewStore(server.URL, WithSecretID("id"), WithSecretKey("key"))
	require.NoError(t, err)

	got, err := s.Load(context.Background(), "missing.mp3")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListKeysStripsPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "audio", r.URL.Query().Get("prefix"))
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult>
	<Contents><Key>audio/a.mp3</Key></Contents>
	<Contents><Key>audio/b.mp3</Key></Contents>
</ListBucketResult>`)
	}))
	defer server.Close()

	s, err := NewStore(server.URL, WithPrefix("audio"),
		WithSecretID("id"), WithSecretKey("key"))
	require.NoError(t, err)

	keys, err := s.ListKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3", "b.mp3"}, keys)
}

func TestDelete(t *testing.T) {
	var deleted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted = append(deleted, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	s, err := NewStore(server.URL, WithSecretID("id"), WithSecretKey("key"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "run1.mp3"))
	assert.Equal(t, []string{"/run1.mp3"}, deleted)
}

func TestNewStoreBadURL(t *testing.T) {
	_, err := NewStore("://not-a-url")
	assert.Error(t, err)
}
