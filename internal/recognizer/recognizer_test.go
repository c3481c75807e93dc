package recognizer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticToken(tok string) TokenFunc {
	return func() string { return tok }
}

func TestClient_Read(t *testing.T) {
	var gotAuth, gotField, gotFilename, gotPartType, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for field, files := range r.MultipartForm.File {
			gotField = field
			gotFilename = files[0].Filename
			gotPartType = files[0].Header.Get("Content-Type")
			f, err := files[0].Open()
			require.NoError(t, err)
			b, _ := io.ReadAll(f)
			gotBody = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"processing_time":12.5,"results":[{"plate":"abc123","score":0.9,"box":{"xmin":1}},{"plate":"xyz","score":0.4}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("secret"))

	dets, err := c.Read(context.Background(), strings.NewReader("jpeg-bytes"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "Token secret", gotAuth)
	assert.Equal(t, UploadField, gotField)
	assert.Equal(t, UploadFilename, gotFilename)
	assert.Equal(t, "image/png", gotPartType)
	assert.Equal(t, "jpeg-bytes", gotBody)

	require.Len(t, dets, 2)
	assert.Equal(t, "abc123", dets[0].Plate)
	assert.Equal(t, "xyz", dets[1].Plate)
}

func TestClient_Read_Failures(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name:  "non-2xx",
			token: "secret",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = io.WriteString(w, `{"detail":"Invalid token secret"}`)
			},
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusForbidden, se.Code)
				assert.NotContains(t, err.Error(), "Invalid token")
			},
		},
		{
			name:  "malformed json",
			token: "secret",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"results":[`)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "decode response")
			},
		},
		{
			name:  "missing token",
			token: "",
			handler: func(w http.ResponseWriter, r *http.Request) {
				t.Error("no outbound call expected without a token")
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMissingToken)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			dets, err := New(srv.URL, staticToken(tt.token)).Read(context.Background(), strings.NewReader("img"), "image/jpeg")
			assert.Nil(t, dets)
			tt.check(t, err)
		})
	}
}

func TestClient_Read_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, staticToken("secret")).Read(context.Background(), strings.NewReader("img"), "image/jpeg")
	assert.ErrorContains(t, err, "call recognizer")
}

func TestClient_Read_NilReader(t *testing.T) {
	_, err := New("http://unused", staticToken("secret")).Read(context.Background(), nil, "image/jpeg")
	assert.ErrorIs(t, err, ErrReaderNil)
}

func TestClient_Read_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":null}`)
	}))
	defer srv.Close()

	dets, err := New(srv.URL, staticToken("secret")).Read(context.Background(), strings.NewReader("img"), "")
	require.NoError(t, err)
	assert.NotNil(t, dets)
	assert.Empty(t, dets)
}

func TestClient_Read_TokenReadPerCall(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"results":[]}`)
	}))
	defer srv.Close()

	tok := "one"
	c := New(srv.URL, func() string { return tok })

	_, err := c.Read(context.Background(), strings.NewReader("img"), "image/jpeg")
	require.NoError(t, err)
	tok = "two"
	_, err = c.Read(context.Background(), strings.NewReader("img"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, []string{"Token one", "Token two"}, seen)
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Token bad" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"results":[{"plate":"a"},{"plate":"b"},{"plate":"c"}]}`)
	}))
	defer srv.Close()

	_, err = New(srv.URL, staticToken("good"), WithMetrics(m)).Read(context.Background(), strings.NewReader("img"), "image/jpeg")
	require.NoError(t, err)
	_, err = New(srv.URL, staticToken("bad"), WithMetrics(m)).Read(context.Background(), strings.NewReader("img"), "image/jpeg")
	require.Error(t, err)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.detections))
	assert.Equal(t, 2, testutil.CollectAndCount(m.callDuration))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice on one registry must fail")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "unconfigured", outcome(ErrMissingToken))
	assert.Equal(t, "upstream_status", outcome(&StatusError{Code: 500}))
	assert.Equal(t, "error", outcome(errors.New("boom")))
}
