package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify(t *testing.T) {
	t.Run("sends the match as query parameters", func(t *testing.T) {
		var got url.Values
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/hook", r.URL.Path)
			got = r.URL.Query()
		}))
		defer srv.Close()

		client, err := NewClient(&Config{URL: srv.URL + "/hook?token=abc"})
		require.NoError(t, err)

		err = client.Notify(context.Background(), Match{FragmentID: "f-1", File: "recordings/rec_1.wav", Duration: 0.5})
		require.NoError(t, err)

		assert.Equal(t, "abc", got.Get("token"))
		assert.Equal(t, "f-1", got.Get("fragment"))
		assert.Equal(t, "recordings/rec_1.wav", got.Get("file"))
		assert.Equal(t, "0.500", got.Get("duration"))
	})

	t.Run("an error status is reported", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client, err := NewClient(&Config{URL: srv.URL})
		require.NoError(t, err)

		assert.Error(t, client.Notify(context.Background(), Match{FragmentID: "f-2"}))
	})

	t.Run("a missing url is rejected", func(t *testing.T) {
		_, err := NewClient(&Config{})
		assert.Error(t, err)

		_, err = NewClient(nil)
		assert.Error(t, err)
	})
}
