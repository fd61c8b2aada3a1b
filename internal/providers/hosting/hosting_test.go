package hosting

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var png = Image{Filename: "in.png", ContentType: "image/png", Data: []byte("\x89PNG fake")}

func TestImageValidate(t *testing.T) {
	assert.NoError(t, png.Validate())
	assert.NoError(t, Image{ContentType: "image/jpg; q=1", Data: []byte("x")}.Validate())
	assert.ErrorIs(t, Image{ContentType: "image/gif", Data: []byte("x")}.Validate(), ErrUnsupportedType)
	assert.ErrorIs(t, Image{ContentType: "image/webp"}.Validate(), ErrEmptyImage)
	big := Image{ContentType: "image/jpeg", Data: make([]byte, MaxImageBytes+1)}
	assert.ErrorIs(t, big.Validate(), ErrTooLarge)
}

func multipartServer(t *testing.T, fileField string, fields map[string]string, reply func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for k, v := range fields {
			assert.Equal(t, v, r.FormValue(k))
		}
		f, hdr, err := r.FormFile(fileField)
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, png.Data, data)
		assert.Equal(t, "in.png", hdr.Filename)
		reply(w)
	}))
}

func TestCatbox(t *testing.T) {
	srv := multipartServer(t, "fileToUpload", map[string]string{"reqtype": "fileupload"}, func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(" https://files.catbox.moe/abc.png\n"))
	})
	defer srv.Close()

	got, err := (&Catbox{Endpoint: srv.URL}).Upload(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, "https://files.catbox.moe/abc.png", got)
}

func TestCatboxRejectsNonURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("error: quota"))
	}))
	defer srv.Close()

	_, err := (&Catbox{Endpoint: srv.URL}).Upload(context.Background(), png)
	assert.EqualError(t, err, "catbox: invalid response")
}

func TestImgBB(t *testing.T) {
	srv := multipartServer(t, "image", nil, func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"url":"https://i.ibb.co/x.png"}}`))
	})
	defer srv.Close()

	u := &ImgBB{APIKey: "k 1", Endpoint: srv.URL}
	got, err := u.Upload(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/x.png", got)

	_, err = (&ImgBB{Endpoint: srv.URL}).Upload(context.Background(), png)
	assert.Error(t, err)
}

func TestPostimages(t *testing.T) {
	srv := multipartServer(t, "upload", map[string]string{"token": "demo"}, func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"status":"OK","url":"https://postimg.cc/x"}`))
	})
	defer srv.Close()

	got, err := (&Postimages{Endpoint: srv.URL}).Upload(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, "https://postimg.cc/x", got)
}

type stubUploader struct {
	name  string
	url   string
	err   error
	calls int
}

func (s *stubUploader) Name() string { return s.name }

func (s *stubUploader) Upload(ctx context.Context, img Image) (string, error) {
	s.calls++
	return s.url, s.err
}

func TestChainFirstSuccessWins(t *testing.T) {
	a := &stubUploader{name: "a", err: errors.New("a down")}
	b := &stubUploader{name: "b", url: "https://b/1.png"}
	c := &stubUploader{name: "c", url: "https://c/1.png"}
	got, err := NewChain(nil, a, b, c).Upload(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, "https://b/1.png", got)
	assert.Equal(t, 0, c.calls)
}

func TestChainAllFail(t *testing.T) {
	a := &stubUploader{name: "a", err: errors.New("a down")}
	b := &stubUploader{name: "b", err: errors.New("b down")}
	_, err := NewChain(nil, a, b).Upload(context.Background(), png)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllFailed)
	assert.ErrorIs(t, err, b.err)
	assert.Equal(t, "hosting: all services failed: b down", err.Error())

	_, err = NewChain(nil).Upload(context.Background(), png)
	assert.Equal(t, ErrAllFailed, err)
}

func TestChainValidatesFirst(t *testing.T) {
	a := &stubUploader{name: "a", url: "https://a"}
	_, err := NewChain(nil, a).Upload(context.Background(), Image{ContentType: "text/plain", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Equal(t, 0, a.calls)
}

func TestDefaultChainSkipsImgBBWithoutKey(t *testing.T) {
	names := func(c *Chain) []string {
		var out []string
		for _, u := range c.uploaders {
			out = append(out, u.Name())
		}
		return out
	}
	assert.Equal(t, []string{"catbox", "postimages"}, names(DefaultChain("", nil, nil)))
	assert.Equal(t, []string{"catbox", "imgbb", "postimages"}, names(DefaultChain("key", nil, nil)))
}
