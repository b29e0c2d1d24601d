package imagesource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/internal/domain"
	"github.com/DRSN-tech/image-search-backend/internal/usecase"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fallbackRepoStub struct {
	usecase.ProductRepository

	fallbackURL string
	fallbackErr error
	calls       int
}

func (s *fallbackRepoStub) FirstFallbackImageURL(ctx context.Context, productID string) (string, error) {
	s.calls++
	return s.fallbackURL, s.fallbackErr
}

type storageRepoStub struct {
	bucket string
	path   string
	data   []byte
	err    error
}

func (s *storageRepoStub) Download(ctx context.Context, bucket string, path string) ([]byte, error) {
	s.bucket = bucket
	s.path = path
	return s.data, s.err
}

func strPtr(s string) *string { return &s }

func newTestResolver(productRepo usecase.ProductRepository, storageRepo usecase.StorageRepository, storageCfg *cfg.StorageCfg) *Resolver {
	if storageCfg == nil {
		storageCfg = &cfg.StorageCfg{}
	}
	return NewResolver(productRepo, storageRepo, storageCfg, nil, logger.NewSlogLogger())
}

func TestResolveImageBytesSourcePriority(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("direct-image"))
	}))
	defer srv.Close()

	t.Run("direct reference wins over fallback", func(t *testing.T) {
		repo := &fallbackRepoStub{fallbackURL: "https://fallback.example/ignored.jpg"}
		resolver := newTestResolver(repo, &storageRepoStub{}, nil)

		product := &domain.Product{ID: "p1", ImageURL: strPtr(srv.URL + "/main.jpg")}

		data, err := resolver.ResolveImageBytes(context.Background(), product)
		require.NoError(t, err)
		assert.Equal(t, []byte("direct-image"), data)
		assert.Zero(t, repo.calls)
	})

	t.Run("fallback used when direct reference is absent", func(t *testing.T) {
		repo := &fallbackRepoStub{fallbackURL: srv.URL + "/fallback.jpg"}
		resolver := newTestResolver(repo, &storageRepoStub{}, nil)

		data, err := resolver.ResolveImageBytes(context.Background(), &domain.Product{ID: "p1"})
		require.NoError(t, err)
		assert.Equal(t, []byte("direct-image"), data)
		assert.Equal(t, 1, repo.calls)
	})

	t.Run("no source anywhere", func(t *testing.T) {
		resolver := newTestResolver(&fallbackRepoStub{}, &storageRepoStub{}, nil)

		_, err := resolver.ResolveImageBytes(context.Background(), &domain.Product{ID: "p1"})
		require.ErrorIs(t, err, e.ErrNoImageSource)
	})

	t.Run("empty direct reference falls through", func(t *testing.T) {
		repo := &fallbackRepoStub{fallbackURL: srv.URL + "/fallback.jpg"}
		resolver := newTestResolver(repo, &storageRepoStub{}, nil)

		product := &domain.Product{ID: "p1", ImageURL: strPtr("")}

		_, err := resolver.ResolveImageBytes(context.Background(), product)
		require.NoError(t, err)
		assert.Equal(t, 1, repo.calls)
	})
}

func TestResolveImageBytesPlaceholderSkip(t *testing.T) {
	resolver := newTestResolver(&fallbackRepoStub{}, &storageRepoStub{}, nil)

	for _, ref := range []string{
		"https://via.placeholder.com/300.png",
		"https://VIA.PLACEHOLDER.COM/300.png",
	} {
		product := &domain.Product{ID: "p1", ImageURL: strPtr(ref)}

		_, err := resolver.ResolveImageBytes(context.Background(), product)
		assert.ErrorIs(t, err, e.ErrPlaceholderImage, "ref=%s", ref)
	}
}

func TestResolveImageBytesStorageReference(t *testing.T) {
	t.Run("bucket and path split", func(t *testing.T) {
		storage := &storageRepoStub{data: []byte("object-bytes")}
		resolver := newTestResolver(&fallbackRepoStub{}, storage, nil)

		product := &domain.Product{ID: "p1", ImageURL: strPtr("product-images/2024/p1.jpg")}

		data, err := resolver.ResolveImageBytes(context.Background(), product)
		require.NoError(t, err)
		assert.Equal(t, []byte("object-bytes"), data)
		assert.Equal(t, "product-images", storage.bucket)
		assert.Equal(t, "2024/p1.jpg", storage.path)
	})

	t.Run("leading slash is tolerated", func(t *testing.T) {
		storage := &storageRepoStub{data: []byte("x")}
		resolver := newTestResolver(&fallbackRepoStub{}, storage, nil)

		product := &domain.Product{ID: "p1", ImageURL: strPtr("/bucket/key.png")}

		_, err := resolver.ResolveImageBytes(context.Background(), product)
		require.NoError(t, err)
		assert.Equal(t, "bucket", storage.bucket)
		assert.Equal(t, "key.png", storage.path)
	})

	t.Run("malformed reference", func(t *testing.T) {
		resolver := newTestResolver(&fallbackRepoStub{}, &storageRepoStub{}, nil)

		for _, ref := range []string{"justbucket", "bucket/", "/onlyname"} {
			product := &domain.Product{ID: "p1", ImageURL: strPtr(ref)}

			_, err := resolver.ResolveImageBytes(context.Background(), product)
			assert.Error(t, err, "ref=%q", ref)
		}
	})
}

func TestFetchHTTPCredentials(t *testing.T) {
	var gotApikey, gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotApikey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("img"))
	}))
	defer srv.Close()

	storageCfg := &cfg.StorageCfg{APIBaseURL: srv.URL, ServiceKey: "service-key"}

	t.Run("own storage object url gets service key", func(t *testing.T) {
		gotApikey, gotAuth = "", ""
		resolver := newTestResolver(&fallbackRepoStub{}, &storageRepoStub{}, storageCfg)

		product := &domain.Product{ID: "p1", ImageURL: strPtr(srv.URL + "/storage/v1/object/public/bucket/p1.jpg")}

		_, err := resolver.ResolveImageBytes(context.Background(), product)
		require.NoError(t, err)
		assert.Equal(t, "service-key", gotApikey)
		assert.Equal(t, "Bearer service-key", gotAuth)
	})

	t.Run("same origin but foreign path stays anonymous", func(t *testing.T) {
		gotApikey, gotAuth = "", ""
		resolver := newTestResolver(&fallbackRepoStub{}, &storageRepoStub{}, storageCfg)

		product := &domain.Product{ID: "p1", ImageURL: strPtr(srv.URL + "/assets/p1.jpg")}

		_, err := resolver.ResolveImageBytes(context.Background(), product)
		require.NoError(t, err)
		assert.Empty(t, gotApikey)
		assert.Empty(t, gotAuth)
	})

	t.Run("foreign origin stays anonymous", func(t *testing.T) {
		gotApikey, gotAuth = "", ""

		foreignCfg := &cfg.StorageCfg{APIBaseURL: "https://other.example", ServiceKey: "service-key"}
		resolver := newTestResolver(&fallbackRepoStub{}, &storageRepoStub{}, foreignCfg)

		product := &domain.Product{ID: "p1", ImageURL: strPtr(srv.URL + "/storage/v1/object/public/bucket/p1.jpg")}

		_, err := resolver.ResolveImageBytes(context.Background(), product)
		require.NoError(t, err)
		assert.Empty(t, gotApikey)
		assert.Empty(t, gotAuth)
	})
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resolver := newTestResolver(&fallbackRepoStub{}, &storageRepoStub{}, nil)

	product := &domain.Product{ID: "p1", ImageURL: strPtr(srv.URL + "/gone.jpg")}

	_, err := resolver.ResolveImageBytes(context.Background(), product)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to download image (404)")
}
