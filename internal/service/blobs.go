// blobs.go — реестр объектных URL для содержимого файлов.
// Файл, полученный от backend, хранится в памяти под случайным идентификатором
// и доступен по /blobs/{id} только владельцу. Запись освобождается явно
// (Release), по TTL или при вытеснении из LRU.
package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/dochub-portal/internal/apiclient"
	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
)

// BlobURLPrefix — префикс объектных URL.
const BlobURLPrefix = "/blobs/"

// Prometheus-метрики реестра.
var (
	blobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dh_blobs_active",
		Help: "Количество объектных URL, удерживаемых в памяти.",
	})
	blobsRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dh_blobs_registered_total",
		Help: "Общее количество выданных объектных URL.",
	})
	blobBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dh_blob_bytes_total",
		Help: "Общее количество байт, полученных от backend для объектных URL.",
	})
)

// Blob — содержимое файла, доступное по объектному URL.
type Blob struct {
	ID          string
	Owner       string
	DocumentID  string
	ContentType string
	Filename    string
	Disposition string
	Data        []byte
	CreatedAt   time.Time
}

// URL возвращает объектный URL.
func (b *Blob) URL() string {
	return BlobURLPrefix + b.ID
}

// BlobRegistry — LRU с TTL для объектных URL.
type BlobRegistry struct {
	cache *expirable.LRU[string, *Blob]
}

// NewBlobRegistry создаёт реестр.
// maxSize — максимальное количество записей (DH_BLOB_CACHE_SIZE).
// ttl — время жизни записи (DH_BLOB_TTL).
func NewBlobRegistry(maxSize int, ttl time.Duration) *BlobRegistry {
	onEvict := func(_ string, _ *Blob) {
		blobsActive.Dec()
	}
	return &BlobRegistry{
		cache: expirable.NewLRU[string, *Blob](maxSize, onEvict, ttl),
	}
}

// Register сохраняет содержимое файла и возвращает запись с новым идентификатором.
func (r *BlobRegistry) Register(owner, documentID string, content *apiclient.FileContent) *Blob {
	blob := &Blob{
		ID:          uuid.NewString(),
		Owner:       owner,
		DocumentID:  documentID,
		ContentType: content.ContentType,
		Filename:    content.Filename,
		Disposition: content.Disposition,
		Data:        content.Data,
		CreatedAt:   time.Now().UTC(),
	}
	r.cache.Add(blob.ID, blob)
	blobsActive.Inc()
	blobsRegisteredTotal.Inc()
	blobBytesTotal.Add(float64(len(content.Data)))
	return blob
}

// Open возвращает запись владельца. Чужая, истёкшая или освобождённая
// запись — apperr.ErrNotFound.
func (r *BlobRegistry) Open(id, owner string) (*Blob, error) {
	blob, ok := r.cache.Get(id)
	if !ok || blob.Owner != owner {
		return nil, apperr.NotFound("Файл не найден или ссылка устарела")
	}
	return blob, nil
}

// Release освобождает запись владельца.
func (r *BlobRegistry) Release(id, owner string) error {
	if _, err := r.Open(id, owner); err != nil {
		return err
	}
	r.cache.Remove(id)
	return nil
}

// Len возвращает количество активных записей.
func (r *BlobRegistry) Len() int {
	return r.cache.Len()
}
