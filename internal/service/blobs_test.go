package service

import (
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/dochub-portal/internal/apiclient"
	"github.com/bigkaa/dochub-portal/internal/domain/apperr"
)

func TestBlobRegistry(t *testing.T) {
	r := NewBlobRegistry(2, time.Minute)
	content := &apiclient.FileContent{ContentType: "application/pdf", Filename: "a.pdf", Data: []byte("%PDF")}

	first := r.Register("u1", "d1", content)
	if first.ID == "" || first.URL() != BlobURLPrefix+first.ID {
		t.Fatalf("неожиданный blob: %+v", first)
	}

	got, err := r.Open(first.ID, "u1")
	if err != nil || string(got.Data) != "%PDF" {
		t.Fatalf("Open = %+v, %v", got, err)
	}
	if _, err := r.Open(first.ID, "u2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("чужой blob: ожидалась ErrNotFound, получено %v", err)
	}

	// Вытеснение при переполнении
	r.Register("u1", "d2", content)
	r.Register("u1", "d3", content)
	if r.Len() != 2 {
		t.Errorf("ожидалось 2 записи, получено %d", r.Len())
	}
	if _, err := r.Open(first.ID, "u1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("старейшая запись должна быть вытеснена")
	}
}

func TestBlobRegistry_TTL(t *testing.T) {
	r := NewBlobRegistry(8, 50*time.Millisecond)
	blob := r.Register("u1", "d1", &apiclient.FileContent{Data: []byte("x")})

	time.Sleep(150 * time.Millisecond)

	if _, err := r.Open(blob.ID, "u1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("истёкший blob: ожидалась ErrNotFound, получено %v", err)
	}
}
