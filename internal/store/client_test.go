package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sisvei/internal/model"
)

// fakeAPI is an in-memory version of the remote collection.
type fakeAPI struct {
	mu      sync.Mutex
	records []model.RemoteRecord
	nextID  int
	lastReq *http.Request
	lastRaw map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = r

	id := strings.TrimPrefix(r.URL.Path, "/agendamentos")
	id = strings.TrimPrefix(id, "/")

	switch {
	case r.Method == http.MethodGet && id == "":
		_ = json.NewEncoder(w).Encode(f.records)
	case r.Method == http.MethodPost && id == "":
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.lastRaw = raw
		b, _ := json.Marshal(raw)
		var rec model.RemoteRecord
		_ = json.Unmarshal(b, &rec)
		f.nextID++
		rec.ID = fmt.Sprintf("id-%d", f.nextID)
		f.records = append(f.records, rec)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rec)
	case r.Method == http.MethodDelete && id != "":
		for i, rec := range f.records {
			if rec.ID == id {
				f.records = append(f.records[:i], f.records[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/agendamentos/", 0)
}

func TestListReturnsAllRecords(t *testing.T) {
	api := &fakeAPI{records: []model.RemoteRecord{
		{ID: "1", DataHoraSaida: "2024-03-10T08:00:00", Excluido: false},
		{ID: "2", DataHoraSaida: "2024-03-11T08:00:00", Excluido: true},
	}}
	c := newTestClient(t, api)

	recs, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[1].Excluido)
	assert.NotEmpty(t, api.lastReq.Header.Get("X-Request-ID"))
}

func TestListEmptyArray(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	}))

	recs, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestListParseError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))

	_, err := c.List(context.Background())
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "list", pe.Op)
}

func TestListServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.List(context.Background())
	var se *ServerError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "boom", se.Body)
}

func TestListNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 0).List(context.Background())
	var ne *NetworkError
	require.True(t, errors.As(err, &ne), "got %v", err)
}

func TestCreateSendsRecordWithoutID(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(t, api)

	created, err := c.Create(context.Background(), model.RemoteRecord{
		ID:              "client-side",
		DataHoraSaida:   "2024-03-10T08:00:00",
		DataHoraChegada: "2024-03-10T09:00:00",
		PlacaVeiculo:    "ABC123",
		NomePassageiros: "Ana, Beto",
	})
	require.NoError(t, err)

	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "Ana, Beto", created.NomePassageiros)
	assert.NotContains(t, api.lastRaw, "_id")
	assert.Equal(t, false, api.lastRaw["excluido"])
	assert.Equal(t, "application/json", api.lastReq.Header.Get("Content-Type"))
}

func TestCreateWithoutServerID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"PlacaVeiculo":"ABC123"}`))
	}))

	_, err := c.Create(context.Background(), model.RemoteRecord{})
	var pe *ParseError
	assert.True(t, errors.As(err, &pe), "got %v", err)
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{records: []model.RemoteRecord{{ID: "1"}, {ID: "2"}}}
	c := newTestClient(t, api)

	require.NoError(t, c.Delete(context.Background(), "1"))
	assert.Equal(t, "/agendamentos/1", api.lastReq.URL.Path)
	assert.Len(t, api.records, 1)
}

func TestDeleteUnknownID(t *testing.T) {
	api := &fakeAPI{records: []model.RemoteRecord{{ID: "1"}}}
	c := newTestClient(t, api)

	err := c.Delete(context.Background(), "missing")
	var se *ServerError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Len(t, api.records, 1)
}

func TestDeleteEmptyID(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)
	err := c.Delete(context.Background(), "")

	var ne *NetworkError
	require.True(t, errors.As(err, &ne), "got %v", err)
	assert.Equal(t, "delete", ne.Op)
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestResponseBodyIsCapped(t *testing.T) {
	prev := maxResponseBody
	maxResponseBody = 64
	t.Cleanup(func() { maxResponseBody = prev })

	recs := make([]model.RemoteRecord, 10)
	for i := range recs {
		recs[i] = model.RemoteRecord{ID: fmt.Sprint(i), PlacaVeiculo: "ABC1234"}
	}
	c := newTestClient(t, &fakeAPI{records: recs})

	_, err := c.List(context.Background())
	var pe *ParseError
	assert.True(t, errors.As(err, &pe), "got %v", err)

	big := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer big.Close()

	_, err = NewClient(big.URL, 0).List(context.Background())
	var se *ServerError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Len(t, se.Body, 64)
}
