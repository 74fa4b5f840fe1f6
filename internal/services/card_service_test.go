package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ktcapester/glimpse-sub000/internal/config"
	"github.com/ktcapester/glimpse-sub000/internal/models"
	"github.com/ktcapester/glimpse-sub000/internal/scryfall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScryfall(t *testing.T, mux *http.ServeMux) *scryfall.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	cfg := &config.Config{Scryfall: config.ScryfallConfig{BaseURL: srv.URL}}
	return scryfall.NewClient(cfg, scryfall.NewLimiter(0))
}

func TestPriceCard_CacheHit(t *testing.T) {
	_, rdb := newTestRedis(t)
	cached := models.Card{ID: uuid.New(), Name: "Lightning Bolt", USD: 2.5}
	data, _ := json.Marshal(cached)
	require.NoError(t, rdb.Set(context.Background(), CacheKeyCardPrefix+"lightning bolt", data, time.Hour).Err())

	svc := NewCardService(nil, rdb, nil, time.Hour)

	card, err := svc.PriceCard(context.Background(), "  Lightning   BOLT ")
	require.NoError(t, err)
	assert.Equal(t, cached.ID, card.ID)
	assert.Equal(t, 2.5, card.USD)
}

func TestPriceCard_EmptyName(t *testing.T) {
	svc := NewCardService(nil, nil, nil, 0)
	_, err := svc.PriceCard(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrEmptyName))
	assert.Equal(t, DefaultCardCacheTTL, svc.CacheTTL)
}

func TestPriceCard_MissAggregatesAndPersists(t *testing.T) {
	mr, rdb := newTestRedis(t)
	db, mock := newMockDB(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/cards/named", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bolt", r.URL.Query().Get("fuzzy"))
		_, _ = w.Write([]byte(`{"id":"p1","name":"Lightning Bolt","prices":{}}`))
	})
	mux.HandleFunc("/cards/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"list","has_more":false,"data":[
			{"id":"p1","name":"Lightning Bolt","set":"2xm","image_uris":{"normal":"https://img/bolt.jpg"},"prices":{"usd":"1.00","usd_foil":"8.00","eur":null}},
			{"id":"p2","name":"Lightning Bolt","set":"m11","prices":{"usd":"2.00","usd_foil":"6.00"}},
			{"id":"p3","name":"Lightning Bolt","set":"m10","prices":{"usd":"3.00"}},
			{"id":"p4","name":"Lightning Bolt","set":"lea","prices":{"usd":"100.00","eur":"bad"}}
		]}`))
	})

	storedID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "cards"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "cards" WHERE name = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "image_url", "printing_count", "usd", "usd_foil", "eur"}).
			AddRow(storedID.String(), "Lightning Bolt", "https://img/bolt.jpg", 4, 2.5, 6.0, 0.0))

	svc := NewCardService(db, rdb, newTestScryfall(t, mux), time.Hour)

	card, err := svc.PriceCard(context.Background(), "bolt")
	require.NoError(t, err)
	assert.Equal(t, storedID, card.ID)
	assert.Equal(t, 2.5, card.USD)
	assert.Equal(t, 4, card.PrintingCount)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.False(t, mr.Exists(CacheKeyCardPrefix+"bolt"))
	assert.True(t, mr.Exists(CacheKeyCardPrefix+"lightning bolt"))
	alias, err := mr.Get(CacheKeyCardAliasPrefix + "bolt")
	require.NoError(t, err)
	assert.Equal(t, "lightning bolt", alias)
}

func TestPriceCard_AliasSeesRefreshedPrices(t *testing.T) {
	_, rdb := newTestRedis(t)
	db, mock := newMockDB(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/cards/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"p1","name":"Lightning Bolt","prices":{"usd":"4.00"}}]}`))
	})

	id := uuid.New()
	stale := models.Card{ID: id, Name: "Lightning Bolt", USD: 2.5}
	data, _ := json.Marshal(stale)
	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, CacheKeyCardPrefix+"lightning bolt", data, time.Hour).Err())
	require.NoError(t, rdb.Set(ctx, CacheKeyCardAliasPrefix+"bolt", "lightning bolt", time.Hour).Err())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "cards"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "cards" WHERE name = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "usd"}).AddRow(id.String(), "Lightning Bolt", 4.0))

	svc := NewCardService(db, rdb, newTestScryfall(t, mux), time.Hour)

	before, err := svc.PriceCard(ctx, "bolt")
	require.NoError(t, err)
	assert.Equal(t, 2.5, before.USD)

	_, err = svc.RefreshCard(ctx, "Lightning Bolt")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	after, err := svc.PriceCard(ctx, "bolt")
	require.NoError(t, err)
	assert.Equal(t, 4.0, after.USD)
}

func TestPriceCard_NotFound(t *testing.T) {
	_, rdb := newTestRedis(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/cards/named", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	svc := NewCardService(nil, rdb, newTestScryfall(t, mux), time.Hour)

	_, err := svc.PriceCard(context.Background(), "Storm Crow Deluxe")
	assert.True(t, errors.Is(err, ErrCardNotFound))
}

func TestBuildCard(t *testing.T) {
	usd := func(s string) map[string]*string { return map[string]*string{"usd": &s} }
	card := buildCard([]scryfall.Card{
		{ID: "a", Name: "Counterspell", TypeLine: "Instant", Prices: usd("1.20")},
		{ID: "b", Name: "Counterspell", Prices: usd("0.80")},
	})

	assert.Equal(t, "Counterspell", card.Name)
	assert.Equal(t, "Instant", card.TypeLine)
	assert.Equal(t, 2, card.PrintingCount)
	assert.Equal(t, 0.8, card.USD)
	assert.Equal(t, 0.0, card.EURFoil)
}

func TestAutocomplete_Cached(t *testing.T) {
	_, rdb := newTestRedis(t)
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/cards/autocomplete", func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"object":"catalog","data":["Sol Ring","Soltari Priest"]}`))
	})

	svc := NewCardService(nil, rdb, newTestScryfall(t, mux), time.Hour)

	for i := 0; i < 2; i++ {
		names, err := svc.Autocomplete(context.Background(), "Sol")
		require.NoError(t, err)
		assert.Equal(t, []string{"Sol Ring", "Soltari Priest"}, names)
	}
	assert.Equal(t, 1, calls)
}

func TestRefreshStale_PublishesUpdates(t *testing.T) {
	_, rdb := newTestRedis(t)
	db, mock := newMockDB(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/cards/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"p1","name":"Opt","prices":{"usd":"0.10"}}]}`))
	})

	id := uuid.New()
	mock.ExpectQuery(`SELECT "name" FROM "cards" WHERE updated_at < \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Opt"))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "cards"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "cards" WHERE name = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "usd"}).AddRow(id.String(), "Opt", 0.1))

	sub := rdb.Subscribe(context.Background(), CardUpdateChannel)
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	svc := NewCardService(db, rdb, newTestScryfall(t, mux), time.Hour)
	n, err := svc.RefreshStale(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())

	msg, err := sub.ReceiveMessage(context.Background())
	require.NoError(t, err)

	var update CardUpdate
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &update))
	assert.Equal(t, id, update.CardID)
	assert.Equal(t, 0.1, update.Prices["usd"])
}
