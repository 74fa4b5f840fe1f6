package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ktcapester/glimpse-sub000/internal/models"
	"github.com/ktcapester/glimpse-sub000/internal/services"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// withUser stands in for middleware.Protected
func withUser(id uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", id)
		return c.Next()
	}
}

func TestGetList_Unauthorized(t *testing.T) {
	handler := NewListHandler(nil)
	app := fiber.New()
	app.Get("/api/v1/list", handler.GetList)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/list", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
}

func TestGetList_UnknownChannel(t *testing.T) {
	handler := NewListHandler(nil)
	app := fiber.New()
	app.Get("/api/v1/list", withUser(uuid.New()), handler.GetList)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/list?channel=tix", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
}

func TestUpdateItem_InvalidID(t *testing.T) {
	handler := NewListHandler(nil)
	app := fiber.New()
	app.Patch("/api/v1/list/:item_id", withUser(uuid.New()), handler.UpdateItem)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/list/abc", strings.NewReader(`{"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
}

func TestAddItem_BadQuantity(t *testing.T) {
	handler := NewListHandler(services.NewListService(nil, nil))
	app := fiber.New()
	app.Post("/api/v1/list", withUser(uuid.New()), handler.AddItem)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/list", strings.NewReader(`{"name":"Opt","quantity":-3}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}
}

func TestAddItem_StorageFailureIsServerError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm: %v", err)
	}
	mock.ExpectQuery(`SELECT \* FROM "list_items"`).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "idx_list_items_user_card"`))

	redisClient := newRedis(t)
	card := models.Card{ID: uuid.New(), Name: "Opt", USD: 0.1}
	data, _ := json.Marshal(card)
	if err := redisClient.Set(context.Background(), services.CacheKeyCardPrefix+"opt", data, time.Hour).Err(); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	cards := services.NewCardService(nil, redisClient, nil, time.Hour)
	handler := NewListHandler(services.NewListService(db, cards))
	app := fiber.New()
	app.Post("/api/v1/list", withUser(uuid.New()), handler.AddItem)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/list", strings.NewReader(`{"name":"Opt","quantity":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != "Failed to update list" {
		t.Fatalf("unexpected error message: %q", body["error"])
	}
}
