package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"go-priceledger/internal/model"
	"go-priceledger/internal/repository"
	"go-priceledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) *fiber.App {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Product{}, &model.PriceHistoryEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := service.NewProductLedgerService(repository.NewProductRepo(db), nil)
	h := NewProductHandler(svc)

	app := fiber.New()
	app.Get("/products", h.GetProducts)
	app.Post("/products", h.CreateProduct)
	app.Patch("/products/:id/prices", h.UpdatePrices)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp.StatusCode, parsed
}

func TestCreateProductEndpoint(t *testing.T) {
	app := setupTestApp(t)

	status, body := doJSON(t, app, "POST", "/products",
		`{"name":"Test Laddu","sell_price":"500.00","initial_cost_price":"300.00"}`)
	require.Equal(t, 201, status)

	data := body["data"].(map[string]interface{})
	require.Equal(t, "Test Laddu", data["name"])
	require.Equal(t, "300", data["current_cost_price"])
	require.Equal(t, "200", data["margin"])
}

func TestCreateProductValidationFailure(t *testing.T) {
	app := setupTestApp(t)

	status, body := doJSON(t, app, "POST", "/products",
		`{"name":"Bad Laddu","sell_price":"-5"}`)
	require.Equal(t, 422, status)
	require.Equal(t, "sell_price", body["field"])
}

func TestUpdatePricesUnknownProductIs404(t *testing.T) {
	app := setupTestApp(t)

	status, _ := doJSON(t, app, "PATCH", "/products/"+uuid.NewString()+"/prices",
		`{"new_cost_price":"10"}`)
	require.Equal(t, 404, status)
}

func TestUpdatePricesBadIDIs400(t *testing.T) {
	app := setupTestApp(t)

	status, _ := doJSON(t, app, "PATCH", "/products/not-a-uuid/prices", `{}`)
	require.Equal(t, 400, status)
}
