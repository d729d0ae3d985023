package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestFetchProductMissingConfig(t *testing.T) {
	c := NewClient(ClientOptions{}, noopLogger())
	if _, err := c.FetchProduct(context.Background(), "B00TEST000"); err == nil {
		t.Fatal("未配置 base url 时应报错")
	}

	c = NewClient(ClientOptions{BaseURL: "http://localhost"}, noopLogger())
	if _, err := c.FetchProduct(context.Background(), ""); err == nil {
		t.Fatal("缺少 ASIN 应报错")
	}
}

func TestFetchProductHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"errorType": "REQUEST_REJECTED", "description": "token quota exhausted"})
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{
		BaseURL:    srv.URL,
		APIKey:     "k",
		Timeout:    time.Second,
		UserAgent:  "test",
		RatePerSec: 100,
	}, noopLogger())

	if _, err := c.FetchProduct(context.Background(), "B00TEST000"); err == nil {
		t.Fatal("HTTP 429 应返回错误")
	}
}

func TestFetchProductSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("asin"); got != "B00TEST000" {
			t.Errorf("asin 参数错误: %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("缺少 Bearer 头: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"asin":  "B00TEST000",
			"title": "widget",
			"csv":   [][]float64{{0, 2000}},
			"offers": []map[string]any{
				{"sellerId": "555", "sellerName": "Acme", "offerCSV": []float64{0, 1950}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{
		BaseURL:    srv.URL,
		APIKey:     "k",
		Timeout:    time.Second,
		UserAgent:  "test",
		RatePerSec: 100,
	}, noopLogger())

	product, err := c.FetchProduct(context.Background(), "B00TEST000")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if product.Title != "widget" || len(product.CSV) != 1 {
		t.Fatalf("payload 解析错误: %+v", product)
	}
	if len(product.Offers) != 1 || product.Offers[0].SellerID != "555" {
		t.Fatalf("offers 解析错误: %+v", product.Offers)
	}
	if len(product.Offers[0].PriceCSV) != 2 {
		t.Fatalf("offerCSV 应映射到 PriceCSV: %+v", product.Offers[0])
	}
}
