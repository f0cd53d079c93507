package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Load generator for the purchase path. Creates a product with a known
// stock, fires concurrent unit purchases at it and checks that exactly
// stock-many succeed.
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	stock := flag.Int("stock", 20, "initial product stock")
	requests := flag.Int("requests", 50, "concurrent purchase requests")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	productID, err := createProduct(client, *baseURL, *stock)
	if err != nil {
		log.Fatalf("failed to create product: %v", err)
	}
	fmt.Printf("created product %s with stock %d\n", productID, *stock)

	var successCount atomic.Int32
	var conflictCount atomic.Int32
	var errorCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			status, err := purchase(client, *baseURL, productID)
			switch {
			case err != nil:
				errorCount.Add(1)
			case status == http.StatusCreated:
				successCount.Add(1)
			case status == http.StatusConflict:
				conflictCount.Add(1)
			default:
				errorCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	conflict := conflictCount.Load()
	failed := errorCount.Load()

	fmt.Println("============ LOAD TEST RESULTS ============")
	fmt.Printf("Initial Stock:    %d\n", *stock)
	fmt.Printf("Total Requests:   %d\n", *requests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Out of stock:     %d\n", conflict)
	fmt.Printf("Errors:           %d\n", failed)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("===========================================")

	want := int32(*stock)
	if *requests < *stock {
		want = int32(*requests)
	}
	if success == want && failed == 0 {
		fmt.Printf("PASS: exactly %d orders succeeded\n", want)
	} else {
		fmt.Printf("FAIL: expected %d successes, got %d (%d errors)\n", want, success, failed)
	}

	finalStock, err := getStock(client, *baseURL, productID)
	if err != nil {
		log.Fatalf("failed to read product: %v", err)
	}
	fmt.Printf("Final stock: %d\n", finalStock)
	if finalStock == *stock-int(success) {
		fmt.Println("PASS: stock accounts for every successful order")
	} else {
		fmt.Printf("FAIL: expected stock %d, got %d\n", *stock-int(success), finalStock)
	}
}

func createProduct(client *http.Client, baseURL string, stock int) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"name":  fmt.Sprintf("loadgen-%d", time.Now().UnixNano()),
		"price": 9.99,
		"stock": stock,
	})
	resp, err := client.Post(baseURL+"/api/products", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func purchase(client *http.Client, baseURL, productID string) (int, error) {
	body, _ := json.Marshal(map[string]any{
		"product_id": productID,
		"quantity":   1,
	})
	resp, err := client.Post(baseURL+"/api/orders", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func getStock(client *http.Client, baseURL, productID string) (int, error) {
	resp, err := client.Get(baseURL + "/api/products/" + productID)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var product struct {
		Stock int `json:"stock"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return 0, err
	}
	return product.Stock, nil
}
