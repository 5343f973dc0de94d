package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Order is the document shape inserted by the load run.
type Order struct {
	CustomerID string   `json:"customerId"`
	OrderDate  string   `json:"orderDate"`
	Total      float64  `json:"total"`
	Items      []string `json:"items"`
}

var itemPool = []string{"widget", "gadget", "sprocket", "gizmo", "doohickey", "thingamajig"}

func randomOrder() Order {
	items := make([]string, rand.Intn(3)+1)
	for i := range items {
		items[i] = itemPool[rand.Intn(len(itemPool))]
	}
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rand.Intn(240))
	return Order{
		CustomerID: fmt.Sprintf("c%04d", rand.Intn(500)),
		OrderDate:  day.Format("2006-01-02"),
		Total:      float64(rand.Intn(20000)) / 100,
		Items:      items,
	}
}

func postJSON(url string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return http.Post(url, "application/json", bytes.NewBuffer(body))
}

func insertOrder(baseURL string, order Order) error {
	resp, err := postJSON(baseURL+"/collections/orders", order)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

func createIndexes(baseURL string) error {
	shapes := []map[string]interface{}{
		{"fields": []map[string]interface{}{
			{"name": "customerId"},
			{"name": "orderDate", "desc": true},
		}},
		{"fields": []map[string]interface{}{{"name": "items"}}},
	}
	for _, shape := range shapes {
		resp, err := postJSON(baseURL+"/collections/orders/indexes", shape)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
			return fmt.Errorf("unexpected status code creating index: %d", resp.StatusCode)
		}
	}
	return nil
}

// showPlanAndCosts runs one representative query and dumps the plan plus
// the per-index write costs, so a load run doubles as a planner sanity
// check.
func showPlanAndCosts(baseURL string) {
	resp, err := postJSON(baseURL+"/collections/orders/explain", map[string]interface{}{
		"filter": map[string]interface{}{
			"customerId": map[string]interface{}{"eq": "c0001"},
		},
		"sort": []map[string]interface{}{{"name": "orderDate", "desc": true}},
	})
	if err == nil {
		plan, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		fmt.Printf("Plan for customer query: %s\n", strings.TrimSpace(string(plan)))
	}

	resp, err = http.Get(baseURL + "/collections/orders/write-costs")
	if err == nil {
		costs, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		fmt.Printf("Write costs: %s\n", strings.TrimSpace(string(costs)))
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run test_scripts/insert_orders_load.go <number_of_orders> [server_url]")
		fmt.Println("Example: go run test_scripts/insert_orders_load.go 1000")
		fmt.Println("Example: go run test_scripts/insert_orders_load.go 1000 http://localhost:8080")
		os.Exit(1)
	}

	numOrders, err := strconv.Atoi(os.Args[1])
	if err != nil || numOrders <= 0 {
		fmt.Printf("Error: Invalid number of orders '%s'. Please provide a positive integer.\n", os.Args[1])
		os.Exit(1)
	}

	serverURL := "http://localhost:8080"
	if len(os.Args) >= 3 {
		serverURL = os.Args[2]
	}

	if err := createIndexes(serverURL); err != nil {
		fmt.Printf("Error creating indexes: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting load test: inserting %d orders to %s\n", numOrders, serverURL)
	fmt.Println("Press Ctrl+C to stop early")

	startTime := time.Now()
	successCount := 0
	errorCount := 0
	reportInterval := max(1, numOrders/10)

	for i := 0; i < numOrders; i++ {
		if err := insertOrder(serverURL, randomOrder()); err != nil {
			errorCount++
			fmt.Printf("Error inserting order %d: %v\n", i+1, err)
		} else {
			successCount++
		}

		if (i+1)%reportInterval == 0 || i == numOrders-1 {
			elapsed := time.Since(startTime)
			rate := float64(i+1) / elapsed.Seconds()
			fmt.Printf("Progress: %d/%d orders (%.1f%%) - Rate: %.1f orders/sec - Success: %d, Errors: %d\n",
				i+1, numOrders, float64(i+1)/float64(numOrders)*100, rate, successCount, errorCount)
		}
	}

	totalTime := time.Since(startTime)

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("LOAD TEST COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total orders attempted: %d\n", numOrders)
	fmt.Printf("Successful inserts:     %d\n", successCount)
	fmt.Printf("Failed inserts:         %d\n", errorCount)
	fmt.Printf("Total time:             %v\n", totalTime)
	fmt.Printf("Average rate:           %.1f orders/sec\n", float64(numOrders)/totalTime.Seconds())

	showPlanAndCosts(serverURL)
}
