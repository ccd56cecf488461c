package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"study/internal/remote"
)

// Backend API endpoints
const (
	collectionsEndpoint = "/api/collections"
)

// Collection schema for the backend
type Collection struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Fields  []Field  `json:"fields"`
	Indexes []string `json:"indexes"`
}

// Field represents a schema field in the backend
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Options  any    `json:"options,omitempty"`
}

// CollectionListResponse represents the response when listing collections
type CollectionListResponse struct {
	Page       int          `json:"page"`
	PerPage    int          `json:"perPage"`
	TotalItems int          `json:"totalItems"`
	Items      []Collection `json:"items"`
}

func main() {
	// Initialize the backend client
	client, err := remote.NewClient()
	if err != nil {
		log.Fatal("Failed to initialize backend client", "error", err)
	}
	log.Info("Authentication successful")

	exists, err := collectionExists(client, "study_events")
	if err != nil {
		log.Fatal("Failed to check if collection exists", "error", err)
	}

	if exists {
		log.Info("Collection 'study_events' already exists")
		return
	}

	if err := createEventsCollection(client); err != nil {
		log.Fatal("Failed to create study_events collection", "error", err)
	}
	log.Info("Collection 'study_events' created successfully")
}

// collectionExists checks if a collection with the given name exists
func collectionExists(client *remote.Client, name string) (bool, error) {
	req, err := http.NewRequest("GET", client.BaseURL+collectionsEndpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := client.DoRequest(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp remote.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return false, fmt.Errorf("failed to list collections with status %d: %s", resp.StatusCode, string(body))
		}
		return false, fmt.Errorf("failed to list collections: %s", errResp.Message)
	}

	var listResp CollectionListResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return false, err
	}

	for _, collection := range listResp.Items {
		if collection.Name == name {
			return true, nil
		}
	}

	return false, nil
}

func createEventsCollection(client *remote.Client) error {
	collection := Collection{
		Name: "study_events",
		Type: "base",
		Fields: []Field{
			{Name: "user", Type: "text", Required: true},
			{Name: "kind", Type: "text", Required: true},
			{Name: "date", Type: "text", Required: true},
			{
				Name:     "timestamp",
				Type:     "date",
				Required: true,
				Options: map[string]interface{}{
					"min": nil,
					"max": nil,
				},
			},
			{
				Name:     "seconds",
				Type:     "number",
				Required: false,
				Options: map[string]interface{}{
					"min": 0,
					"max": nil,
				},
			},
		},
		Indexes: []string{"CREATE INDEX `user_date_index` ON `study_events` (`user`, `date`)"},
	}

	jsonData, err := json.Marshal(collection)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", client.BaseURL+collectionsEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.DoRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp remote.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return fmt.Errorf("failed to create collection with status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("failed to create collection: %s", errResp.Message)
	}

	return nil
}
