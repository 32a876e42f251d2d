package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CapIot.telemetry/internal/metrics"
	"CapIot.telemetry/internal/models"
	"github.com/go-resty/resty/v2"
)

const firebaseBackend = "firebase"

// firebaseError is the body the Realtime Database REST API sends on failure.
type firebaseError struct {
	Error string `json:"error"`
}

// FirebaseRepository reads snapshots through the Firebase Realtime Database
// REST API (GET <database>/<path>.json).
type FirebaseRepository struct {
	client    *resty.Client
	authToken string
}

// NewFirebaseRepository creates a FirebaseRepository. authToken is optional and
// sent as the auth query parameter; timeout 0 keeps the client default.
func NewFirebaseRepository(databaseURL, authToken string, timeout time.Duration) *FirebaseRepository {
	client := resty.New().
		SetBaseURL(strings.TrimRight(databaseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &FirebaseRepository{
		client:    client,
		authToken: authToken,
	}
}

// FetchSnapshot reads the tree stored at path.
func (r *FirebaseRepository) FetchSnapshot(ctx context.Context, path string) (*models.Snapshot, error) {
	start := time.Now()

	req := r.client.R().
		SetContext(ctx).
		SetError(&firebaseError{})
	if r.authToken != "" {
		req.SetQueryParam("auth", r.authToken)
	}

	resp, err := req.Get(restPath(path))
	if err != nil {
		metrics.ObserveStoreFetch(firebaseBackend, metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("error querying Firebase at %s: %w", path, err)
	}
	if resp.IsError() {
		metrics.ObserveStoreFetch(firebaseBackend, metrics.OutcomeError, time.Since(start))
		message := resp.Status()
		if fbErr, ok := resp.Error().(*firebaseError); ok && fbErr.Error != "" {
			message = fbErr.Error
		}
		return nil, fmt.Errorf("firebase returned %d for %s: %s", resp.StatusCode(), path, message)
	}

	body := resp.Body()
	if !json.Valid(body) {
		metrics.ObserveStoreFetch(firebaseBackend, metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("malformed snapshot from Firebase at %s", path)
	}

	snapshot := models.NewSnapshot(path, body)
	outcome := metrics.OutcomeOK
	if !snapshot.Exists() {
		outcome = metrics.OutcomeEmpty
	}
	metrics.ObserveStoreFetch(firebaseBackend, outcome, time.Since(start))
	return snapshot, nil
}

// restPath turns a database path into its REST resource, "/a/b" -> "/a/b.json".
func restPath(path string) string {
	return "/" + strings.Trim(path, "/") + ".json"
}
