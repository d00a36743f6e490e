package handlers

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/reelboard/reelboard/internal/models"
	"github.com/reelboard/reelboard/internal/store"
)

func TestIndexTaskLogsIndexingFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// A client pointed at a closed port fails fast without retries.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	h := NewHandler(nil, store.NewRedisStoreWithClient(client), nil, nil, logger)

	task := &models.Task{ID: uuid.New(), Title: "Cut Intro"}
	h.indexTask(httptest.NewRequest("POST", "/tasks", nil), task)

	out := buf.String()
	if !strings.Contains(out, "search indexing failed") {
		t.Fatalf("expected indexing failure warning, got %q", out)
	}
	if !strings.Contains(out, task.ID.String()) {
		t.Fatalf("warning should name the task, got %q", out)
	}
}

func TestIndexTaskWithoutRedisIsNoOp(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(nil, nil, nil, nil, zerolog.New(&buf))

	h.indexTask(httptest.NewRequest("POST", "/tasks", nil), &models.Task{ID: uuid.New(), Title: "Cut Intro"})

	if buf.Len() != 0 {
		t.Fatalf("expected no log output, got %q", buf.String())
	}
}
