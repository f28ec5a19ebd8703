package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"ai_creation_broker/store"
	"ai_creation_broker/store/mongo"
	"ai_creation_broker/store/storetest"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	n := 0
	storetest.Run(t, func(t *testing.T) store.Store {
		n++
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := mongo.Connect(ctx, uri, fmt.Sprintf("broker_test_%d_%d", time.Now().UnixNano(), n))
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		t.Cleanup(func() {
			_ = s.Drop(context.Background())
			_ = s.Close()
		})
		return s
	})
}
