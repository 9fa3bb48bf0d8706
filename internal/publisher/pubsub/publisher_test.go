package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/termdex/internal/catalog"
)

func TestPublishWritesJSON(t *testing.T) {
	ctx := context.Background()

	// Create a fake Pub/Sub server.
	srv := pstest.NewServer()
	defer func() { _ = srv.Close() }()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	client, err := pubsub.NewClient(ctx, "project-id", option.WithGRPCConn(conn))
	require.NoError(t, err)

	_, err = client.CreateTopic(ctx, "termdex-runs")
	require.NoError(t, err)

	pub := New(client)
	defer func() { _ = pub.Close() }()

	report := catalog.RunReport{Requested: 151, Succeeded: 150, Failed: 1, FailedIDs: []int{42}, Committed: true}
	id, err := pub.Publish(ctx, "termdex-runs", report)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "application/json", msgs[0].Attributes["content_type"])

	var got catalog.RunReport
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, 150, got.Succeeded)
	assert.Equal(t, []int{42}, got.FailedIDs)
}

func TestPublishValidates(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Publish(context.Background(), "t", "x")
	require.Error(t, err)

	_, err = NewFromProject(context.Background(), "")
	require.Error(t, err)
}
