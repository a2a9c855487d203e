package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisSink_AppendsToStream(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	sink := NewRedisSink(client, "test:audit")
	ctx := context.Background()

	uploadedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Append(ctx, DocumentUploaded{
		Owner:       "alice",
		ContentHash: "QmTestHash",
		Title:       "Deed",
		Tags:        "legal",
		UploadedAt:  uploadedAt,
	}))
	require.NoError(t, sink.Append(ctx, EmergencyStop{Owner: "admin", Stop: true}))

	msgs, err := client.XRange(ctx, "test:audit", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	require.Equal(t, string(KindDocumentUploaded), msgs[0].Values["kind"])
	var up DocumentUploaded
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["entry"].(string)), &up))
	require.Equal(t, "alice", up.Owner)
	require.Equal(t, "Deed", up.Title)
	require.True(t, up.UploadedAt.Equal(uploadedAt))

	require.Equal(t, string(KindEmergencyStop), msgs[1].Values["kind"])
	var es EmergencyStop
	require.NoError(t, json.Unmarshal([]byte(msgs[1].Values["entry"].(string)), &es))
	require.Equal(t, "admin", es.Owner)
	require.True(t, es.Stop)
}

func TestRedisSink_DefaultStream(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	sink := NewRedisSink(client, "")
	require.NoError(t, sink.Append(context.Background(), EmergencyStop{Owner: "admin", Stop: false}))

	n, err := client.XLen(context.Background(), DefaultStream).Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
