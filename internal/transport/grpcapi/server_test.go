package grpcapi

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/xtding233/gacha-simulator/internal/catalog"
	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/service"
	"github.com/xtding233/gacha-simulator/internal/token"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cat := catalog.New(nil)
	_, err := cat.Load(catalog.Document{Pools: []catalog.Pool{
		{
			PoolID: "standard", Name: "Standard",
			Cards: []catalog.Card{
				{CardID: "S1", Name: "Aurora", Rarity: gacha.RaritySSR},
				{CardID: "A1", Name: "Cinder", Rarity: gacha.RaritySR},
				{CardID: "B1", Name: "Dusk", Rarity: gacha.RarityR},
			},
		},
		{
			PoolID: "fire", Name: "Fire", PoolType: catalog.PoolEvent, FeaturedSSR: []string{"F1"},
			Cards: []catalog.Card{
				{CardID: "F1", Name: "Ember Queen", Rarity: gacha.RaritySSR, IsFeatured: true},
				{CardID: "F2", Name: "Ash", Rarity: gacha.RarityR},
				{CardID: "F3", Name: "Spark", Rarity: gacha.RaritySR},
			},
		},
	}})
	require.NoError(t, err)
	svc, err := service.New(cat, service.Options{
		RNG:    gacha.NewSeededRNG(11),
		Tokens: token.Token{PerDraw: 160, PerTenDraw: 1600},
	})
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	gs := NewServer(svc, Options{AutoReset: true, MaxSinglePull: 300, MaxReturnResults: 25, MaxHistory: 40}).NewGRPCServer()
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestGetPools(t *testing.T) {
	c := newTestClient(t)
	out, err := c.Call(context.Background(), "GetPools", nil)
	require.NoError(t, err)
	assert.Len(t, out["pools"], 2)
	assert.Equal(t, "standard", out["default_pool_id"])
}

func TestSessionFlow(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	out, err := c.Call(ctx, "PullSingle", map[string]any{})
	require.NoError(t, err)
	id, _ := out["session_id"].(string)
	require.NotEmpty(t, id)
	assert.EqualValues(t, 160, out["tokens_spent"])

	out, err = c.Call(ctx, "PullMulti", map[string]any{"session_id": id, "count": 299})
	require.NoError(t, err)
	assert.EqualValues(t, 299, out["count"])
	assert.Len(t, out["results"], 25)
	assert.Equal(t, true, out["truncated"])
	stats := out["stats"].(map[string]any)
	assert.EqualValues(t, 300, stats["total_pulls"])
	assert.EqualValues(t, 300, stats["ssr_count"].(float64)+stats["sr_count"].(float64)+stats["r_count"].(float64))

	out, err = c.Call(ctx, "GetHistory", map[string]any{"session_id": id, "limit": 5})
	require.NoError(t, err)
	hist := out["history"].([]any)
	require.Len(t, hist, 5)
	assert.EqualValues(t, 300, hist[4].(map[string]any)["pull_number"])

	out, err = c.Call(ctx, "GetHistory", map[string]any{"session_id": id})
	require.NoError(t, err)
	assert.Len(t, out["history"], 40)

	out, err = c.Call(ctx, "Export", map[string]any{"session_id": id})
	require.NoError(t, err)
	assert.Contains(t, out["data"], "[Gacha Pull Export]")

	_, err = c.Call(ctx, "Reset", map[string]any{"session_id": id})
	require.NoError(t, err)
	out, err = c.Call(ctx, "GetStats", map[string]any{"session_id": id})
	require.NoError(t, err)
	assert.EqualValues(t, 0, out["stats"].(map[string]any)["total_pulls"])
}

func TestPoolSelection(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	out, err := c.Call(ctx, "SetPool", map[string]any{"session_id": "p1", "pool_id": "fire"})
	require.NoError(t, err)
	assert.Equal(t, "fire", out["pool"].(map[string]any)["pool_id"])

	out, err = c.Call(ctx, "GetStats", map[string]any{"session_id": "p1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"F1": float64(0)}, out["stats"].(map[string]any)["featured_ssr_counts"])

	out, err = c.Call(ctx, "GetCurrentPool", map[string]any{"session_id": "p1"})
	require.NoError(t, err)
	assert.Equal(t, "fire", out["pool"].(map[string]any)["pool_id"])

	_, err = c.Call(ctx, "SetPool", map[string]any{"session_id": "p1", "pool_id": "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.Call(ctx, "SetPool", map[string]any{"session_id": "p1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	out, err = c.Call(ctx, "PullSingle", map[string]any{"session_id": "p2", "pool_id": "fire"})
	require.NoError(t, err)
	assert.Equal(t, "p2", out["session_id"])
	card := out["result"].(map[string]any)["card"].(map[string]any)
	assert.Contains(t, []any{"F1", "F2", "F3"}, card["card_id"])
}

func TestInvalidArguments(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Call(ctx, "PullMulti", map[string]any{"count": "many"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, "GetHistory", map[string]any{"limit": -2})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	out, err := c.Call(ctx, "PullMulti", map[string]any{"count": 0})
	require.NoError(t, err)
	assert.EqualValues(t, 1, out["count"])
}
