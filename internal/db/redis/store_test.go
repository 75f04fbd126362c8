package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/shoppilot/prosearch/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestContainsIgnoreCase(t *testing.T) {
	tests := []struct {
		s, sub string
		want   bool
	}{
		{"Index Already Exists", "index already exists", true},
		{"UNKNOWN INDEX NAME", "unknown index name", true},
		{"hello world", "world", true},
		{"short", "longer than input", false},
		{"exact", "exact", true},
		{"", "", true},
		{"notempty", "", true},
	}
	for _, tc := range tests {
		got := containsIgnoreCase(tc.s, tc.sub)
		if got != tc.want {
			t.Errorf("containsIgnoreCase(%q, %q) = %v, want %v", tc.s, tc.sub, got, tc.want)
		}
	}
}

// --- kv.go tests ---

func TestGet_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisBlobString("v")))

	s := NewStoreForTest(c)
	if err := s.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET" && cmd[1] == "k" && cmd[2] == "v" && cmd[3] == "EX"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), 60*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- index.go tests ---

func TestBuildCreateArgs(t *testing.T) {
	args, err := buildCreateArgs(&db.IndexDefinition{
		Name:      "products",
		Prefix:    "prosearch:vec:",
		Dimension: 1536,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"products", "ON", "HASH", "PREFIX", "1", "prosearch:vec:",
		"SCHEMA", db.VectorField, "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32", "DIM", "1536", "DISTANCE_METRIC", "COSINE",
	}
	if len(args) != len(want) {
		t.Fatalf("args = %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	cases := []*db.IndexDefinition{
		{Prefix: "p:", Dimension: 2},
		{Name: "n", Dimension: 2},
		{Name: "n", Prefix: "p:", Dimension: 0},
	}
	for i, def := range cases {
		if _, err := buildCreateArgs(def); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE" && cmd[1] == "products"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	err := s.CreateIndex(context.Background(), &db.IndexDefinition{
		Name: "products", Prefix: "p:", Dimension: 4,
	})
	if !errors.Is(err, db.ErrIndexExists) {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "absent")).
		Return(mock.Result(mock.RedisError("Unknown index name")))

	s := NewStoreForTest(c)
	ok, err := s.IndexExists(context.Background(), "absent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("absent index reported as existing")
	}
}

// --- vectors.go tests ---

func TestUpsertVectors_BuildsHSETPerItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "p:a"
		}), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "p:b"
		})).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(1)),
			mock.Result(mock.RedisInt64(1)),
		})

	s := NewStoreForTest(c)
	err := s.UpsertVectors(context.Background(), []db.VectorItem{
		{Key: "p:a", Vector: []float32{1, 0}},
		{Key: "p:b", Vector: []float32{0, 1}, Meta: map[string]string{"name": "B"}},
	})
	if err != nil {
		t.Fatalf("UpsertVectors: %v", err)
	}
}

func TestUpsertVectors_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	if err := s.UpsertVectors(context.Background(), nil); err != nil {
		t.Fatalf("empty upsert must be a no-op: %v", err)
	}
}

func TestVectorToBytes_LittleEndianFloat32(t *testing.T) {
	got := vectorToBytes([]float32{1})
	// 1.0 as little-endian float32 bits.
	want := string([]byte{0x00, 0x00, 0x80, 0x3f})
	if got != want {
		t.Errorf("vectorToBytes = %x, want %x", got, want)
	}
	if len(vectorToBytes([]float32{1, 2, 3})) != 12 {
		t.Error("expected 4 bytes per component")
	}
}

func TestDistanceToSimilarity(t *testing.T) {
	cases := []struct {
		dist, want float64
	}{
		{0, 1},
		{1, 0},
		{0.25, 0.75},
		{1.8, 0},  // clamp below
		{-0.5, 1}, // clamp above
	}
	for _, tc := range cases {
		if got := distanceToSimilarity(tc.dist); got != tc.want {
			t.Errorf("distanceToSimilarity(%g) = %g, want %g", tc.dist, got, tc.want)
		}
	}
}

func TestSearchKNN_ValidatesArguments(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := NewStoreForTest(mock.NewClient(ctrl))
	ctx := context.Background()

	if _, err := s.SearchKNN(ctx, "", []float32{1}, 3); err == nil {
		t.Error("expected error for empty index name")
	}
	if _, err := s.SearchKNN(ctx, "ix", nil, 3); err == nil {
		t.Error("expected error for empty vector")
	}
	if _, err := s.SearchKNN(ctx, "ix", []float32{1}, 0); err == nil {
		t.Error("expected error for non-positive k")
	}
}

func TestSearchKNN_ParsesReply(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "products"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("p:a"),
			mock.RedisArray(
				mock.RedisString("__"+db.VectorField+"_score"),
				mock.RedisString("0.1"),
			),
			mock.RedisString("p:b"),
			mock.RedisArray(
				mock.RedisString("__"+db.VectorField+"_score"),
				mock.RedisString("0.4"),
			),
		)))

	s := NewStoreForTest(c)
	neighbors, err := s.SearchKNN(context.Background(), "products", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(neighbors))
	}
	if neighbors[0].Key != "p:a" || neighbors[0].Similarity != 0.9 {
		t.Errorf("neighbor 0 = %+v", neighbors[0])
	}
	if neighbors[1].Key != "p:b" || neighbors[1].Similarity != 0.6 {
		t.Errorf("neighbor 1 = %+v", neighbors[1])
	}
}

func TestSearchKNN_EmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH"
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	neighbors, err := s.SearchKNN(context.Background(), "products", []float32{1}, 5)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if len(neighbors) != 0 {
		t.Errorf("got %d neighbors, want 0", len(neighbors))
	}
}
