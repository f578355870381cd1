package targets

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bulkload/internal/bulk"
	"github.com/JonMunkholm/bulkload/internal/message"
	"github.com/JonMunkholm/bulkload/internal/record"
)

func TestRegistry(t *testing.T) {
	require.GreaterOrEqual(t, Count(), 2)

	def, ok := Get("cities")
	require.True(t, ok)
	require.Equal(t, []string{"id", "city"}, def.Info.Columns)
	require.Equal(t, "default", def.Profile)

	_, ok = Get("nope")
	require.False(t, ok)

	all := All()
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1].Info, all[i].Info
		require.True(t, prev.Group < cur.Group || (prev.Group == cur.Group && prev.Key < cur.Key),
			"targets out of order: %s/%s before %s/%s", prev.Group, prev.Key, cur.Group, cur.Key)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	require.Panics(t, func() {
		Register(Spec[City]{Info: Info{Key: "cities"}, Layout: CitiesLayout(), Form: CitiesForm()})
	})
}

func TestRegisterIncompletePanics(t *testing.T) {
	require.Panics(t, func() {
		Register(Spec[City]{Info: Info{Key: "broken"}})
	})
}

type batchRecorder struct {
	batches []*pgx.Batch
}

func (b *batchRecorder) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (b *batchRecorder) SendBatch(_ context.Context, batch *pgx.Batch) pgx.BatchResults {
	b.batches = append(b.batches, batch)
	return okResults{}
}

type okResults struct{}

func (okResults) Exec() (pgconn.CommandTag, error) { return pgconn.NewCommandTag("INSERT 0 1"), nil }
func (okResults) Query() (pgx.Rows, error)         { return nil, nil }
func (okResults) QueryRow() pgx.Row                { return nil }
func (okResults) Close() error                     { return nil }

func citySource(t *testing.T, input string) record.Source {
	t.Helper()
	def, _ := Get("cities")
	src, err := record.NewSource(strings.NewReader(input), int64(len(input)), def.Layout)
	require.NoError(t, err)
	return src
}

func TestCities_ImportPgx(t *testing.T) {
	def, _ := Get("cities")
	v, err := def.Validate(citySource(t, "1Tokyo,2osaka,3kyoto"), "cities.txt", RunOptions{})
	require.NoError(t, err)
	require.False(t, v.HasError())
	require.Equal(t, 3, v.ValidCount())

	db := &batchRecorder{}
	n, err := v.ImportPgx(context.Background(), db, bulk.WithBatchSize(2))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Len(t, db.batches, 2)
	require.Equal(t, []any{int64(1), "tokyo"}, db.batches[0].QueuedQueries[0].Arguments)
}

func TestCities_InvalidUpload(t *testing.T) {
	def, _ := Get("cities")
	v, err := def.Validate(citySource(t, "Ztokyo,2aa"), "cities.txt", RunOptions{})
	require.NoError(t, err)
	require.True(t, v.HasError())
	require.Equal(t, []string{
		"line 1: the record layout is invalid",
		"line 2: city must be at least 3 characters",
	}, message.Texts(v.ErrorMessages().All()))

	n, err := v.ImportPgx(context.Background(), &batchRecorder{})
	require.ErrorIs(t, err, bulk.ErrInvalidRecords)
	require.Zero(t, n)
}

func TestCities_EmptyUpload(t *testing.T) {
	def, _ := Get("cities")
	_, err := def.Validate(citySource(t, ""), "cities.txt", RunOptions{})
	require.ErrorIs(t, err, bulk.ErrEmptyInput)
	require.EqualError(t, err, "file cities.txt contains no records")
}

func TestCities_StrictProfile(t *testing.T) {
	def, _ := Get("cities")
	long := "1" + strings.Repeat("a", 41)
	v, err := def.Validate(citySource(t, long), "cities.txt", RunOptions{Profile: "strict"})
	require.NoError(t, err)
	require.Equal(t, []int{1}, v.ErrorMessages().Lines())

	v, err = def.Validate(citySource(t, long), "cities.txt", RunOptions{})
	require.NoError(t, err)
	require.False(t, v.HasError())
}

func TestStores_Validate(t *testing.T) {
	def, ok := Get("stores")
	require.True(t, ok)

	input := "store_code,name,state,opened_on,revenue,active\n" +
		"S01,Downtown,California,2021-04-01,\"$1,200.50\",yes\n" +
		"S02,Uptown,ZZ,someday,abc,maybe\n"
	src, err := record.NewSource(strings.NewReader(input), 0, def.Layout)
	require.NoError(t, err)

	v, err := def.Validate(src, "stores.csv", RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, v.ValidCount())
	require.Equal(t, []int{2}, v.ErrorMessages().Lines())

	msgs := message.Texts(v.ErrorMessages().Get(2))
	require.Len(t, msgs, 4)
	require.True(t, strings.HasPrefix(msgs[0], "line 2: State must be one of: AK, AL"))
	require.Equal(t, "line 2: Opened on must be a date (YYYY-MM-DD or similar)", msgs[1])
	require.Equal(t, "line 2: Revenue must be a number", msgs[2])
	require.Equal(t, "line 2: Active must be yes/no, true/false, or 1/0", msgs[3])
}

func TestNormalizeUSState(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"California", "CA"},
		{"  new york ", "NY"},
		{"tx", "TX"},
		{"Atlantis", "ATLANTIS"},
	}
	for _, tt := range tests {
		if got := NormalizeUSState(tt.in); got != tt.want {
			t.Errorf("NormalizeUSState(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
