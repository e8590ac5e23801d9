package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"aurorawatch/internal/types"
)

// mockDBTX is a testify mock of the DBTX interface.
type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// stateMockRows implements pgx.Rows over canned alert state records.
type stateMockRows struct {
	data   []types.AlertState
	idx    int
	closed bool
	errVal error
}

func newStateMockRows(data []types.AlertState) *stateMockRows {
	return &stateMockRows{data: data, idx: -1}
}

func (r *stateMockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *stateMockRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	*dest[0].(*string) = row.ChannelID
	*dest[1].(**time.Time) = row.LastFiredAt
	*dest[2].(**time.Time) = row.LastNotifiedPeakAt
	return nil
}

func (r *stateMockRows) Close()                                        { r.closed = true }
func (r *stateMockRows) Err() error                                    { return r.errVal }
func (r *stateMockRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (r *stateMockRows) FieldDescriptions() []pgconn.FieldDescription  { return nil }
func (r *stateMockRows) RawValues() [][]byte                           { return nil }
func (r *stateMockRows) Values() ([]any, error)                        { return nil, nil }
func (r *stateMockRows) Conn() *pgx.Conn                               { return nil }

func TestPostgresStore_Load_ReturnsAllChannels(t *testing.T) {
	db := new(mockDBTX)
	ctx := context.Background()

	fired := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	peak := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	rows := newStateMockRows([]types.AlertState{
		{ChannelID: "immediate", LastFiredAt: &fired},
		{ChannelID: "forecast", LastFiredAt: &fired, LastNotifiedPeakAt: &peak},
	})
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	records, err := NewPostgresStore(db).Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records["forecast"].LastNotifiedPeakAt)
	require.True(t, records["forecast"].LastNotifiedPeakAt.Equal(peak))
	db.AssertExpectations(t)
}

func TestPostgresStore_Load_QueryError(t *testing.T) {
	db := new(mockDBTX)
	ctx := context.Background()
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := NewPostgresStore(db).Load(ctx)
	require.Error(t, err)
	require.Equal(t, types.ErrCodeStateLoad, types.CodeOf(err))
}

func TestPostgresStore_Commit_Success(t *testing.T) {
	db := new(mockDBTX)
	ctx := context.Background()

	fired := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	prev := types.AlertState{ChannelID: "immediate"}
	next := types.AlertState{ChannelID: "immediate", LastFiredAt: &fired}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	require.NoError(t, NewPostgresStore(db).Commit(ctx, prev, next))
	db.AssertExpectations(t)
}

func TestPostgresStore_Commit_CASArguments(t *testing.T) {
	db := new(mockDBTX)
	ctx := context.Background()

	prevFired := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	nextFired := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	prev := types.AlertState{ChannelID: "immediate", LastFiredAt: &prevFired}
	next := types.AlertState{ChannelID: "immediate", LastFiredAt: &nextFired}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		// $1..$3 carry the new record, $4..$5 the compare-and-swap
		// expectation from the previously loaded record.
		return len(args) == 5 &&
			args[0] == "immediate" &&
			args[1].(*time.Time).Equal(nextFired) &&
			args[3].(*time.Time).Equal(prevFired)
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	require.NoError(t, NewPostgresStore(db).Commit(ctx, prev, next))
	db.AssertExpectations(t)
}

func TestPostgresStore_Commit_ZeroRowsAffected_Conflict(t *testing.T) {
	db := new(mockDBTX)
	ctx := context.Background()

	fired := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := NewPostgresStore(db).Commit(ctx,
		types.AlertState{ChannelID: "forecast"},
		types.AlertState{ChannelID: "forecast", LastFiredAt: &fired})
	require.Error(t, err)
	require.Equal(t, types.ErrCodeStateConflict, types.CodeOf(err))
}

func TestPostgresStore_Commit_ExecError(t *testing.T) {
	db := new(mockDBTX)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("deadlock detected"))

	err := NewPostgresStore(db).Commit(ctx,
		types.AlertState{ChannelID: "forecast"},
		types.AlertState{ChannelID: "forecast"})
	require.Error(t, err)
	require.Equal(t, types.ErrCodeStatePersist, types.CodeOf(err))
}
