package interpret

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"complaintsync/internal/complaint"
	apperrors "complaintsync/internal/errors"
)

type mockModel struct {
	mock.Mock
}

func (m *mockModel) Generate(ctx context.Context, p Prompt) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

const rawDetail = `Order was delivered late
OPEN
Complaint ID: 1234567890
11:04 AM | Monday, Jul 22
Food arrived cold and late.
Order details
Good customer history`

func TestInterpret_AttachesOutletAndParses(t *testing.T) {
	m := new(mockModel)
	m.On("Generate", mock.Anything, mock.MatchedBy(func(p Prompt) bool {
		return p.Temperature == 0 && p.System == systemPrompt && p.User == "Raw Complaint Text:\n"+rawDetail
	})).Return("```json\n"+`{"Reason":"Order was delivered late","Status":"OPEN","Complaint ID":"1234567890","Timestamp":"11:04 AM | Monday, Jul 22","Description":"Food arrived cold and late.","Customer History":"Good customer history"}`+"\n```", nil).Once()

	interp := New(m, WithLogger(zap.NewNop()))
	rec, err := interp.Interpret(context.Background(), rawDetail, "19595894")
	require.NoError(t, err)

	assert.Equal(t, complaint.Record{
		OutletID:        "19595894",
		Reason:          "Order was delivered late",
		Status:          "OPEN",
		ComplaintID:     "1234567890",
		Timestamp:       "11:04 AM | Monday, Jul 22",
		Description:     "Food arrived cold and late.",
		CustomerHistory: "Good customer history",
	}, rec)
	m.AssertExpectations(t)
}

func TestInterpret_OutletOverridesModelValue(t *testing.T) {
	m := new(mockModel)
	m.On("Generate", mock.Anything, mock.Anything).
		Return(`{"Outlet ID":"bogus","Status":"open","Complaint ID":42}`, nil)

	rec, err := New(m).Interpret(context.Background(), "text", "57750")
	require.NoError(t, err)
	assert.Equal(t, "57750", rec.OutletID)
	assert.Equal(t, "OPEN", rec.Status)
	assert.Equal(t, "42", rec.ComplaintID)
}

func TestInterpret_Failures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"model error", "", errors.New("503 unavailable")},
		{"empty reply", "   ", nil},
		{"not json", "I could not find a complaint on this page.", nil},
		{"json array", `[{"Status":"OPEN"}]`, nil},
		{"truncated object", `{"Status":"OPEN",`, nil},
		{"object with trailing data", `{"Status":"OPEN","Complaint ID":"1"} trailing }`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mockModel)
			m.On("Generate", mock.Anything, mock.Anything).Return(tt.reply, tt.err).Once()

			_, err := New(m, WithLogger(zap.NewNop())).Interpret(context.Background(), rawDetail, "1")
			require.Error(t, err)
			assert.True(t, apperrors.IsInterpret(err))
			assert.False(t, apperrors.IsFatal(err))
			m.AssertNumberOfCalls(t, "Generate", 1)
		})
	}
}

func TestInterpret_EmptyTextSkipsModel(t *testing.T) {
	m := new(mockModel)

	_, err := New(m).Interpret(context.Background(), "  \n", "1")
	assert.True(t, apperrors.IsInterpret(err))
	m.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestInterpret_TimeoutAppliedToModelCall(t *testing.T) {
	m := new(mockModel)
	m.On("Generate", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(`{"Status":"OPEN"}`, nil).Once()

	_, err := New(m, WithTimeout(time.Second)).Interpret(context.Background(), "x", "1")
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestInterpret_RateLimitHonoursCancellation(t *testing.T) {
	m := new(mockModel)
	m.On("Generate", mock.Anything, mock.Anything).Return(`{"Status":"OPEN"}`, nil)

	interp := New(m, WithRateLimit(1))
	_, err := interp.Interpret(context.Background(), "x", "1")
	require.NoError(t, err)

	// The bucket is now empty and refills in a minute.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = interp.Interpret(ctx, "x", "1")
	assert.True(t, apperrors.IsInterpret(err))
	m.AssertNumberOfCalls(t, "Generate", 1)
}
