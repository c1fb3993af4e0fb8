package cli_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"leopards-connector/internal/cli"
	"leopards-connector/internal/features/shipments/domain"
	"leopards-connector/internal/features/shipments/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockCourier is a testify mock of ports.Courier.
type mockCourier struct {
	mock.Mock
}

func (m *mockCourier) GetTariff(ctx context.Context, req domain.TariffRequest) (domain.Tariff, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Tariff), args.Error(1)
}

func (m *mockCourier) BookPacket(ctx context.Context, booking domain.PacketBooking) (*domain.BookingResult, error) {
	args := m.Called(ctx, booking)
	res, _ := args.Get(0).(*domain.BookingResult)
	return res, args.Error(1)
}

func (m *mockCourier) CancelPackets(ctx context.Context, cn string) error {
	return m.Called(ctx, cn).Error(0)
}

func (m *mockCourier) TrackPackets(ctx context.Context, cn string) (*domain.TrackResult, error) {
	args := m.Called(ctx, cn)
	res, _ := args.Get(0).(*domain.TrackResult)
	return res, args.Error(1)
}

func (m *mockCourier) DownloadLabel(ctx context.Context, link string) (*domain.Label, error) {
	args := m.Called(ctx, link)
	label, _ := args.Get(0).(*domain.Label)
	return label, args.Error(1)
}

func run(t *testing.T, courier *mockCourier, args ...string) (string, error) {
	t.Helper()
	load := func(string) (*cli.Env, error) {
		return &cli.Env{
			Courier: courier,
			Quotes:  service.NewQuoteService(courier, nil, decimal.Zero, true),
		}, nil
	}
	cmd := cli.NewRootCmdForTest(load)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// TestTestConnectionCommand verifies the sample rate output and the zero-rate failure.
func TestTestConnectionCommand(t *testing.T) {
	courier := &mockCourier{}
	courier.On("GetTariff", mock.Anything, domain.NewTariffRequest(1, "self", decimal.Zero)).
		Return(domain.Tariff{ShipmentCharges: decimal.NewFromInt(180), GST: decimal.NewFromInt(20)}, nil).Once()

	out, err := run(t, courier, "test-connection")
	require.NoError(t, err)
	assert.Contains(t, out, "Sample rate for 1 kg: 200.00")

	courier.On("GetTariff", mock.Anything, mock.Anything).Return(domain.Tariff{}, nil).Once()
	_, err = run(t, courier, "test-connection")
	assert.ErrorIs(t, err, service.ErrNoRate)
}

// TestQuoteCommand verifies the flags reach the tariff request.
func TestQuoteCommand(t *testing.T) {
	courier := &mockCourier{}
	courier.On("GetTariff", mock.Anything, domain.NewTariffRequest(2.5, "Lahore", decimal.NewFromInt(1500))).
		Return(domain.Tariff{ShipmentCharges: decimal.NewFromInt(350)}, nil)

	out, err := run(t, courier, "quote", "--weight", "2.5", "--city", "Lahore", "--total", "1500")
	require.NoError(t, err)
	assert.Contains(t, out, `"success": true`)
	assert.Contains(t, out, `"price": "350"`)

	_, err = run(t, courier, "quote", "--total", "abc")
	assert.ErrorContains(t, err, "invalid --total")
}

// TestTrackCommand verifies the summary, the cancelled notice and upstream failures.
func TestTrackCommand(t *testing.T) {
	t.Run("summary", func(t *testing.T) {
		courier := &mockCourier{}
		courier.On("TrackPackets", mock.Anything, "LE123").Return(&domain.TrackResult{
			Packets: []domain.PacketStatus{{Fields: map[string]string{"booked_packet_status": "DV"}}},
		}, nil)

		out, err := run(t, courier, "track", " LE123 ")
		require.NoError(t, err)
		assert.Contains(t, out, "Current Status: Delivered (DV)")
	})

	t.Run("cancelled", func(t *testing.T) {
		courier := &mockCourier{}
		courier.On("TrackPackets", mock.Anything, "LE123").
			Return(&domain.TrackResult{Cancelled: true}, fmt.Errorf("%w: cancelled", domain.ErrRejected))

		out, err := run(t, courier, "track", "LE123")
		require.NoError(t, err)
		assert.Contains(t, out, "CANCELLED")
	})

	t.Run("upstream failure", func(t *testing.T) {
		courier := &mockCourier{}
		courier.On("TrackPackets", mock.Anything, "LE123").Return(nil, domain.ErrUpstream)

		_, err := run(t, courier, "track", "LE123")
		assert.ErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("json with rejection", func(t *testing.T) {
		courier := &mockCourier{}
		courier.On("TrackPackets", mock.Anything, "LE123").
			Return(&domain.TrackResult{Error: "Invalid CN"}, fmt.Errorf("%w: Invalid CN", domain.ErrRejected))

		out, err := run(t, courier, "track", "LE123", "--json")
		assert.ErrorIs(t, err, domain.ErrRejected)
		assert.Contains(t, out, `"error": "Invalid CN"`)
	})

	t.Run("missing cn", func(t *testing.T) {
		_, err := run(t, &mockCourier{}, "track")
		assert.Error(t, err)
	})
}

// TestCancelCommand verifies the cancel call and its failure.
func TestCancelCommand(t *testing.T) {
	courier := &mockCourier{}
	courier.On("CancelPackets", mock.Anything, "LE1").Return(nil)
	courier.On("CancelPackets", mock.Anything, "LE2").Return(fmt.Errorf("%w: already delivered", domain.ErrRejected))

	out, err := run(t, courier, "cancel", "LE1")
	require.NoError(t, err)
	assert.Contains(t, out, "Packet LE1 cancelled.")

	_, err = run(t, courier, "cancel", "LE2")
	assert.ErrorIs(t, err, domain.ErrRejected)
}

// TestCancelCommand_NoCommandDeadline verifies the command leaves the cancel budget to the adapter.
func TestCancelCommand_NoCommandDeadline(t *testing.T) {
	courier := &mockCourier{}
	courier.On("CancelPackets", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return !ok
	}), "LE1").Return(nil)

	_, err := run(t, courier, "cancel", "LE1")
	require.NoError(t, err)
	courier.AssertExpectations(t)
}

// TestRootCommand_LoadError verifies loader failures surface.
func TestRootCommand_LoadError(t *testing.T) {
	cmd := cli.NewRootCmdForTest(func(string) (*cli.Env, error) {
		return nil, errors.New("missing required configuration: LEOPARDS_API_KEY")
	})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"cancel", "LE1"})
	assert.ErrorContains(t, cmd.Execute(), "LEOPARDS_API_KEY")
}
