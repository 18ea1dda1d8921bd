package registry

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0xA11CE"
	bob   = "0xB0B"
)

func TestCreateCampaignIDsFromOne(t *testing.T) {
	ledger := NewLedger()

	first := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")
	second := ledger.CreateCampaign(bob, big.NewInt(2000), "cid-2")

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(2), ledger.CampaignCount())
}

func TestCreateCampaignInitialState(t *testing.T) {
	ledger := NewLedger()
	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")

	campaign, ok := ledger.Campaign(id)
	require.True(t, ok)
	assert.Equal(t, alice, campaign.Creator)
	assert.Equal(t, int64(1000), campaign.Goal.Int64())
	assert.Equal(t, int64(0), campaign.Raised.Int64())
	assert.False(t, campaign.Completed)
	assert.Equal(t, "cid-1", campaign.MetadataCID)
}

func TestDonateAccumulates(t *testing.T) {
	ledger := NewLedger()
	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")

	require.NoError(t, ledger.Donate(id, bob, big.NewInt(300)))
	require.NoError(t, ledger.Donate(id, bob, big.NewInt(200)))

	campaign, _ := ledger.Campaign(id)
	assert.Equal(t, int64(500), campaign.Raised.Int64())
}

func TestDonateOverFundingAllowed(t *testing.T) {
	ledger := NewLedger()
	id := ledger.CreateCampaign(alice, big.NewInt(100), "cid-1")

	// 超过目标金额的捐款被静默接受
	require.NoError(t, ledger.Donate(id, bob, big.NewInt(500)))

	campaign, _ := ledger.Campaign(id)
	assert.Equal(t, int64(500), campaign.Raised.Int64())
}

func TestDonateRejections(t *testing.T) {
	ledger := NewLedger()
	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")

	assert.ErrorIs(t, ledger.Donate(99, bob, big.NewInt(100)), ErrCampaignNotExist)
	assert.ErrorIs(t, ledger.Donate(id, bob, big.NewInt(0)), ErrZeroDonation)
	assert.ErrorIs(t, ledger.Donate(id, bob, big.NewInt(-5)), ErrZeroDonation)
	assert.ErrorIs(t, ledger.Donate(id, bob, nil), ErrZeroDonation)

	// 失败的捐款不产生状态变更
	campaign, _ := ledger.Campaign(id)
	assert.Equal(t, int64(0), campaign.Raised.Int64())
}

func TestDonateAfterCompleteRejected(t *testing.T) {
	ledger := NewLedger()
	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")
	require.NoError(t, ledger.CompleteCampaign(id, alice))

	assert.ErrorIs(t, ledger.Donate(id, bob, big.NewInt(100)), ErrCampaignCompleted)
}

func TestCompleteCampaignCreatorOnly(t *testing.T) {
	ledger := NewLedger()
	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")

	assert.ErrorIs(t, ledger.CompleteCampaign(id, bob), ErrNotCreator)

	campaign, _ := ledger.Campaign(id)
	assert.False(t, campaign.Completed)

	require.NoError(t, ledger.CompleteCampaign(id, alice))
	campaign, _ = ledger.Campaign(id)
	assert.True(t, campaign.Completed)
}

func TestCompleteCampaignOneWay(t *testing.T) {
	ledger := NewLedger()
	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")

	require.NoError(t, ledger.CompleteCampaign(id, alice))
	assert.ErrorIs(t, ledger.CompleteCampaign(id, alice), ErrCampaignCompleted)
	assert.ErrorIs(t, ledger.CompleteCampaign(99, alice), ErrCampaignNotExist)
}

func TestCreateDonateCompleteScenario(t *testing.T) {
	ledger := NewLedger()

	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid123")
	require.Equal(t, int64(1), id)
	require.NoError(t, ledger.Donate(id, bob, big.NewInt(400)))

	campaign, ok := ledger.Campaign(1)
	require.True(t, ok)
	assert.Equal(t, int64(400), campaign.Raised.Int64())
	assert.False(t, campaign.Completed)

	assert.ErrorIs(t, ledger.CompleteCampaign(1, bob), ErrNotCreator)
}

func TestEventsEmitted(t *testing.T) {
	ledger := NewLedger()
	var events []Event
	ledger.SetEventSink(func(e Event) { events = append(events, e) })

	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")
	require.NoError(t, ledger.Donate(id, bob, big.NewInt(100)))
	require.NoError(t, ledger.CompleteCampaign(id, alice))

	require.Len(t, events, 3)
	assert.Equal(t, "CampaignCreated", events[0].Name)
	assert.Equal(t, "DonationReceived", events[1].Name)
	assert.Equal(t, bob, events[1].Donor)
	assert.Equal(t, int64(100), events[1].Amount.Int64())
	assert.Equal(t, "CampaignCompleted", events[2].Name)
}

func TestFailedOperationsEmitNothing(t *testing.T) {
	ledger := NewLedger()
	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")

	var events []Event
	ledger.SetEventSink(func(e Event) { events = append(events, e) })

	_ = ledger.Donate(id, bob, big.NewInt(0))
	_ = ledger.CompleteCampaign(id, bob)
	assert.Empty(t, events)
}

func TestCampaignCopyIsolation(t *testing.T) {
	ledger := NewLedger()
	id := ledger.CreateCampaign(alice, big.NewInt(1000), "cid-1")

	copy1, _ := ledger.Campaign(id)
	copy1.Raised.SetInt64(999999)

	copy2, _ := ledger.Campaign(id)
	assert.Equal(t, int64(0), copy2.Raised.Int64())
}
