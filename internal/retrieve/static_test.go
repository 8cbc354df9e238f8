package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/chaincontext/chaincontext/internal/model"
)

func fixedClock() time.Time {
	return time.Unix(1700000000, 0)
}

func ids(items []model.EvidenceItem) map[string]model.EvidenceItem {
	m := make(map[string]model.EvidenceItem, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}

func TestRetrieveFTSOQuery(t *testing.T) {
	r := NewStaticRetriever().WithClock(fixedClock)

	items, err := r.Retrieve(context.Background(), "What is the current FTSO price feed latency?")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	got := ids(items)
	for _, want := range []string{"ftso-overview", "ftso-2s-feed", "ftso-90s-feed", "flare-overview"} {
		if _, ok := got[want]; !ok {
			t.Errorf("expected item %s in results", want)
		}
	}

	feed, ok := got["ftso-2s-feed"]
	if !ok {
		t.Fatal("missing ftso-2s-feed")
	}
	if !feed.OnchainVerified {
		t.Error("ftso-2s-feed should be on-chain verified")
	}
	if feed.Source != model.SourceFTSO2s {
		t.Errorf("unexpected source %s", feed.Source)
	}
	if age := fixedClock().Unix() - feed.Timestamp; age != 60 {
		t.Errorf("expected 60s old feed, got %ds", age)
	}
}

func TestRetrieveUnrelatedQueryReturnsOverviewOnly(t *testing.T) {
	r := NewStaticRetriever().WithClock(fixedClock)

	items, err := r.Retrieve(context.Background(), "tell me a joke")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected only the overview, got %d items", len(items))
	}
	if items[0].ID != "flare-overview" {
		t.Errorf("expected flare-overview, got %s", items[0].ID)
	}
}

func TestRetrieveCaseInsensitive(t *testing.T) {
	r := NewStaticRetriever().WithClock(fixedClock)

	items, err := r.Retrieve(context.Background(), "FTSO NETWORK STATUS")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	got := ids(items)
	if _, ok := got["ftso-2s-feed"]; !ok {
		t.Error("uppercase FTSO should still match the feed corpus")
	}
	if _, ok := got["flare-network-status"]; !ok {
		t.Error("uppercase NETWORK should still match the status corpus")
	}
}

func TestRetrieveCancelledContext(t *testing.T) {
	r := NewStaticRetriever()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Retrieve(ctx, "ftso"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
