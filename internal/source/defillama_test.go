// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"testing"

	"github.com/pdiddy/accelerate-engine/pkg/types"
)

const sampleDefiLlamaJSON = `{
  "raises": [
    {
      "name": "Chainvault",
      "amount": 2.5,
      "round": "Seed",
      "date": 1756166400,
      "chains": ["Ethereum"],
      "category": "Infrastructure",
      "source": "https://news.example.com/chainvault-seed",
      "leadInvestors": ["Example Capital"]
    },
    {
      "name": "Yieldworks",
      "amount": 12,
      "round": "Series A",
      "date": 1755561600,
      "chains": ["Solana", "Base"],
      "source": "https://news.example.com/yieldworks-a"
    },
    {
      "name": "Overflow Labs",
      "amount": 40,
      "round": "Series B",
      "date": 1754956800,
      "source": "https://news.example.com/overflow-b"
    }
  ]
}`

func TestDefiLlamaFetch(t *testing.T) {
	ts := jsonTestServer(t, http.StatusOK, sampleDefiLlamaJSON, nil)
	defer ts.Close()

	old := defillamaAPIBase
	defillamaAPIBase = ts.URL
	defer func() { defillamaAPIBase = old }()

	d := &DefiLlama{Client: ts.Client()}
	raws, err := d.Fetch(context.Background(), testCfg())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(raws) != 3 {
		t.Fatalf("len(raws) = %d, want 3", len(raws))
	}
}

func TestDefiLlamaFetchCapsAtMaxPerSource(t *testing.T) {
	ts := jsonTestServer(t, http.StatusOK, sampleDefiLlamaJSON, nil)
	defer ts.Close()

	old := defillamaAPIBase
	defillamaAPIBase = ts.URL
	defer func() { defillamaAPIBase = old }()

	cfg := testCfg()
	cfg.MaxPerSource = 2

	d := &DefiLlama{Client: ts.Client()}
	raws, err := d.Fetch(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("len(raws) = %d, want 2 (capped)", len(raws))
	}
}

func TestDefiLlamaFetchHTTPError(t *testing.T) {
	ts := jsonTestServer(t, http.StatusBadGateway, "bad gateway", nil)
	defer ts.Close()

	old := defillamaAPIBase
	defillamaAPIBase = ts.URL
	defer func() { defillamaAPIBase = old }()

	d := &DefiLlama{Client: ts.Client()}
	if _, err := d.Fetch(context.Background(), testCfg()); err == nil {
		t.Fatal("Fetch should fail on HTTP 502")
	}
}

func TestDefiLlamaTransform(t *testing.T) {
	d := &DefiLlama{}
	items := d.Transform([]map[string]any{
		{
			"name":   "Chainvault",
			"amount": 2.5,
			"round":  "Seed",
			"date":   float64(1756166400),
			"chains": []any{"Ethereum"},
			"source": "https://news.example.com/chainvault-seed",
		},
	})
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}

	item := items[0]
	if item.Source != "defillama" {
		t.Errorf("Source = %q, want defillama", item.Source)
	}
	if item.Type != types.TypeFunding {
		t.Errorf("Type = %q, want funding", item.Type)
	}
	// Amounts arrive in millions.
	if item.Meta.FundingRaisedUSD != 2_500_000 {
		t.Errorf("FundingRaisedUSD = %v, want 2500000", item.Meta.FundingRaisedUSD)
	}
	if item.URL != "https://news.example.com/chainvault-seed" {
		t.Errorf("URL = %q, want announcement link", item.URL)
	}
	if len(item.Meta.Chains) != 1 || item.Meta.Chains[0] != "Ethereum" {
		t.Errorf("Chains = %v, want [Ethereum]", item.Meta.Chains)
	}
	if item.Meta.LaunchDate.IsZero() {
		t.Error("LaunchDate should be set from the unix date field")
	}
}
