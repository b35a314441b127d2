package tokens

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultCatalogFind(t *testing.T) {
	catalog := NewCatalog(11155111, "")

	token, err := catalog.Find(context.Background(), "usdc")
	if err != nil {
		t.Fatal(err)
	}
	if token.Symbol != "USDC" || token.Decimals != 6 {
		t.Fatalf("found %+v", token)
	}

	native, err := catalog.Find(context.Background(), "ETH")
	if err != nil {
		t.Fatal(err)
	}
	if !native.IsNative() {
		t.Fatalf("ETH resolved to %s", native.Address)
	}

	if _, err := catalog.Find(context.Background(), "DOGE"); err == nil {
		t.Fatal("unknown symbol found")
	}
}

func TestCatalogFiltersByChain(t *testing.T) {
	catalog := NewCatalog(1, "")
	list, err := catalog.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("mainnet catalog served %d Sepolia tokens", len(list))
	}
}

func TestCatalogRemoteList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tokens": [
			{"chainId": 11155111, "address": "0x1", "name": "Alpha", "symbol": "AAA", "decimals": 18},
			{"chainId": 1, "address": "0x2", "name": "Beta", "symbol": "BBB", "decimals": 8}
		]}`))
	}))
	defer srv.Close()

	catalog := NewCatalog(11155111, srv.URL)
	list, err := catalog.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Symbol != "AAA" {
		t.Fatalf("remote list = %+v", list)
	}
}

func TestCertifiedLogoURI(t *testing.T) {
	if got := CertifiedLogoURI("ipfs://QmHash/logo.png"); got != "https://ipfs.io/ipfs/QmHash/logo.png" {
		t.Fatalf("ipfs URI = %s", got)
	}
	if got := CertifiedLogoURI("https://example.com/logo.png"); got != "https://example.com/logo.png" {
		t.Fatalf("https URI rewritten to %s", got)
	}
}

func TestPriceClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ETH-USD/spot" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data": {"amount": "3000.25", "currency": "USD"}}`))
	}))
	defer srv.Close()

	client := NewPriceClient(srv.URL)

	spot, err := client.SpotPrice(context.Background(), "ETH")
	if err != nil {
		t.Fatal(err)
	}
	if spot.String() != "3000.25" {
		t.Fatalf("spot = %s", spot)
	}

	fiat, err := client.FiatValue(context.Background(), "ETH", "2")
	if err != nil {
		t.Fatal(err)
	}
	if fiat != "6000.5" {
		t.Fatalf("fiat = %s", fiat)
	}
}
