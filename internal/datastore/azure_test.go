package datastore

import (
	"testing"

	"github.com/livetocode/vehicle-fleet-poc/internal/engineerr"
)

func TestExtractSAS(t *testing.T) {
	sas, err := extractSAS("BlobEndpoint=https://acct.blob.core.windows.net;SharedAccessSignature=sv=2024&sig=abc;")
	if err != nil {
		t.Fatalf("extractSAS: %v", err)
	}
	if sas != "sv=2024&sig=abc" {
		t.Errorf("sas = %q", sas)
	}
}

func TestExtractSASEmptyPairsIgnored(t *testing.T) {
	sas, err := extractSAS(";;SharedAccessSignature=token;;")
	if err != nil {
		t.Fatalf("extractSAS: %v", err)
	}
	if sas != "token" {
		t.Errorf("sas = %q, want token", sas)
	}
}

func TestExtractSASMalformedPair(t *testing.T) {
	_, err := extractSAS("BlobEndpoint=x;garbage")
	if err == nil {
		t.Fatal("expected error for pair missing '='")
	}
	if !engineerr.As(err, engineerr.InvalidConfig) {
		t.Errorf("error kind = %v, want InvalidConfig", engineerr.KindOf(err))
	}
}

func TestExtractSASMissing(t *testing.T) {
	if _, err := extractSAS("BlobEndpoint=x;AccountKey=y"); err == nil {
		t.Fatal("expected error when SharedAccessSignature is absent")
	}
}
