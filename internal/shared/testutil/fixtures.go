package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"carviz/pkg/contracts/domain"
)

// SampleCSV is a small dataset in the source format: currency-formatted
// prices, an extra passthrough column and columns out of canonical order.
const SampleCSV = `Make,Model,Type,Origin,MSRP,Invoice
Acme,Roadster,Sports,USA,"$45,000","$41,000"
Acme,Sedan One,Sedan,USA,"$20,000","$18,000"
Acme,Sedan Two,Sedan,USA,"$30,000","$27,000"
Borealis,Trail,SUV,Europe,"$38,500","$35,100"
Borealis,City,Sedan,Europe,"$25,000","$23,500"
`

// SampleColumns is the header of SampleCSV.
var SampleColumns = []string{"Make", "Model", "Type", "Origin", "MSRP", "Invoice"}

// SampleListings are the normalized rows of SampleCSV.
func SampleListings() []domain.Listing {
	return []domain.Listing{
		{Type: "Sports", Make: "Acme", Model: "Roadster", MSRP: 45000, Invoice: 41000, Extra: map[string]string{"Origin": "USA"}},
		{Type: "Sedan", Make: "Acme", Model: "Sedan One", MSRP: 20000, Invoice: 18000, Extra: map[string]string{"Origin": "USA"}},
		{Type: "Sedan", Make: "Acme", Model: "Sedan Two", MSRP: 30000, Invoice: 27000, Extra: map[string]string{"Origin": "USA"}},
		{Type: "SUV", Make: "Borealis", Model: "Trail", MSRP: 38500, Invoice: 35100, Extra: map[string]string{"Origin": "Europe"}},
		{Type: "Sedan", Make: "Borealis", Model: "City", MSRP: 25000, Invoice: 23500, Extra: map[string]string{"Origin": "Europe"}},
	}
}

// WriteDataset writes content to a CSV file under a fresh temp directory and
// returns its path.
func WriteDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "CARS.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}
