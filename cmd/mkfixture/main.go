// mkfixture creates a small representative Parquet claims fixture from a
// larger pharmacy export (csv, tsv, xlsx or parquet).
// Two-pass: first scans all rows to find diverse candidates, then selects the best N.
// Usage: go run ./cmd/mkfixture --in testdata/claims_2024.xlsx --out testdata/claims-small.parquet --rows 200
package main

import (
	"flag"
	"fmt"
	"os"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/owedbook/internal/columns"
	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
	"github.com/gyeh/owedbook/internal/tabular"
)

func main() {
	in := flag.String("in", "testdata/claims.csv", "input claims file")
	out := flag.String("out", "testdata/claims-small.parquet", "output parquet")
	maxRows := flag.Int("rows", 200, "max rows to output")
	checkOnly := flag.Bool("check", false, "only print stats, don't write")
	flag.Parse()

	tbl, err := tabular.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	res := columns.NewResolver(nil).Resolve(tbl.Headers)
	if !res.OK() {
		fmt.Fprintf(os.Stderr, "missing required columns %v in headers %v\n", res.Missing, res.Headers)
		os.Exit(1)
	}

	var claims []model.Claim
	dropped := 0
	for _, row := range tbl.Rows {
		c, ok := normalize.ClaimFromRow(row, res.Index)
		if !ok {
			dropped++
			continue
		}
		claims = append(claims, c)
	}

	if *checkOnly {
		federal, negative := 0, 0
		for _, c := range claims {
			if c.BIN == "" {
				federal++
			}
			if c.TotalPaid < 0 {
				negative++
			}
		}
		fmt.Printf("Mapping: %v\n", res.Mapping)
		fmt.Printf("Total: %d, Dropped: %d, No BIN: %d, Negative paid: %d\n",
			len(claims), dropped, federal, negative)
		return
	}

	// Pass 1: bucket by interesting traits.
	type bucket struct {
		name string
		rows []model.Claim
		want int
	}
	buckets := []*bucket{
		{name: "no_bin", want: 30},
		{name: "negative_paid", want: 20},
		{name: "no_ndc", want: 20},
		{name: "fractional_qty", want: 20},
		{name: "general", want: 0},
	}
	bucketMap := make(map[string]*bucket)
	for _, b := range buckets {
		bucketMap[b.name] = b
	}
	room := func(name string) bool {
		return len(bucketMap[name].rows) < bucketMap[name].want
	}

	seen := make(map[string]bool)
	for _, c := range claims {
		if seen[c.Script] {
			continue
		}
		seen[c.Script] = true

		placed := false
		if c.BIN == "" && room("no_bin") {
			bucketMap["no_bin"].rows = append(bucketMap["no_bin"].rows, c)
			placed = true
		}
		if !placed && c.TotalPaid < 0 && room("negative_paid") {
			bucketMap["negative_paid"].rows = append(bucketMap["negative_paid"].rows, c)
			placed = true
		}
		if !placed && c.DrugNDC == "" && room("no_ndc") {
			bucketMap["no_ndc"].rows = append(bucketMap["no_ndc"].rows, c)
			placed = true
		}
		if !placed && c.Qty != float64(int64(c.Qty)) && room("fractional_qty") {
			bucketMap["fractional_qty"].rows = append(bucketMap["fractional_qty"].rows, c)
			placed = true
		}
		if !placed && len(bucketMap["general"].rows) < *maxRows {
			bucketMap["general"].rows = append(bucketMap["general"].rows, c)
		}
	}
	fmt.Printf("Scanned %d rows (%d dropped)\n", len(tbl.Rows), dropped)

	// Pass 2: merge buckets in priority order.
	var selected []model.ClaimRecord
	counts := make(map[string]int)
	for _, b := range buckets {
		for _, c := range b.rows {
			if len(selected) >= *maxRows {
				break
			}
			selected = append(selected, model.RecordFromClaim(c))
			counts[b.name]++
		}
	}

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	writer := goparquet.NewGenericWriter[model.ClaimRecord](outFile)
	if _, err := writer.Write(selected); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close writer: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d rows to %s\n", len(selected), *out)
	fmt.Println("Trait distribution:")
	for _, b := range buckets {
		fmt.Printf("  %-15s %d\n", b.name, counts[b.name])
	}
}
