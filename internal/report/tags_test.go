package report

import (
	"testing"

	"gastos/internal/core"

	"github.com/shopspring/decimal"
)

func tagRec(amount int64, tags string) core.Record {
	return core.Record{
		Date:     core.NewDate(2024, 1, 15),
		Category: "Comida",
		Amount:   decimal.NewFromInt(amount),
		Tags:     tags,
	}
}

func TestTopTagsFanOut(t *testing.T) {
	// A record attributes its full amount to every tag fragment,
	// duplicated fragments included.
	records := []core.Record{tagRec(100, "food, food")}
	got := TopTags(records, 10)
	if len(got) != 1 {
		t.Fatalf("got %d tags", len(got))
	}
	if got[0].Tag != "food" || got[0].Amount.String() != "200" {
		t.Fatalf("got %+v", got[0])
	}
}

func TestTopTagsMultipleFacets(t *testing.T) {
	records := []core.Record{
		tagRec(40, "a, b, b"),
		tagRec(10, "b"),
	}
	got := TopTags(records, 10)
	if len(got) != 2 {
		t.Fatalf("got %d tags", len(got))
	}
	// b: 40+40+10 = 90; a: 40
	if got[0].Tag != "b" || got[0].Amount.String() != "90" {
		t.Fatalf("got[0] = %+v", got[0])
	}
	if got[1].Tag != "a" || got[1].Amount.String() != "40" {
		t.Fatalf("got[1] = %+v", got[1])
	}
}

func TestTopTagsTiesAndLimit(t *testing.T) {
	records := []core.Record{
		tagRec(10, "zeta"),
		tagRec(10, "alfa"),
	}
	got := TopTags(records, 10)
	// Equal amounts: first-encountered tag wins.
	if got[0].Tag != "zeta" || got[1].Tag != "alfa" {
		t.Fatalf("tie order = %s, %s", got[0].Tag, got[1].Tag)
	}

	var many []core.Record
	for i := 0; i < 15; i++ {
		many = append(many, tagRec(int64(i+1), string(rune('a'+i))))
	}
	if got := TopTags(many, 10); len(got) != 10 {
		t.Fatalf("limit: got %d tags", len(got))
	}
}

func TestTopTagsIgnoresEmptyFragments(t *testing.T) {
	records := []core.Record{tagRec(10, " , ,  "), tagRec(5, "")}
	if got := TopTags(records, 10); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}
