package transform

import (
	"testing"

	"drgetl/internal/table"
)

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"APR DRG Code", "apr_drg_code"},
		{"Total Charges (1,000s)", "total_charges_1000s"},
		{"1,2,3 count", "123_count"},
		{"Facility Id", "facility_id"},
		{"Patient's Age", "patient_s_age"},
		{"  --Hospital   County--  ", "hospital_county"},
		{"Café Niño", "cafe_nino"},
		{"Straße", "strasse"},
		{"Ñandú's", "nandu_s"},
		{"Søren Æblø", "soren_aeblo"},
		{"Łódź Œuvre", "lodz_oeuvre"},
		{"Đorđe Þór", "dorde_thor"},
		{"Cost &amp; Charge", "cost_charge"},
		{"already_snake", "already_snake"},
		{"a,b", "a_b"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeColumnNames(t *testing.T) {
	t.Parallel()

	in := table.MustNew(
		table.NewInt("Discharge Year", []int64{2019}),
		table.NewInt("APR DRG Code", []int64{1}),
	)
	got, err := SanitizeColumnNames(in)
	if err != nil {
		t.Fatalf("SanitizeColumnNames() error = %v", err)
	}
	if want := []string{"discharge_year", "apr_drg_code"}; !sameStrings(got.Names(), want) {
		t.Fatalf("Names() = %v, want %v", got.Names(), want)
	}
	if in.Names()[0] != "Discharge Year" {
		t.Fatalf("input renamed to %v", in.Names())
	}

	collide := table.MustNew(table.NewInt("A B", []int64{1}), table.NewInt("a-b", []int64{2}))
	if _, err := SanitizeColumnNames(collide); err == nil {
		t.Fatalf("SanitizeColumnNames(collision) error = nil, want error")
	}
}
