package operator

import "testing"

func TestCleanCallsign(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"aa7bq", "AA7BQ"},
		{" kb7ouu ", "KB7OUU"},
		{"KB7OUU/SK2025", "KB7OUU"},
		{"kb7ouu/sk2025", "KB7OUU"},
		{"W1VF/VE3", "W1VF/VE3"},
	}
	for _, tc := range cases {
		if got := CleanCallsign(tc.in); got != tc.want {
			t.Errorf("CleanCallsign(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMapLicenseClass(t *testing.T) {
	cases := []struct {
		code, want string
	}{
		{"E", "Extra"},
		{"G", "General"},
		{"T", "Technician"},
		{"A", "Advanced"},
		{"C", "Club"},
		{"", "Unknown Class"},
		{"X", "Unknown Class"},
	}
	for _, tc := range cases {
		if got := MapLicenseClass(tc.code); got != tc.want {
			t.Errorf("MapLicenseClass(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestNormalizeNamePair(t *testing.T) {
	cases := []struct {
		name                string
		first, last         string
		wantFirst, wantLast string
	}{
		{"plain", "FRED", "LLOYD", "Fred", "Lloyd"},
		{"comma truncates last", "FRED", "LLOYD, JR", "Fred", "Lloyd"},
		{"middle initial dropped", "FRED L", "LLOYD", "Fred", "Lloyd"},
		{"second word kept when real", "MARY ANN", "SMITH", "Mary Ann", "Smith"},
		{"missing first splits last", "", "FRED LLOYD", "FRED", "LLOYD"},
		{"missing first single word", "", "LLOYD", "LLOYD", "LLOYD"},
		{"both empty", "", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first, last := normalizeNamePair(tc.first, tc.last)
			if first != tc.wantFirst || last != tc.wantLast {
				t.Fatalf("normalizeNamePair(%q, %q) = (%q, %q), want (%q, %q)",
					tc.first, tc.last, first, last, tc.wantFirst, tc.wantLast)
			}
		})
	}
}

func TestFirstNameKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Fred", "Fred"},
		{"J Fred", "Fred"},
		{"  fred  ", "Fred"},
		{"Mary Ann", "Mary Ann"},
		{"J", "J"},
	}
	for _, tc := range cases {
		if got := FirstNameKey(tc.in); got != tc.want {
			t.Errorf("FirstNameKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNamesMatch(t *testing.T) {
	cases := []struct {
		name            string
		dbFirst, dbLast string
		first, last     string
		want            bool
	}{
		{"exact", "Fred", "Lloyd", "Fred", "Lloyd", true},
		{"case folded last", "Fred", "LLOYD", "Fred", "Lloyd", true},
		{"leading initial ignored", "J Fred", "Lloyd", "Fred", "Lloyd", true},
		{"trailing comma ignored", "Fred,", "Lloyd", "Fred", "Lloyd", true},
		{"different first", "George", "Lloyd", "Fred", "Lloyd", false},
		{"different last", "Fred", "Floyd", "Fred", "Lloyd", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NamesMatch(tc.dbFirst, tc.dbLast, tc.first, tc.last); got != tc.want {
				t.Fatalf("NamesMatch = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCompareNamesReportsDistance(t *testing.T) {
	mismatches := CompareNames("Fred", "Floyd", "Fred", "Lloyd")
	if len(mismatches) != 1 {
		t.Fatalf("expected one mismatch, got %d", len(mismatches))
	}
	m := mismatches[0]
	if m.Field != "last name" || m.Stored != "Floyd" || m.Fetched != "Lloyd" {
		t.Fatalf("unexpected mismatch: %+v", m)
	}
	if m.Distance != 1 {
		t.Fatalf("expected distance 1 between Floyd and Lloyd, got %d", m.Distance)
	}
}
