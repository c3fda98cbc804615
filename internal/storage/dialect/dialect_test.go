package dialect

import "testing"

func TestFromDriverName(t *testing.T) {
	cases := []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{"sqlite", "sqlite", false},
		{"sqlite3", "sqlite", false},
		{"SQLite", "sqlite", false},
		{"postgres", "postgres", false},
		{"pq", "postgres", false},
		{"mysql", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		d, err := FromDriverName(tc.driver)
		if tc.wantErr {
			if err == nil {
				t.Errorf("FromDriverName(%q) expected error, got nil", tc.driver)
			}
			continue
		}
		if err != nil {
			t.Errorf("FromDriverName(%q) error = %v", tc.driver, err)
			continue
		}
		if d.Name() != tc.want {
			t.Errorf("FromDriverName(%q).Name() = %q, want %q", tc.driver, d.Name(), tc.want)
		}
	}
}

func TestPostgresRebind(t *testing.T) {
	d, err := FromDriverName("postgres")
	if err != nil {
		t.Fatalf("FromDriverName(postgres) error = %v", err)
	}

	got := d.Rebind("UPDATE contributions SET status = ? WHERE id = ? AND status = ?")
	want := "UPDATE contributions SET status = $1 WHERE id = $2 AND status = $3"
	if got != want {
		t.Errorf("Rebind = %q, want %q", got, want)
	}
}

func TestSQLiteRebindIsIdentity(t *testing.T) {
	d, err := FromDriverName("sqlite")
	if err != nil {
		t.Fatalf("FromDriverName(sqlite) error = %v", err)
	}

	q := "SELECT * FROM negotiation_sessions WHERE contribution_id = ?"
	if got := d.Rebind(q); got != q {
		t.Errorf("Rebind changed query: %q", got)
	}
}
