package service

import "testing"

func TestTopicSearch(t *testing.T) {
	gdb := testDB(t)
	svc := NewTopicService(gdb)
	for _, name := range []string{"python", "golang", "javascript"} {
		if _, err := svc.GetOrCreate(name); err != nil {
			t.Fatalf("GetOrCreate(%q) error = %v", name, err)
		}
	}

	tests := []struct {
		name string
		q    string
		want int
	}{
		{"empty matches all", "", 3},
		{"exact", "python", 1},
		{"substring", "script", 1},
		{"case-insensitive", "GO", 1},
		{"no match", "rust", 0},
		{"underscore is literal", "_", 0},
		{"percent is literal", "%", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topics, err := svc.Search(tt.q)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.q, err)
			}
			if len(topics) != tt.want {
				t.Errorf("Search(%q) = %d topics, want %d", tt.q, len(topics), tt.want)
			}
		})
	}
}

func TestTopicTop(t *testing.T) {
	gdb := testDB(t)
	svc := NewTopicService(gdb)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		if _, err := svc.GetOrCreate(name); err != nil {
			t.Fatalf("GetOrCreate(%q) error = %v", name, err)
		}
	}

	topics, err := svc.Top(5)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(topics) != 5 {
		t.Errorf("Top(5) = %d topics, want 5", len(topics))
	}
}
