package store

import "testing"

func TestUpsertEntityNodeCreates(t *testing.T) {
	db := testDB(t)

	n, err := db.UpsertEntityNode("Person", "John Doe", "")
	if err != nil {
		t.Fatalf("UpsertEntityNode: %v", err)
	}
	if n.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if n.CanonicalName != "john doe" {
		t.Errorf("canonical_name = %q, want %q", n.CanonicalName, "john doe")
	}
	if n.OccurrenceCount != 1 {
		t.Errorf("occurrence_count = %d, want 1", n.OccurrenceCount)
	}
	if n.FirstSeen == 0 || n.LastSeen == 0 {
		t.Error("expected first_seen and last_seen to be set")
	}
}

func TestUpsertEntityNodeIncrements(t *testing.T) {
	db := testDB(t)

	first, err := db.UpsertEntityNode("Person", "John Doe", "")
	if err != nil {
		t.Fatalf("UpsertEntityNode: %v", err)
	}

	// Same canonical name, different casing and padding
	second, err := db.UpsertEntityNode("Person", "  john DOE ", "")
	if err != nil {
		t.Fatalf("UpsertEntityNode again: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("id changed on re-sighting: %d vs %d", second.ID, first.ID)
	}
	if second.OccurrenceCount != 2 {
		t.Errorf("occurrence_count = %d, want 2", second.OccurrenceCount)
	}
	if second.LastSeen < first.LastSeen {
		t.Error("last_seen went backwards")
	}
}

func TestUpsertEntityNodeTypeScoped(t *testing.T) {
	db := testDB(t)

	person, _ := db.UpsertEntityNode("Person", "acme", "")
	app, _ := db.UpsertEntityNode("SoftwareApplication", "acme", "")

	if person.ID == app.ID {
		t.Error("same name under different types should be distinct nodes")
	}

	count, _ := db.CountEntityNodes()
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestTopEntityNodes(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 3; i++ {
		db.UpsertEntityNode("Person", "Busy Person", "")
	}
	db.UpsertEntityNode("Person", "Quiet Person", "")
	db.UpsertEntityNode("SoftwareApplication", "github.com", "")

	top, err := db.TopEntityNodes(2, "")
	if err != nil {
		t.Fatalf("TopEntityNodes: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].DisplayName != "Busy Person" {
		t.Errorf("top[0] = %q, want Busy Person", top[0].DisplayName)
	}

	persons, err := db.TopEntityNodes(10, "Person")
	if err != nil {
		t.Fatalf("TopEntityNodes filtered: %v", err)
	}
	for _, n := range persons {
		if n.SchemaType != "Person" {
			t.Errorf("filter leaked type %q", n.SchemaType)
		}
	}
	if len(persons) != 2 {
		t.Errorf("filtered len = %d, want 2", len(persons))
	}
}
