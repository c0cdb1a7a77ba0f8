package db

import (
	"reflect"
	"testing"
)

func TestIDSequencesReadFromTriggers(t *testing.T) {
	database := openMigrated(t)

	seqs, err := database.IDSequences()
	if err != nil {
		t.Fatalf("IDSequences failed: %v", err)
	}

	want := []IDSequence{
		{Entity: "actors", SeqTable: "actor_seq", Prefix: "A-"},
		{Entity: "projects", SeqTable: "project_seq", Prefix: "P-"},
		{Entity: "suites", SeqTable: "suite_seq", Prefix: "S-"},
		{Entity: "test_cases", SeqTable: "case_seq", Prefix: "C-"},
	}
	if !reflect.DeepEqual(seqs, want) {
		t.Errorf("sequences = %+v\nwant %+v", seqs, want)
	}
}

func TestCheckDrift_CleanAfterTriggerInserts(t *testing.T) {
	database := openMigrated(t)
	mustExec(t, database, insertSuite, "s1", nil, 0, "Login")

	drifts, err := database.CheckDrift()
	if err != nil {
		t.Fatalf("CheckDrift failed: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("expected no drift, got %+v", drifts)
	}
}

func TestRepairDrift_ExplicitCaseID(t *testing.T) {
	database := openMigrated(t)

	// An explicit friendly ID skips the trigger, so case_seq never advances.
	mustExec(t, database, `INSERT INTO test_cases (uuid, id, project_uuid, title, created_by_actor_uuid, updated_by_actor_uuid)
		VALUES ('c1', 'C-00042', 'p1', 'Login works', 'a1', 'a1')`)

	drifts, err := database.CheckDrift()
	if err != nil {
		t.Fatalf("CheckDrift failed: %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("expected one drifted entity, got %+v", drifts)
	}
	d := drifts[0]
	if d.Entity != "test_cases" || d.HighWater != 42 || d.Counter != 0 {
		t.Errorf("unexpected drift %+v", d)
	}
	if d.NextID() != "C-00001" {
		t.Errorf("NextID = %s, want C-00001", d.NextID())
	}

	repaired, err := database.RepairDrift()
	if err != nil {
		t.Fatalf("RepairDrift failed: %v", err)
	}
	if len(repaired) != 1 || repaired[0].SeqTable != "case_seq" {
		t.Errorf("unexpected repair %+v", repaired)
	}

	// The next trigger-assigned ID follows the explicit one.
	mustExec(t, database, `INSERT INTO test_cases (uuid, project_uuid, title, created_by_actor_uuid, updated_by_actor_uuid)
		VALUES ('c2', 'p1', 'Logout works', 'a1', 'a1')`)
	var id string
	if err := database.QueryRow(`SELECT id FROM test_cases WHERE uuid = 'c2'`).Scan(&id); err != nil {
		t.Fatalf("query case: %v", err)
	}
	if id != "C-00043" {
		t.Errorf("id after repair = %s, want C-00043", id)
	}

	if drifts, err = database.CheckDrift(); err != nil || len(drifts) != 0 {
		t.Errorf("expected no drift after repair, got %+v (err %v)", drifts, err)
	}
}
