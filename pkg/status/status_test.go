package status

import "testing"

func TestNormalizeAliasSets(t *testing.T) {
	cases := map[Status][]string{
		Complete:  {"c", "complete", "C", " Complete "},
		Terminate: {"t", "term", "terminate", "TERM"},
		Quota:     {"q", "qf", "quota", "quotafull", "overquota", "QuotaFull"},
		Quality:   {"bad", "dq", "fraud", "quality", "DQ"},
	}
	for want, tokens := range cases {
		for _, token := range tokens {
			if got := Normalize(token); got != want {
				t.Fatalf("normalize(%q): expected %s, got %s", token, want, got)
			}
		}
	}
}

func TestNormalizeUnknown(t *testing.T) {
	for _, token := range []string{"", "  ", "x", "completed", "terminated", "quota-full", "cc"} {
		if got := Normalize(token); got != Unknown {
			t.Fatalf("normalize(%q): expected unknown, got %s", token, got)
		}
	}
}

func TestQualityModes(t *testing.T) {
	folded := NewConfiguredTable(QualityAsTerminate, nil)
	if got := folded.Normalize("fraud"); got != Terminate {
		t.Fatalf("expected fraud folded into terminate, got %s", got)
	}
	off := NewConfiguredTable(QualityOff, nil)
	if got := off.Normalize("dq"); got != Unknown {
		t.Fatalf("expected dq unknown when quality is off, got %s", got)
	}
	if got := off.Normalize("c"); got != Complete {
		t.Fatalf("expected base aliases to survive, got %s", got)
	}
}

func TestExtraAliasesAppendAfterDefaults(t *testing.T) {
	table := NewConfiguredTable(QualityDistinct, map[string][]string{
		"complete":  {"done", " FIN "},
		"terminate": {"c"},
		"bogus":     {"zzz"},
	})
	if got := table.Normalize("fin"); got != Complete {
		t.Fatalf("expected extra alias to map to complete, got %s", got)
	}
	if got := table.Normalize("c"); got != Complete {
		t.Fatalf("expected built-in alias to win, got %s", got)
	}
	if got := table.Normalize("zzz"); got != Unknown {
		t.Fatalf("expected alias for unknown status to be ignored, got %s", got)
	}
}

func TestNilTableIsTotal(t *testing.T) {
	var table *Table
	if got := table.Normalize("c"); got != Unknown {
		t.Fatalf("expected unknown from nil table, got %s", got)
	}
}

func TestParse(t *testing.T) {
	if Parse("Quota") != Quota {
		t.Fatalf("expected quota")
	}
	if Parse("q") != Unknown {
		t.Fatalf("parse must not resolve aliases")
	}
}
