package vendors

import (
	"errors"
	"testing"

	"github.com/goliatone/go-survey-relay/pkg/status"
)

func gomr(base string) *TemplateVendor {
	return NewTemplateVendor("GOMR", ModePostback, map[status.Status]string{
		status.Complete:  base + "/complete?pid={pid}&uid={uid}",
		status.Terminate: base + "/terminate?pid={pid}&uid={uid}",
		status.Quota:     base + "/quotafull?pid={pid}&uid={uid}",
	}, StaticProjectID("P7"))
}

func TestTemplateVendorBuildURL(t *testing.T) {
	v := gomr("https://v.test")
	u, err := v.BuildURL(status.Terminate, "R9")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if u.String() != "https://v.test/terminate?pid=P7&uid=R9" {
		t.Fatalf("unexpected url %s", u)
	}
	if v.Key() != "gomr" || v.Mode() != ModePostback || v.ProjectID() != "P7" {
		t.Fatalf("unexpected vendor metadata %q %q %q", v.Key(), v.Mode(), v.ProjectID())
	}
}

func TestTemplateVendorEncodesValues(t *testing.T) {
	u, err := gomr("https://v.test").BuildURL(status.Complete, "a&b=c")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if u.Query().Get("uid") != "a&b=c" {
		t.Fatalf("expected identifier round-trip, got %s", u)
	}
}

func TestTemplateVendorUnsupportedStatus(t *testing.T) {
	_, err := gomr("https://v.test").BuildURL(status.Quality, "R1")
	if !errors.Is(err, ErrUnsupportedStatus) {
		t.Fatalf("expected ErrUnsupportedStatus, got %v", err)
	}
}

func TestTemplateVendorMalformed(t *testing.T) {
	_, err := gomr("not a url").BuildURL(status.Complete, "R1")
	if !errors.Is(err, ErrMalformedURL) {
		t.Fatalf("expected ErrMalformedURL, got %v", err)
	}
}

func TestTemplateVendorComputedProjectID(t *testing.T) {
	calls := 0
	v := NewTemplateVendor("x", Mode("bogus"), map[status.Status]string{
		status.Complete: "https://x.test/{pid}/done?u={uid}",
	}, func() string {
		calls++
		return "proj 1"
	})
	if v.Mode() != ModeRedirect {
		t.Fatalf("expected invalid mode to default to redirect")
	}
	u, err := v.BuildURL(status.Complete, "R1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if u.String() != "https://x.test/proj%201/done?u=R1" {
		t.Fatalf("unexpected url %s", u)
	}
	if calls != 1 {
		t.Fatalf("expected project id computed once per build, got %d", calls)
	}
}

func TestQueryVendorBuildURL(t *testing.T) {
	v := NewQueryVendor("qlab", ModeRedirect, QuerySpec{
		BaseURL: "https://q.test/return?src=relay",
		StatusCodes: map[status.Status]string{
			status.Complete:  "1",
			status.Terminate: "2",
			status.Quota:     "3",
		},
		Params: map[string]string{"v": "2"},
	}, StaticProjectID("C55"))

	u, err := v.BuildURL(status.Quota, "R 1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "https://q.test/return?src=relay&v=2&status=3&creference=C55&arid=R+1"
	if u.String() != want {
		t.Fatalf("expected %s, got %s", want, u)
	}

	again, _ := v.BuildURL(status.Quota, "R 1")
	if again.String() != u.String() {
		t.Fatalf("expected deterministic output")
	}

	if _, err := v.BuildURL(status.Quality, "R1"); !errors.Is(err, ErrUnsupportedStatus) {
		t.Fatalf("expected ErrUnsupportedStatus, got %v", err)
	}
}

func TestQueryVendorCustomParams(t *testing.T) {
	v := NewQueryVendor("alt", ModePostback, QuerySpec{
		BaseURL:      "https://alt.test/cb",
		StatusParam:  "s",
		IDParam:      "resp",
		ProjectParam: "proj",
		StatusCodes:  map[status.Status]string{status.Complete: "10"},
	}, nil)
	u, err := v.BuildURL(status.Complete, "R1")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if u.String() != "https://alt.test/cb?s=10&resp=R1" {
		t.Fatalf("unexpected url %s", u)
	}
}

func TestQueryVendorMalformedBase(t *testing.T) {
	v := NewQueryVendor("bad", ModeRedirect, QuerySpec{
		BaseURL:     "ftp://nope",
		StatusCodes: map[status.Status]string{status.Complete: "1"},
	}, nil)
	if _, err := v.BuildURL(status.Complete, "R1"); !errors.Is(err, ErrMalformedURL) {
		t.Fatalf("expected ErrMalformedURL, got %v", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(gomr("https://v.test"), nil)
	if _, ok := reg.Lookup(" GoMR "); !ok {
		t.Fatalf("expected case-insensitive lookup")
	}
	if _, ok := reg.Lookup(""); ok {
		t.Fatalf("expected blank key to miss")
	}
	if _, ok := reg.Lookup("other"); ok {
		t.Fatalf("expected unknown key to miss")
	}
	var nilReg *Registry
	if _, ok := nilReg.Lookup("gomr"); ok {
		t.Fatalf("expected nil registry to miss")
	}
	if keys := reg.Keys(); len(keys) != 1 || keys[0] != "gomr" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
