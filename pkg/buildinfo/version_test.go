package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	for _, want := range []string{"version: " + Version, "commit: " + Commit, "built: " + Date} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q: %s", want, s)
		}
	}
}

func TestTemplate(t *testing.T) {
	tpl := Template()
	if !strings.Contains(tpl, "{{.Name}}") {
		t.Errorf("template missing name placeholder: %s", tpl)
	}
	if !strings.Contains(tpl, Version) {
		t.Errorf("template missing version: %s", tpl)
	}
}
