package chips

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		raw    string
		parent string
		want   ChipType
	}{
		{"Deadline: expires today", "", TypeDeadline},
		{"fax failed - busy signal", "", TypeFailure},
		{"  Task:   call   the payer ", "", TypeTask},
		{"note: fax failed", "", TypeNote},
		{"auth due by 3pm", "", TypeDeadline},
		{"PT eval required", "", TypeRequirement},
		{"waiting on facility bed offer", "", TypeDependency},
		{"high readmission risk", "", TypeRisk},
		{"assigned to @jsmith", "", TypeOwner},
		{"clinicals submitted", "", TypeStatus},
		{"call family", "", TypeTask},
		{"misc comment", "", TypeNote},
		{"misc comment", "Auth denied", TypeFailure},
		{"misc comment", "Fall risk", TypeRisk},
		{"misc comment", "Auth pending", TypeNote},
		{"", "", TypeNote},
	}
	for _, tt := range tests {
		if got := Classify(tt.raw, tt.parent); got != tt.want {
			t.Errorf("Classify(%q, %q) = %q, want %q", tt.raw, tt.parent, got, tt.want)
		}
	}
}

func TestRank_order(t *testing.T) {
	order := []ChipType{
		TypeRequirement, TypeDependency, TypeDeadline, TypeStatus, TypeFailure,
		TypeTask, TypeRisk, TypeOwner, TypeNote,
	}
	for i, ct := range order {
		if got := Rank(ct); got != i+1 {
			t.Errorf("Rank(%q) = %d, want %d", ct, got, i+1)
		}
	}
	if Rank("Bogus") != Rank(TypeNote) {
		t.Error("unknown type should rank with Note")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"Deadline: expires today", "Expires today"},
		{"fax   failed -  busy signal", "Fax failed - busy signal"},
		{"awaiting SNF bed", "Awaiting SNF bed"},
		{"FAX FAILED - busy signal", "Fax failed - busy signal"},
		{"NEEDS DME AND PT EVAL", "Needs DME and PT eval"},
		{"call Dr. McKay re: ICU transfer", "Call Dr. McKay re: ICU transfer"},
		{"Plan A", "Plan A"},
		{"needs PT/OT eval", "Needs PT/OT eval"},
		{"Re: insurance", "Re: insurance"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Format(tt.raw); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSort_rankThenLexical(t *testing.T) {
	in := []string{"misc note", "call payer", "fax failed", "PT eval required", "Awaiting bed", "awaiting auth"}
	got := Sort(in, "")
	want := []string{"PT eval required", "awaiting auth", "Awaiting bed", "fax failed", "call payer", "misc note"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
	if in[0] != "misc note" {
		t.Error("Sort must not reorder its input")
	}
}

func TestSort_fixedPoint(t *testing.T) {
	in := []string{"zeta note", "Deadline: noon", "alpha note", "needs signature", "fax bounced", "Alpha note"}
	once := Sort(in, "Auth")
	twice := Sort(once, "Auth")
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Sort is not a fixed point: %v then %v", once, twice)
	}
}

func TestSort_stableOnEqualKeys(t *testing.T) {
	in := []string{"Note: b", "note: B", "Note: a"}
	got := Sort(in, "")
	want := []string{"Note: a", "Note: b", "note: B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"snf placement pending", "SNF Placement Pending"},
		{"awaiting md sign-off", "Awaiting MD Sign-off"},
		{"3-day rule met", "3-day Rule Met"},
		{"EHR SYNC issue", "EHR SYNC Issue"},
		{"home  health (pt/ot)", "Home Health (pt/ot)"},
		{"(irf) referral", "(IRF) Referral"},
		{"iv antibiotics", "IV Antibiotics"},
	}
	for _, tt := range tests {
		if got := TitleCase(tt.in); got != tt.want {
			t.Errorf("TitleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
