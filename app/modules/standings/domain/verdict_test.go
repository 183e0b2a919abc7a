package standingsdomain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

func TestVerdicts_CoverClosedSet(t *testing.T) {
	all := Verdicts()
	if len(all) != len(verdictCodes) {
		t.Fatalf("Verdicts() has %d entries, closed set has %d", len(all), len(verdictCodes))
	}
	for i, v := range all {
		if !v.Valid() {
			t.Errorf("verdict %d at position %d is not valid", int(v), i)
		}
		if v.DisplayOrder() != i {
			t.Errorf("%s.DisplayOrder() = %d, want %d", v, v.DisplayOrder(), i)
		}
	}
	if VerdictPending.DisplayOrder() != len(all)-1 {
		t.Errorf("pending should be displayed last")
	}
}

func TestParseVerdict(t *testing.T) {
	for _, v := range Verdicts() {
		got, err := ParseVerdict(v.Code())
		if err != nil {
			t.Fatalf("ParseVerdict(%q) error: %v", v.Code(), err)
		}
		if got != v {
			t.Errorf("ParseVerdict(%q) = %s, want %s", v.Code(), got, v)
		}
	}

	_, err := ParseVerdict("XYZ")
	if !errors.Is(err, ErrInconsistent) {
		t.Fatalf("expected ErrInconsistent for unknown code, got %v", err)
	}
}

func TestVerdict_Predicates(t *testing.T) {
	tests := []struct {
		verdict Verdict
		solved  bool
		final   bool
	}{
		{VerdictAccepted, true, true},
		{VerdictWrongAnswer, false, true},
		{VerdictCompileError, false, true},
		{VerdictSystemError, false, true},
		{VerdictPending, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.verdict.String(), func(t *testing.T) {
			if got := tt.verdict.IsSolved(); got != tt.solved {
				t.Errorf("IsSolved() = %v, want %v", got, tt.solved)
			}
			if got := tt.verdict.IsFinal(); got != tt.final {
				t.Errorf("IsFinal() = %v, want %v", got, tt.final)
			}
		})
	}
}

func TestPolicy_IsPenalized(t *testing.T) {
	p := DefaultPolicy()

	for _, v := range Verdicts() {
		want := true
		switch v {
		case VerdictAccepted, VerdictPending, VerdictCompileError, VerdictSystemError:
			want = false
		}
		if got := p.IsPenalized(v); got != want {
			t.Errorf("IsPenalized(%s) = %v, want %v", v, got, want)
		}
	}

	custom := Policy{NonPenalized: mapset.NewSet(VerdictPresentationError)}
	if custom.IsPenalized(VerdictPresentationError) {
		t.Error("presentation error should not be penalized when listed")
	}
	if !custom.IsPenalized(VerdictCompileError) {
		t.Error("compile error should be penalized when not listed")
	}
	if (Policy{}).IsPenalized(Verdict(99)) {
		t.Error("unknown verdicts are never penalized")
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"default", DefaultPolicy(), false},
		{"zero penalty", Policy{}, false},
		{"negative penalty", Policy{PenaltyPerWrong: -time.Minute}, true},
		{"negative freeze", Policy{FreezeWindow: -time.Hour}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestVerdict_JSONMapKeys(t *testing.T) {
	in := map[Verdict]int{VerdictAccepted: 3, VerdictWrongAnswer: 1}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"AC":3,"WA":1}` {
		t.Fatalf("unexpected json %s", raw)
	}

	var out map[Verdict]int
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out[VerdictAccepted] != 3 || out[VerdictWrongAnswer] != 1 {
		t.Fatalf("unexpected round trip %v", out)
	}
}
