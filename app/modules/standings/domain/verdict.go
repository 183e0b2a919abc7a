package standingsdomain

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Verdict is the outcome classification of a judged submission.
// The set is closed: every scoring rule switches over all of it.
type Verdict int

const (
	VerdictPending Verdict = iota
	VerdictAccepted
	VerdictPresentationError
	VerdictWrongAnswer
	VerdictTimeLimitExceeded
	VerdictMemoryLimitExceeded
	VerdictOutputLimitExceeded
	VerdictRuntimeError
	VerdictSegmentationFault
	VerdictFloatingPointError
	VerdictRestrictedFunction
	VerdictCompileError
	VerdictSkipped
	VerdictSystemError
)

// DefaultPenaltyPerWrong is the conventional ICPC penalty for each rejected attempt.
const DefaultPenaltyPerWrong = 20 * time.Minute

var verdictCodes = map[Verdict]string{
	VerdictPending:             "PD",
	VerdictAccepted:            "AC",
	VerdictPresentationError:   "PE",
	VerdictWrongAnswer:         "WA",
	VerdictTimeLimitExceeded:   "TLE",
	VerdictMemoryLimitExceeded: "MLE",
	VerdictOutputLimitExceeded: "OLE",
	VerdictRuntimeError:        "RE",
	VerdictSegmentationFault:   "SF",
	VerdictFloatingPointError:  "FPE",
	VerdictRestrictedFunction:  "RF",
	VerdictCompileError:        "CE",
	VerdictSkipped:             "SK",
	VerdictSystemError:         "SE",
}

var verdictNames = map[Verdict]string{
	VerdictPending:             "Pending",
	VerdictAccepted:            "Accepted",
	VerdictPresentationError:   "Presentation Error",
	VerdictWrongAnswer:         "Wrong Answer",
	VerdictTimeLimitExceeded:   "Time Limit Exceeded",
	VerdictMemoryLimitExceeded: "Memory Limit Exceeded",
	VerdictOutputLimitExceeded: "Output Limit Exceeded",
	VerdictRuntimeError:        "Runtime Error",
	VerdictSegmentationFault:   "Segmentation Fault",
	VerdictFloatingPointError:  "Floating Point Error",
	VerdictRestrictedFunction:  "Restricted Function",
	VerdictCompileError:        "Compilation Error",
	VerdictSkipped:             "Skipped",
	VerdictSystemError:         "System Error",
}

// Verdicts returns every verdict in display order.
func Verdicts() []Verdict {
	return []Verdict{
		VerdictAccepted,
		VerdictPresentationError,
		VerdictWrongAnswer,
		VerdictTimeLimitExceeded,
		VerdictMemoryLimitExceeded,
		VerdictOutputLimitExceeded,
		VerdictRuntimeError,
		VerdictSegmentationFault,
		VerdictFloatingPointError,
		VerdictRestrictedFunction,
		VerdictCompileError,
		VerdictSkipped,
		VerdictSystemError,
		VerdictPending,
	}
}

// DisplayOrder is the position of v in Verdicts().
func (v Verdict) DisplayOrder() int {
	for i, candidate := range Verdicts() {
		if candidate == v {
			return i
		}
	}
	return len(verdictCodes)
}

// Code is the short status code stored in the judge reply catalog.
func (v Verdict) Code() string {
	if code, ok := verdictCodes[v]; ok {
		return code
	}
	return fmt.Sprintf("V%d", int(v))
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Valid reports whether v belongs to the closed verdict set.
func (v Verdict) Valid() bool {
	_, ok := verdictCodes[v]
	return ok
}

// IsSolved reports whether v counts as solving the problem. Only Accepted does.
func (v Verdict) IsSolved() bool {
	return v == VerdictAccepted
}

// IsFinal reports whether judging has finished.
func (v Verdict) IsFinal() bool {
	return v != VerdictPending
}

// ParseVerdict resolves a judge reply code such as "WA".
func ParseVerdict(code string) (Verdict, error) {
	for v, c := range verdictCodes {
		if c == code {
			return v, nil
		}
	}
	return VerdictPending, fmt.Errorf("%w: unknown verdict code %q", ErrInconsistent, code)
}

// Policy holds the contest scoring rules.
type Policy struct {
	// PenaltyPerWrong is added once per penalized attempt before acceptance.
	PenaltyPerWrong time.Duration
	// NonPenalized lists final verdicts that never add penalty.
	NonPenalized mapset.Set[Verdict]
	// FreezeWindow hides results submitted during the last part of the contest
	// from the public view. Zero disables the freeze.
	FreezeWindow time.Duration
}

// DefaultPolicy returns the ICPC convention: 20 minutes per rejected attempt,
// compile and system errors excluded, no freeze.
func DefaultPolicy() Policy {
	return Policy{
		PenaltyPerWrong: DefaultPenaltyPerWrong,
		NonPenalized:    mapset.NewSet(VerdictCompileError, VerdictSystemError),
	}
}

// Validate rejects policies that would produce negative penalties.
func (p Policy) Validate() error {
	if p.PenaltyPerWrong < 0 {
		return fmt.Errorf("%w: negative penalty per wrong attempt %s", ErrInvalidArgument, p.PenaltyPerWrong)
	}
	if p.FreezeWindow < 0 {
		return fmt.Errorf("%w: negative freeze window %s", ErrInvalidArgument, p.FreezeWindow)
	}
	return nil
}

// IsPenalized reports whether v adds penalty when it precedes an acceptance.
func (p Policy) IsPenalized(v Verdict) bool {
	switch v {
	case VerdictPending, VerdictAccepted:
		return false
	case VerdictPresentationError,
		VerdictWrongAnswer,
		VerdictTimeLimitExceeded,
		VerdictMemoryLimitExceeded,
		VerdictOutputLimitExceeded,
		VerdictRuntimeError,
		VerdictSegmentationFault,
		VerdictFloatingPointError,
		VerdictRestrictedFunction,
		VerdictCompileError,
		VerdictSkipped,
		VerdictSystemError:
		return p.NonPenalized == nil || !p.NonPenalized.Contains(v)
	default:
		return false
	}
}

// MarshalText encodes v as its reply code so verdict-keyed maps read well in JSON.
func (v Verdict) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: unknown verdict %d", ErrInconsistent, int(v))
	}
	return []byte(v.Code()), nil
}

func (v *Verdict) UnmarshalText(text []byte) error {
	parsed, err := ParseVerdict(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
