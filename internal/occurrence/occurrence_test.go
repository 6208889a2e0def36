package occurrence

import (
	"errors"
	"testing"
	"time"
)

func sample(status Status) Occurrence {
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return Occurrence{
		ID:          "1",
		Protocol:    "OCR-2025-001",
		ServiceType: "Varrição de via",
		Priority:    PriorityMedium,
		Description: "Acúmulo de folhas na calçada",
		Address:     "Rua das Flores, 120",
		Status:      status,
		RegionalID:  "1",
		FiscalID:    "f1",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestLabelsAreTotal(t *testing.T) {
	for _, s := range Statuses() {
		label, err := LabelOf(s)
		if err != nil || label == "" {
			t.Fatalf("status %s sem rótulo: %v", s, err)
		}
		class, err := ColorClassOf(s)
		if err != nil || class == "" {
			t.Fatalf("status %s sem classe: %v", s, err)
		}
	}

	for _, raw := range []Status{"", "open", "Created"} {
		if _, err := LabelOf(raw); !errors.Is(err, ErrUnknownEnumValue) {
			t.Fatalf("LabelOf(%q) expected ErrUnknownEnumValue, got %v", raw, err)
		}
		if _, err := ColorClassOf(raw); !errors.Is(err, ErrUnknownEnumValue) {
			t.Fatalf("ColorClassOf(%q) expected ErrUnknownEnumValue, got %v", raw, err)
		}
	}

	if _, err := PriorityLabel("critical"); !errors.Is(err, ErrUnknownEnumValue) {
		t.Fatalf("expected ErrUnknownEnumValue, got %v", err)
	}
	if label, _ := PriorityLabel(PriorityUrgent); label != "Urgente" {
		t.Fatalf("unexpected label %q", label)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"created", StatusCreated},
		{" underReview ", StatusUnderReview},
		{"inExecution", StatusInExecution},
		{"em análise", StatusUnderReview},
		{"Pausada", StatusPaused},
		{"devolvida", StatusReturned},
	}
	for _, tc := range tests {
		got, err := ParseStatus(tc.raw)
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}

	if _, err := ParseStatus("arquivada"); !errors.Is(err, ErrUnknownEnumValue) {
		t.Fatalf("expected ErrUnknownEnumValue, got %v", err)
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority("Alta"); err != nil || p != PriorityHigh {
		t.Fatalf("unexpected %s %v", p, err)
	}
	if p, _ := ParsePriority("urgente"); p.Creatable() {
		t.Fatalf("urgent must not be creatable")
	}
}

func TestProtocol(t *testing.T) {
	if got := FormatProtocol(2025, 7); got != "OCR-2025-007" {
		t.Fatalf("unexpected protocol %s", got)
	}
	if got := FormatProtocol(2025, 1234); got != "OCR-2025-1234" {
		t.Fatalf("unexpected protocol %s", got)
	}

	year, seq, err := ParseProtocol("OCR-2024-042")
	if err != nil || year != 2024 || seq != 42 {
		t.Fatalf("unexpected parse %d %d %v", year, seq, err)
	}

	for _, bad := range []string{"", "OCR-24-001", "OCR-2024-01", "ABC-2024-001", "OCR-2024-00a", "OCR-2024-000"} {
		if _, _, err := ParseProtocol(bad); !errors.Is(err, ErrInvalidProtocol) {
			t.Fatalf("ParseProtocol(%q) expected error", bad)
		}
	}
}

func TestValidateCancelReason(t *testing.T) {
	o := sample(StatusCanceled)
	if err := o.Validate(); !errors.Is(err, ErrInvalidOccurrence) {
		t.Fatalf("expected invalid occurrence, got %v", err)
	}
	o.CancelReason = "Duplicada"
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	o := sample(StatusCreated)
	o.Description = "  "
	o.RegionalID = ""
	if err := o.Validate(); !errors.Is(err, ErrInvalidOccurrence) {
		t.Fatalf("expected invalid occurrence, got %v", err)
	}
}

func TestFullLifecycle(t *testing.T) {
	now := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		now = now.Add(time.Hour)
		return now
	}
	day := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	hours := 4.5

	steps := []struct {
		transition Transition
		input      TransitionInput
		want       Status
	}{
		{TransitionForward, TransitionInput{}, StatusForwarded},
		{TransitionAuthorize, TransitionInput{}, StatusAuthorized},
		{TransitionSchedule, TransitionInput{CompanyID: "c1", TeamID: "t1", ScheduledDate: &day, ScheduledTime: "07:30"}, StatusScheduled},
		{TransitionStart, TransitionInput{}, StatusInExecution},
		{TransitionPause, TransitionInput{Reason: "chuva"}, StatusPaused},
		{TransitionResume, TransitionInput{}, StatusInExecution},
		{TransitionExecute, TransitionInput{ActualHours: &hours, Notes: "ok"}, StatusExecuted},
		{TransitionPostInspection, TransitionInput{}, StatusExecuted},
		{TransitionComplete, TransitionInput{CompanyConfirmed: true}, StatusCompleted},
	}

	o := sample(StatusCreated)
	for _, step := range steps {
		before := o
		next, err := Apply(o, step.transition, step.input, tick())
		if err != nil {
			t.Fatalf("%s: %v", step.transition, err)
		}
		if next.Status != step.want {
			t.Fatalf("%s: status %s, want %s", step.transition, next.Status, step.want)
		}
		if !next.UpdatedAt.Equal(now) {
			t.Fatalf("%s: updated_at not bumped", step.transition)
		}
		for name, at := range before.Milestones() {
			got, ok := next.Milestones()[name]
			if !ok || !got.Equal(at) {
				t.Fatalf("%s: milestone %s changed", step.transition, name)
			}
		}
		o = next
	}

	if o.CompanyID != "c1" || o.TeamID != "t1" || !o.CompanyConfirmed {
		t.Fatalf("assignment not recorded: %+v", o)
	}
	if o.StartedAt == nil || o.CompletedAt == nil || o.PostInspectionDate == nil {
		t.Fatalf("milestones missing: %+v", o)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("completed occurrence invalid: %v", err)
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	for _, s := range []Status{StatusCanceled, StatusCompleted} {
		if got := Available(s); len(got) != 0 {
			t.Fatalf("status %s should be terminal, got %v", s, got)
		}
	}
}

func TestApplyRejectsInvalidSource(t *testing.T) {
	o := sample(StatusCreated)
	if _, err := Apply(o, TransitionStart, TransitionInput{}, time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := Apply(o, "reopen", TransitionInput{}, time.Now()); !errors.Is(err, ErrUnknownTransition) {
		t.Fatalf("expected ErrUnknownTransition, got %v", err)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	o := sample(StatusForwarded)
	if _, err := Apply(o, TransitionCancel, TransitionInput{Reason: " "}, time.Now()); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	next, err := Apply(o, TransitionCancel, TransitionInput{Reason: "Endereço inexistente"}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.CancelReason != "Endereço inexistente" || o.CancelReason != "" {
		t.Fatalf("cancel must not mutate the source value")
	}
}

func TestScheduleRequiresCompanyAndDate(t *testing.T) {
	o := sample(StatusAuthorized)
	day := time.Now()
	if _, err := Apply(o, TransitionSchedule, TransitionInput{ScheduledDate: &day}, time.Now()); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected missing company, got %v", err)
	}
	if _, err := Apply(o, TransitionSchedule, TransitionInput{CompanyID: "c1"}, time.Now()); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected missing date, got %v", err)
	}
}

func TestPreInspectionKeepsFirstDate(t *testing.T) {
	o := sample(StatusCreated)
	first := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	o, err := Apply(o, TransitionPreInspection, TransitionInput{InspectionDate: &first}, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusCreated {
		t.Fatalf("pre-inspection must not change status")
	}
	second := first.Add(24 * time.Hour)
	o, err = Apply(o, TransitionPreInspection, TransitionInput{InspectionDate: &second}, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.PreInspectionDate.Equal(first) {
		t.Fatalf("pre-inspection date overwritten: %v", o.PreInspectionDate)
	}
}
