// Package policy implements the deterministic, side-effect-free
// reconciliation of the LLM1 precheck against the LLM2 suggestion (spec
// §4.4). It performs no I/O and no logging — every Reconcile call with the
// same inputs must return byte-identical output, which is one of the
// Testable Properties.
package policy

// Precheck carries the hard-rule inputs extracted by LLM1.
type Precheck struct {
	ExcludedFromEDAFlow bool
	IndicationCategory  string // e.g. "foreign_body"
	LabsRequired        bool
	LabsPass            string // "yes" | "no" | "unknown"
	ECGRequired         bool
	ECGPresent          string // "yes" | "no" | "unknown"
	PediatricFlag       bool
	Notes               string
}

// Alignment records the reconciled ok/not-ok state of each checked axis.
// Empty string means the rule set never touched that field.
type Alignment struct {
	ExcludedRequest bool
	LabsOK          string // "not_required" | "no" | "unknown"
	ECGOk           string // "not_required" | "no" | "unknown"
}

// Contradiction records one field the reconciler overrode relative to the
// LLM2 suggestion, so the discrepancy is auditable rather than silent.
type Contradiction struct {
	Rule       string
	Field      string
	Previous   string
	Reconciled string
}

// Reconcile merges precheck with the LLM2 suggestion and returns the final
// suggestion, the alignment breakdown, and every contradiction the rules
// introduced, in application order.
//
// pediatric_flag and notes pass through unchanged — they are informational
// only to this reconciler, not reconciled against anything.
func Reconcile(p Precheck, suggestion string) (string, Alignment, []Contradiction) {
	var contradictions []Contradiction
	var alignment Alignment

	setSuggestion := func(rule, value string) {
		if suggestion != value {
			contradictions = append(contradictions, Contradiction{
				Rule: rule, Field: "suggestion", Previous: suggestion, Reconciled: value,
			})
			suggestion = value
		}
	}
	setLabsOK := func(rule, value string) {
		if alignment.LabsOK != value {
			contradictions = append(contradictions, Contradiction{
				Rule: rule, Field: "labs_ok", Previous: alignment.LabsOK, Reconciled: value,
			})
			alignment.LabsOK = value
		}
	}
	setECGOk := func(rule, value string) {
		if alignment.ECGOk != value {
			contradictions = append(contradictions, Contradiction{
				Rule: rule, Field: "ecg_ok", Previous: alignment.ECGOk, Reconciled: value,
			})
			alignment.ECGOk = value
		}
	}

	switch {
	case p.ExcludedFromEDAFlow:
		if !alignment.ExcludedRequest {
			contradictions = append(contradictions, Contradiction{
				Rule: "excluded_from_eda_flow", Field: "excluded_request", Previous: "false", Reconciled: "true",
			})
			alignment.ExcludedRequest = true
		}
		setSuggestion("excluded_from_eda_flow", "deny")

	case p.IndicationCategory == "foreign_body":
		setLabsOK("foreign_body_exemption", "not_required")
		setECGOk("foreign_body_exemption", "not_required")

	default:
		if p.LabsRequired && p.LabsPass != "yes" {
			value := "unknown"
			if p.LabsPass == "no" {
				value = "no"
			}
			setLabsOK("labs_required_not_passed", value)
			setSuggestion("labs_required_not_passed", "deny")
		}
		if p.ECGRequired && p.ECGPresent != "yes" {
			value := "unknown"
			if p.ECGPresent == "no" {
				value = "no"
			}
			setECGOk("ecg_required_not_present", value)
			setSuggestion("ecg_required_not_present", "deny")
		}
	}

	return suggestion, alignment, contradictions
}
