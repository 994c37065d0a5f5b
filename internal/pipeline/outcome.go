package pipeline

// Outcome classifies how one ingestion event was handled. Expected domain
// conditions are outcomes, not errors; only transient infrastructure
// failures propagate to the transport for redelivery.
type Outcome string

const (
	OutcomeCreated            Outcome = "created"
	OutcomeUpdated            Outcome = "updated"
	OutcomeStale              Outcome = "stale"
	OutcomeDuplicateURL       Outcome = "duplicate_url"
	OutcomeRejectedValidation Outcome = "rejected_validation"
	OutcomeSubmissionRejected Outcome = "submission_rejected"
	OutcomeFailed             Outcome = "failed"
)

// Outcomes enumerates every outcome in reporting order.
var Outcomes = []Outcome{
	OutcomeCreated,
	OutcomeUpdated,
	OutcomeStale,
	OutcomeDuplicateURL,
	OutcomeRejectedValidation,
	OutcomeSubmissionRejected,
	OutcomeFailed,
}
