package verify

// Outcome is the tagged result of a protocol operation. The dispatcher in
// front of the service decides how each value reads to the user; the
// protocol itself never formats user-facing text beyond the short reasons
// carried in Result.
type Outcome int

const (
	// OutcomeInvalidInput covers a missing, malformed or non-institutional
	// email argument. Result.Reason names the specific failure.
	OutcomeInvalidInput Outcome = iota
	// OutcomeAlreadyVerified means the caller already holds the role.
	OutcomeAlreadyVerified
	// OutcomeEmailAlreadyUsed means a confirmed member already proved
	// control of this address.
	OutcomeEmailAlreadyUsed
	// OutcomeRequestCreated means a fresh pending entry was inserted.
	OutcomeRequestCreated
	// OutcomeCodeResent means the existing entry kept its email and got a
	// new code.
	OutcomeCodeResent
	// OutcomeEmailUpdated means the existing entry's email and code were
	// both replaced.
	OutcomeEmailUpdated
	// OutcomeNoCodeSupplied means Submit was called with an empty code.
	OutcomeNoCodeSupplied
	// OutcomeVerified means the code matched: the member record is durable
	// and the role grant was signalled.
	OutcomeVerified
	// OutcomeCodeRejected means no pending entry matched the identity and
	// code. It deliberately does not distinguish a wrong code from no
	// pending entry at all.
	OutcomeCodeRejected
	// OutcomeDeliveryFailed means the verification email could not be sent.
	// The pending entry stays in place; re-requesting retries delivery.
	OutcomeDeliveryFailed
	// OutcomeRoleMisconfigured means the configured role does not exist on
	// the platform. Operator attention required.
	OutcomeRoleMisconfigured
	// OutcomeGrantFailed means the role grant call failed transiently after
	// the member record was already persisted.
	OutcomeGrantFailed
	// OutcomeInternalError covers storage and entropy failures. No partial
	// state is left behind.
	OutcomeInternalError
)

// Input-validation reasons returned in Result.Reason.
const (
	ReasonNoEmail      = "no email supplied"
	ReasonBadArgCount  = "invalid number of arguments"
	ReasonInvalidEmail = "invalid email format or not an institutional email"
)

// Result pairs an Outcome with an optional short reason for the dispatcher
// to render.
type Result struct {
	Outcome Outcome
	Reason  string
}

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalidInput:
		return "invalid_input"
	case OutcomeAlreadyVerified:
		return "already_verified"
	case OutcomeEmailAlreadyUsed:
		return "email_already_used"
	case OutcomeRequestCreated:
		return "request_created"
	case OutcomeCodeResent:
		return "code_resent"
	case OutcomeEmailUpdated:
		return "email_updated"
	case OutcomeNoCodeSupplied:
		return "no_code_supplied"
	case OutcomeVerified:
		return "verified"
	case OutcomeCodeRejected:
		return "code_rejected"
	case OutcomeDeliveryFailed:
		return "delivery_failed"
	case OutcomeRoleMisconfigured:
		return "role_misconfigured"
	case OutcomeGrantFailed:
		return "grant_failed"
	case OutcomeInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}
