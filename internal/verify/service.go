package verify

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/campus-verify/campus_verify/internal/email"
	"github.com/campus-verify/campus_verify/internal/member"
	"github.com/campus-verify/campus_verify/internal/role"
)

// Service runs the two-step challenge/response protocol: Request hands out a
// code over email, Submit trades the code for a durable member record and a
// role grant. Per identity the states are unverified, pending, verified;
// nothing ever leaves verified.
type Service struct {
	domain   string
	roleName string
	pending  *PendingTable
	members  member.Store
	sender   email.Sender
	granter  role.Granter
	logger   *slog.Logger
}

// NewService wires the protocol to its collaborators. domain is the single
// institutional email domain accepted as proof of affiliation; roleName is
// the platform role granted on success.
func NewService(domain, roleName string, pending *PendingTable, members member.Store, sender email.Sender, granter role.Granter, logger *slog.Logger) *Service {
	return &Service{
		domain:   domain,
		roleName: roleName,
		pending:  pending,
		members:  members,
		sender:   sender,
		granter:  granter,
		logger:   logger,
	}
}

// Request handles a verification request: parse the email argument, reject
// addresses already bound to a confirmed member, then create or refresh the
// pending challenge and deliver the code. Re-requesting is idempotent; a
// user who mistyped their email or lost the mail just runs it again.
func (s *Service) Request(ctx context.Context, identity string, roles []string, rawArgs string) Result {
	if hasRole(roles, s.roleName) {
		return Result{Outcome: OutcomeAlreadyVerified}
	}

	addr, res, ok := parseEmailArg(rawArgs, s.domain)
	if !ok {
		return res
	}

	// Advisory pre-check. The authoritative uniqueness check runs inside
	// the member store's locked append path at commit time.
	used, err := s.members.Exists(ctx, email.HashAddress(addr))
	if err != nil {
		s.logger.Error("member store lookup failed", slog.String("identity", identity), slog.Any("error", err))
		return Result{Outcome: OutcomeInternalError}
	}
	if used {
		return Result{Outcome: OutcomeEmailAlreadyUsed}
	}

	code, err := email.NewChallengeCode()
	if err != nil {
		s.logger.Error("challenge code generation failed", slog.Any("error", err))
		return Result{Outcome: OutcomeInternalError}
	}

	entry := Entry{Identity: identity, Email: addr, Code: code}

	var outcome Outcome
	switch s.pending.Upsert(entry) {
	case EntryCreated:
		outcome = OutcomeRequestCreated
	case CodeRefreshed:
		outcome = OutcomeCodeResent
	case EmailReplaced:
		outcome = OutcomeEmailUpdated
	}

	// Delivery is slow network I/O and runs outside every lock. A failure
	// does not roll the upsert back: the entry stays pending and the user
	// retries delivery by re-requesting.
	if err := s.sender.Send(ctx, email.Message{To: entry.Email, Identity: entry.Identity, Code: entry.Code}); err != nil {
		s.logger.Error("verification email delivery failed", slog.String("identity", identity), slog.Any("error", err))
		return Result{Outcome: OutcomeDeliveryFailed}
	}

	return Result{Outcome: outcome}
}

// Submit trades a previously delivered code for membership. On a match the
// pending entry is consumed, the hashed email is appended to the member
// store, and the role grant is signalled. A miss changes no state and does
// not reveal whether a challenge exists for the identity.
func (s *Service) Submit(ctx context.Context, identity string, roles []string, suppliedCode string) Result {
	if suppliedCode == "" {
		return Result{Outcome: OutcomeNoCodeSupplied}
	}

	if hasRole(roles, s.roleName) {
		return Result{Outcome: OutcomeAlreadyVerified}
	}

	entry, ok := s.pending.TakeMatch(identity, suppliedCode)
	if !ok {
		return Result{Outcome: OutcomeCodeRejected}
	}

	// The pending lock is released before the member store lock is taken;
	// the two are never held together.
	rec := member.Record{Name: entry.Identity, EmailHash: email.HashAddress(entry.Email)}
	if err := s.members.Append(ctx, rec); err != nil {
		if errors.Is(err, member.ErrEmailTaken) {
			// Lost the race to another identity claiming the same
			// address. The challenge is spent; the address can never
			// be claimed again anyway.
			s.logger.Warn("email hash claimed during commit", slog.String("identity", identity))
			return Result{Outcome: OutcomeEmailAlreadyUsed}
		}
		// Put the challenge back so the user can retry the same code
		// once storage recovers.
		s.pending.Restore(entry)
		s.logger.Error("member append failed", slog.String("identity", identity), slog.Any("error", err))
		return Result{Outcome: OutcomeInternalError}
	}

	if err := s.granter.Grant(ctx, identity, s.roleName); err != nil {
		if errors.Is(err, role.ErrRoleNotFound) {
			s.logger.Error("verified role missing from platform configuration",
				slog.String("identity", identity), slog.String("role", s.roleName))
			return Result{Outcome: OutcomeRoleMisconfigured}
		}
		s.logger.Error("role grant failed", slog.String("identity", identity), slog.Any("error", err))
		return Result{Outcome: OutcomeGrantFailed}
	}

	s.logger.Info("member verified", slog.String("identity", identity))
	return Result{Outcome: OutcomeVerified}
}

// PendingCount reports how many challenges are outstanding.
func (s *Service) PendingCount() int {
	return s.pending.Len()
}

// parseEmailArg expects rawArgs to contain exactly one whitespace-delimited
// token that validates as an institutional address.
func parseEmailArg(rawArgs, domain string) (string, Result, bool) {
	tokens := strings.Fields(rawArgs)
	switch {
	case len(tokens) == 0:
		return "", Result{Outcome: OutcomeInvalidInput, Reason: ReasonNoEmail}, false
	case len(tokens) > 1:
		return "", Result{Outcome: OutcomeInvalidInput, Reason: ReasonBadArgCount}, false
	}

	if !email.IsInstitutional(tokens[0], domain) {
		return "", Result{Outcome: OutcomeInvalidInput, Reason: ReasonInvalidEmail}, false
	}

	return tokens[0], Result{}, true
}

func hasRole(roles []string, name string) bool {
	for _, r := range roles {
		if r == name {
			return true
		}
	}
	return false
}
